package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeybindRegistry maps key sequences to commands.
// Key sequences use spacemacs-style notation: "SPC" for space, "SPC e" for SPC then e.
// Single keys: "q", "ctrl+c", "e".
type KeybindRegistry struct {
	bindings     map[string]tea.Cmd
	descriptions map[string]string
	modeFilter   map[string][]ViewMode // nil/empty = applies to all modes
}

// NewKeybindRegistry creates an empty registry.
func NewKeybindRegistry() *KeybindRegistry {
	return &KeybindRegistry{
		bindings:     make(map[string]tea.Cmd),
		descriptions: make(map[string]string),
		modeFilter:   make(map[string][]ViewMode),
	}
}

// Bind registers a key sequence to a command, replacing any existing binding.
func (r *KeybindRegistry) Bind(seq string, cmd tea.Cmd) {
	r.BindWithDesc(seq, cmd, "")
}

// BindWithDesc registers a key sequence with a description for the help bar.
// The binding applies in every mode.
func (r *KeybindRegistry) BindWithDesc(seq string, cmd tea.Cmd, desc string) {
	r.BindForMode(seq, cmd, desc, nil)
}

// BindForMode registers a key sequence that only applies in the given modes.
func (r *KeybindRegistry) BindForMode(seq string, cmd tea.Cmd, desc string, modes []ViewMode) {
	n := normalizeSeq(seq)
	r.bindings[n] = cmd
	if desc != "" {
		r.descriptions[n] = desc
	}
	if len(modes) > 0 {
		r.modeFilter[n] = modes
	}
}

// Lookup returns the command for a key sequence in mode, or nil if not bound.
func (r *KeybindRegistry) Lookup(seq string, mode ViewMode) tea.Cmd {
	n := normalizeSeq(seq)
	if !r.appliesToMode(n, mode) {
		return nil
	}
	return r.bindings[n]
}

// HasPrefix returns true if any binding starts with seq and a space (i.e. more keys follow).
func (r *KeybindRegistry) HasPrefix(seq string) bool {
	prefix := normalizeSeq(seq) + " "
	for k := range r.bindings {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// submenuLabel names leader keys that open a second level.
var submenuLabel = map[string]string{
	"s": "Selection",
}

// LeaderHints returns hints for the keys that may follow currentSeq
// (SPC when empty), filtered by mode.
func (r *KeybindRegistry) LeaderHints(currentSeq string, mode ViewMode) map[string]string {
	out := make(map[string]string)
	prefix := "SPC "
	if currentSeq != "" {
		prefix = normalizeSeq(currentSeq) + " "
	}
	for seq, cmd := range r.bindings {
		if cmd == nil || !strings.HasPrefix(seq, prefix) || !r.appliesToMode(seq, mode) {
			continue
		}
		rest := strings.TrimPrefix(seq, prefix)
		k := rest
		if parts := strings.Fields(rest); len(parts) > 0 {
			k = parts[0]
		}
		switch {
		case r.HasPrefix(prefix + k):
			if label, ok := submenuLabel[k]; ok {
				out[k] = label
			} else {
				out[k] = k + "…"
			}
		case r.descriptions[seq] != "":
			out[k] = r.descriptions[seq]
		default:
			out[k] = seq
		}
	}
	return out
}

func (r *KeybindRegistry) appliesToMode(seq string, mode ViewMode) bool {
	modes, ok := r.modeFilter[seq]
	if !ok || len(modes) == 0 {
		return true
	}
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

// normalizeSeq converts tea key strings to our canonical format.
func normalizeSeq(seq string) string {
	parts := strings.Fields(seq)
	for i, p := range parts {
		if p == "space" {
			parts[i] = "SPC"
		}
	}
	return strings.Join(parts, " ")
}

// KeyHandler manages leader key state and dispatches to the registry.
type KeyHandler struct {
	Registry      *KeybindRegistry
	LeaderWaiting bool     // true when waiting for key after leader
	Buffer        []string // accumulated sequence in leader mode
}

// NewKeyHandler creates a handler with SPC as leader.
func NewKeyHandler(reg *KeybindRegistry) *KeyHandler {
	return &KeyHandler{Registry: reg}
}

// Handle processes a KeyMsg. If consumed is true the key must not reach the views.
func (h *KeyHandler) Handle(msg tea.KeyMsg, mode ViewMode) (consumed bool, cmd tea.Cmd) {
	s := keyToSeqPart(msg.String())

	if s == "esc" {
		if h.LeaderWaiting {
			h.reset()
			return true, nil
		}
		return false, nil
	}

	if !h.LeaderWaiting && s == "SPC" {
		h.LeaderWaiting = true
		h.Buffer = []string{"SPC"}
		return true, nil
	}

	if h.LeaderWaiting {
		h.Buffer = append(h.Buffer, s)
		seq := strings.Join(h.Buffer, " ")
		if c := h.Registry.Lookup(seq, mode); c != nil {
			h.reset()
			return true, c
		}
		if h.Registry.HasPrefix(seq) {
			return true, nil
		}
		h.reset()
		return true, nil
	}

	if c := h.Registry.Lookup(s, mode); c != nil {
		return true, c
	}
	return false, nil
}

// CurrentSeq returns the pending leader sequence, or "" outside leader mode.
func (h *KeyHandler) CurrentSeq() string {
	return strings.Join(h.Buffer, " ")
}

func (h *KeyHandler) reset() {
	h.LeaderWaiting = false
	h.Buffer = nil
}

// keyToSeqPart converts a tea key string to our sequence part.
// Bubble Tea reports space as " ".
func keyToSeqPart(s string) string {
	if s == " " || s == "space" {
		return "SPC"
	}
	return s
}

// KeyMap implements help.KeyMap over the leader hints of a mode.
type KeyMap struct {
	handler *KeyHandler
	mode    ViewMode
}

// NewKeyMap creates a KeyMap for the given handler and mode.
func NewKeyMap(handler *KeyHandler, mode ViewMode) help.KeyMap {
	return &KeyMap{handler: handler, mode: mode}
}

// ShortHelp implements help.KeyMap.
func (km *KeyMap) ShortHelp() []key.Binding {
	if km.handler == nil || km.handler.Registry == nil {
		return nil
	}
	hints := km.handler.Registry.LeaderHints(km.handler.CurrentSeq(), km.mode)
	if len(hints) == 0 {
		return nil
	}
	keys := make([]string, 0, len(hints))
	for k := range hints {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bindings := make([]key.Binding, 0, len(keys)+1)
	for _, k := range keys {
		bindings = append(bindings, key.NewBinding(key.WithKeys(k), key.WithHelp(k, hints[k])))
	}
	return append(bindings, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")))
}

// FullHelp implements help.KeyMap.
func (km *KeyMap) FullHelp() [][]key.Binding {
	short := km.ShortHelp()
	if len(short) == 0 {
		return nil
	}
	return [][]key.Binding{short}
}
