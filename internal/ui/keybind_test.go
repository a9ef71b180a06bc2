package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestKeybindRegistry_BindLookup(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("q", tea.Quit)
	reg.Bind("SPC q", tea.Quit)
	reg.Bind("j", nil)

	if reg.Lookup("q", ModeWidget) == nil {
		t.Error("expected q to be bound")
	}
	if reg.Lookup("space q", ModeWidget) == nil {
		t.Error("expected space q to normalize to SPC q")
	}
	if reg.Lookup("unknown", ModeWidget) != nil {
		t.Error("expected unknown to be unbound")
	}
}

func TestKeybindRegistry_ModeFilter(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.BindForMode("e", tea.Quit, "Export", []ViewMode{ModeWidget})

	if reg.Lookup("e", ModeWidget) == nil {
		t.Error("expected e bound in widget mode")
	}
	if reg.Lookup("e", ModeTable) != nil {
		t.Error("expected e unbound in table mode")
	}
}

func TestKeyHandler_LeaderKey(t *testing.T) {
	reg := NewKeybindRegistry()
	var executed bool
	reg.Bind("SPC x", func() tea.Msg {
		executed = true
		return nil
	})
	h := NewKeyHandler(reg)

	consumed, cmd := h.Handle(keyMsg(" "), ModeWidget)
	if !consumed || cmd != nil {
		t.Errorf("space: consumed=%v cmd=%v", consumed, cmd)
	}
	if !h.LeaderWaiting {
		t.Fatal("expected leader waiting after space")
	}

	consumed, cmd = h.Handle(keyMsg("x"), ModeWidget)
	if !consumed || cmd == nil {
		t.Fatalf("x: consumed=%v cmd=%v", consumed, cmd)
	}
	cmd()
	if !executed {
		t.Error("expected SPC x command to run")
	}
	if h.LeaderWaiting {
		t.Error("expected leader mode to end after a match")
	}
}

func TestKeyHandler_NestedSequenceAndEsc(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC s c", tea.Quit)
	h := NewKeyHandler(reg)

	h.Handle(keyMsg(" "), ModeWidget)
	consumed, cmd := h.Handle(keyMsg("s"), ModeWidget)
	if !consumed || cmd != nil || !h.LeaderWaiting {
		t.Fatalf("SPC s: consumed=%v cmd=%v waiting=%v", consumed, cmd, h.LeaderWaiting)
	}
	if got := h.CurrentSeq(); got != "SPC s" {
		t.Errorf("CurrentSeq = %q, want %q", got, "SPC s")
	}

	consumed, _ = h.Handle(keyMsg("esc"), ModeWidget)
	if !consumed || h.LeaderWaiting {
		t.Errorf("esc: consumed=%v waiting=%v", consumed, h.LeaderWaiting)
	}

	consumed, _ = h.Handle(keyMsg("esc"), ModeWidget)
	if consumed {
		t.Error("esc outside leader mode must reach the views")
	}
}

func TestKeyHandler_UnknownLeaderSequenceResets(t *testing.T) {
	h := NewKeyHandler(NewKeybindRegistry())
	h.Handle(keyMsg(" "), ModeWidget)
	consumed, cmd := h.Handle(keyMsg("z"), ModeWidget)
	if !consumed || cmd != nil {
		t.Errorf("z: consumed=%v cmd=%v", consumed, cmd)
	}
	if h.LeaderWaiting {
		t.Error("expected leader mode reset")
	}
}

func TestLeaderHints(t *testing.T) {
	reg := newWidgetKeybinds()

	hints := reg.LeaderHints("", ModeWidget)
	if hints["e"] != "Export" || hints["d"] != "Delete" {
		t.Errorf("widget hints: %v", hints)
	}
	if hints["s"] != "Selection" {
		t.Errorf("expected submenu label for s, got %q", hints["s"])
	}

	hints = reg.LeaderHints("", ModeTable)
	if _, ok := hints["e"]; ok {
		t.Error("export must not be offered in table mode")
	}
	if hints["v"] == "" {
		t.Error("expected toggle view in table mode")
	}

	hints = reg.LeaderHints("SPC s", ModeWidget)
	if hints["c"] != "Clear tab selection" {
		t.Errorf("SPC s hints: %v", hints)
	}
}

// keyMsg builds a tea.KeyMsg the way Bubble Tea reports key s.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "space", " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}
