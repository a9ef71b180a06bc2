package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// RenderKeybindHelp produces the transient help bar shown after SPC.
func RenderKeybindHelp(handler *KeyHandler, mode ViewMode) string {
	if handler == nil || !handler.LeaderWaiting {
		return ""
	}
	km := NewKeyMap(handler, mode)
	bindings := km.ShortHelp()
	if len(bindings) == 0 {
		return ""
	}

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHighlight)).Bold(true)
	h.Styles.ShortDesc = Styles.Muted
	h.Styles.ShortSeparator = Styles.Muted

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(0, 1).
		MarginTop(1)
	return box.Render(Styles.Muted.Render(handler.CurrentSeq()) + " " + h.ShortHelpView(bindings))
}
