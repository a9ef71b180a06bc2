package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MessagePanel shows the warning message sent by the kernel side.
type MessagePanel struct {
	Text string
}

var _ View = (*MessagePanel)(nil)

// Init implements View.
func (m *MessagePanel) Init() tea.Cmd { return nil }

// Update implements View.
func (m *MessagePanel) Update(msg tea.Msg) (View, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc", "m", "enter":
			return m, func() tea.Msg { return DismissModalMsg{} }
		}
	}
	return m, nil
}

// View implements View.
func (m *MessagePanel) View() string {
	content := Styles.Warning.Render("Warning") + "\n\n" + Styles.Normal.Render(m.Text)
	content += "\n\n" + Styles.Hint.Render("Esc: close")
	return Styles.Box.Render(content)
}
