package ui

import "github.com/charmbracelet/lipgloss"

// Theme colors used throughout the UI
const (
	ColorAccent    = "86"  // Cyan/green - titles, active tab
	ColorHighlight = "205" // Magenta - cursor, selected cards
	ColorDanger    = "196" // Red - delete, errors
	ColorMuted     = "241" // Gray - hints, disabled buttons
	ColorText      = "252" // Light gray - normal text
	ColorWarning   = "208" // Orange - warning message indicator
	ColorSuccess   = "42"  // Green - export acknowledgement
)

// Styles contains shared style definitions used across views and modals.
var Styles = struct {
	Title        lipgloss.Style
	TitleWarning lipgloss.Style

	Box       lipgloss.Style // Panels
	BoxDanger lipgloss.Style // Confirm modal
	BoxAlert  lipgloss.Style // Export acknowledgement

	Card         lipgloss.Style // One visualization in a gallery
	CardCursor   lipgloss.Style
	CardSelected lipgloss.Style

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	Button         lipgloss.Style
	ButtonDanger   lipgloss.Style
	ButtonDisabled lipgloss.Style

	Muted   lipgloss.Style
	Normal  lipgloss.Style
	Hint    lipgloss.Style
	Empty   lipgloss.Style
	Label   lipgloss.Style
	Details lipgloss.Style
	Warning lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	TitleWarning: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorDanger)),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorMuted)).
		Padding(0, 1),
	BoxDanger: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorDanger)).
		Padding(1, 2).
		Margin(1),
	BoxAlert: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorSuccess)).
		Foreground(lipgloss.Color(ColorSuccess)).
		Padding(0, 1),
	Card: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(ColorMuted)).
		Padding(0, 1),
	CardCursor: lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(0, 1),
	CardSelected: lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(0, 1),
	TabActive: lipgloss.NewStyle().
		Bold(true).
		Underline(true).
		Foreground(lipgloss.Color(ColorAccent)).
		Padding(0, 1),
	TabInactive: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Padding(0, 1),
	Button: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Background(lipgloss.Color("24")).
		Padding(0, 1),
	ButtonDanger: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Background(lipgloss.Color("124")).
		Padding(0, 1),
	ButtonDisabled: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Padding(0, 1),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)),
	Hint: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Empty: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Italic(true),
	Label: lipgloss.NewStyle(),
	Details: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorDanger)),
	Warning: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorWarning)),
}
