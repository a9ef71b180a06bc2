package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"luxview/internal/widget"
)

// CurrentVisView shows the user's current visualization and the intent line.
// Enter or x toggles whether it is part of the export.
type CurrentVisView struct {
	ctrl *widget.Controller
}

var _ View = (*CurrentVisView)(nil)

// NewCurrentVisView creates the panel.
func NewCurrentVisView(ctrl *widget.Controller) *CurrentVisView {
	return &CurrentVisView{ctrl: ctrl}
}

// Selected reports whether the current visualization is selected.
func (c *CurrentVisView) Selected() bool {
	return c.ctrl.CurrentVisSelection() == widget.CurrentVisSelected
}

// Init implements View.
func (c *CurrentVisView) Init() tea.Cmd { return nil }

// Update implements View.
func (c *CurrentVisView) Update(msg tea.Msg) (View, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter", "x":
			if c.ctrl.CurrentVis() != nil {
				c.ctrl.SelectCurrentVis(!c.Selected())
			}
		}
	}
	return c, nil
}

// View implements View.
func (c *CurrentVisView) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("Current Vis") + "\n")
	if intent := c.ctrl.Intent(); intent != "" {
		b.WriteString(Styles.Hint.Render("Intent: "+intent) + "\n")
	}
	vis := c.ctrl.CurrentVis()
	if vis == nil {
		b.WriteString(Styles.Empty.Render("No current visualization"))
		return b.String()
	}
	mark := "[ ]"
	style := Styles.Card
	if c.Selected() {
		mark = "[x]"
		style = Styles.CardSelected
	}
	b.WriteString(style.Render(mark + " " + summarizeVis(vis)))
	return b.String()
}
