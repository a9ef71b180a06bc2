package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"luxview/internal/widget"
)

// TableView lists every recommended chart as a plain table. It is the
// alternative to the widget layout and is read-only.
type TableView struct {
	ctrl  *widget.Controller
	table table.Model
}

var _ View = (*TableView)(nil)

// NewTableView creates the listing.
func NewTableView(ctrl *widget.Controller) *TableView {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Action", Width: 16},
			{Title: "#", Width: 4},
			{Title: "Sel", Width: 4},
			{Title: "Visualization", Width: 56},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	v := &TableView{ctrl: ctrl, table: t}
	v.Refresh()
	return v
}

// Rows returns the rows currently shown.
func (v *TableView) Rows() []table.Row { return v.table.Rows() }

// Refresh rebuilds the rows from the controller.
func (v *TableView) Refresh() {
	var rows []table.Row
	if vis := v.ctrl.CurrentVis(); vis != nil {
		rows = append(rows, table.Row{"(current)", "-", selMark(v.ctrl.CurrentVisSelection() == widget.CurrentVisSelected), summarizeVis(vis)})
	}
	for _, rec := range v.ctrl.Recommendations() {
		selected := make(map[int]bool)
		for _, i := range v.ctrl.Selection(widget.TabID(rec.Action)) {
			selected[i] = true
		}
		for i, item := range rec.Items {
			rows = append(rows, table.Row{rec.Action, fmt.Sprint(i), selMark(selected[i]), summarizeVis(item)})
		}
	}
	v.table.SetRows(rows)
}

func selMark(b bool) string {
	if b {
		return "x"
	}
	return ""
}

// Init implements View.
func (v *TableView) Init() tea.Cmd { return nil }

// Update implements View.
func (v *TableView) Update(msg tea.Msg) (View, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		v.table.SetHeight(max(ws.Height-6, 3))
		return v, nil
	}
	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return v, cmd
}

// View implements View.
func (v *TableView) View() string {
	if len(v.table.Rows()) == 0 {
		return Styles.Empty.Render("Nothing to list")
	}
	return v.table.View()
}
