package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"luxview/internal/ui/textutil"
	"luxview/internal/widget"
)

// GalleryView shows the charts of one recommendation tab and owns its
// multi-selection. It is the widget.Renderer for its tab.
type GalleryView struct {
	Tab      widget.TabID
	ctrl     *widget.Controller
	limit    int
	cursor   int
	selected map[int]bool
	status   string
}

var (
	_ View            = (*GalleryView)(nil)
	_ widget.Renderer = (*GalleryView)(nil)
)

// NewGalleryView creates the gallery for tab and attaches it to ctrl.
func NewGalleryView(tab widget.TabID, ctrl *widget.Controller, maxSelectable int) *GalleryView {
	g := &GalleryView{
		Tab:      tab,
		ctrl:     ctrl,
		limit:    maxSelectable,
		selected: make(map[int]bool),
	}
	for _, i := range ctrl.Selection(tab) {
		g.selected[i] = true
	}
	ctrl.AttachRenderer(tab, g)
	return g
}

func (g *GalleryView) items() []widget.VisSpec {
	rec, _ := g.ctrl.Recommendation(string(g.Tab))
	return rec.Items
}

// Cursor returns the index under the cursor.
func (g *GalleryView) Cursor() int { return g.cursor }

// Selection returns the selected indices, ascending.
func (g *GalleryView) Selection() []int {
	out := make([]int, 0, len(g.selected))
	for i := range g.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Status returns the last notice for the user, if any.
func (g *GalleryView) Status() string { return g.status }

// RemoveDeletedCharts implements widget.Renderer.
func (g *GalleryView) RemoveDeletedCharts() {
	g.selected = make(map[int]bool)
	g.status = ""
	if n := len(g.items()); g.cursor >= n {
		g.cursor = max(n-1, 0)
	}
}

// ClearSelection deselects every chart of the tab.
func (g *GalleryView) ClearSelection() {
	if len(g.selected) == 0 {
		return
	}
	g.selected = make(map[int]bool)
	g.commit()
}

// Toggle flips the selection of chart i, refusing to exceed the cap.
func (g *GalleryView) Toggle(i int) {
	if i < 0 || i >= len(g.items()) {
		return
	}
	if g.selected[i] {
		delete(g.selected, i)
	} else {
		if len(g.selected) >= g.limit {
			g.status = fmt.Sprintf("At most %d visualizations can be selected per tab", g.limit)
			return
		}
		g.selected[i] = true
	}
	g.status = ""
	g.commit()
}

func (g *GalleryView) commit() {
	if err := g.ctrl.SetSelection(g.Tab, g.Selection()); err != nil {
		g.status = err.Error()
	}
}

// Init implements View.
func (g *GalleryView) Init() tea.Cmd { return nil }

// Update implements View.
func (g *GalleryView) Update(msg tea.Msg) (View, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return g, nil
	}
	n := len(g.items())
	switch km.String() {
	case "j", "down":
		if g.cursor < n-1 {
			g.cursor++
		}
	case "k", "up":
		if g.cursor > 0 {
			g.cursor--
		}
	case "g", "home":
		g.cursor = 0
	case "G", "end":
		g.cursor = max(n-1, 0)
	case "enter", "x":
		g.Toggle(g.cursor)
	}
	return g, nil
}

// View implements View.
func (g *GalleryView) View() string {
	items := g.items()
	if len(items) == 0 {
		return Styles.Empty.Render("No visualizations left in " + string(g.Tab))
	}
	var b strings.Builder
	b.WriteString(Styles.Hint.Render(fmt.Sprintf("%d/%d selected", len(g.selected), g.limit)) + "\n")
	for i, item := range items {
		mark := "[ ]"
		if g.selected[i] {
			mark = "[x]"
		}
		line := mark + " " + textutil.PadRight(fmt.Sprint(i), 3) + summarizeVis(item)
		style := Styles.Card
		switch {
		case i == g.cursor:
			style = Styles.CardCursor
		case g.selected[i]:
			style = Styles.CardSelected
		}
		b.WriteString(style.Render(line) + "\n")
	}
	if g.status != "" {
		b.WriteString(Styles.Warning.Render(g.status) + "\n")
	}
	return b.String()
}
