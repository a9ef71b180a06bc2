package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"luxview/internal/store"
	"luxview/internal/widget"
)

func vis(title string) map[string]interface{} { return map[string]interface{}{"title": title} }

func testProps() map[string]interface{} {
	return map[string]interface{}{
		widget.KeyRecommendations: []interface{}{
			map[string]interface{}{
				"action":      "Correlation",
				"description": "pairs",
				"vspec":       []interface{}{vis("v0"), vis("v1"), vis("v2")},
			},
			map[string]interface{}{
				"action": "Occurrence",
				"vspec":  []interface{}{vis("w0")},
			},
		},
		widget.KeyCurrentVis: vis("current"),
		widget.KeyIntent:     "Age",
	}
}

type fixture struct {
	store *store.Memory
	ctrl  *widget.Controller
	model *WidgetModel
}

func newFixture(t *testing.T, props map[string]interface{}, maxSelectable int) *fixture {
	t.Helper()
	mem, err := store.NewMemory(props)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	sched := NewScheduler()
	ctrl, err := widget.NewController(mem, widget.WithScheduler(sched), widget.WithAckTimeout(time.Minute))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return &fixture{
		store: mem,
		ctrl:  ctrl,
		model: NewWidgetModel(ctrl, sched, Options{MaxSelectable: maxSelectable}),
	}
}

// send delivers msg and then the message produced by its command, if any.
// Tick commands are never executed; they stay queued in the scheduler.
func (f *fixture) send(msg tea.Msg) {
	cmd := f.model.update(msg)
	if cmd == nil {
		return
	}
	if next := cmd(); next != nil {
		f.model.update(next)
	}
}

func (f *fixture) press(keys ...string) {
	for _, k := range keys {
		f.send(keyMsg(k))
	}
}
