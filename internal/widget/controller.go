package widget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"luxview/internal/store"
)

// ErrUnknownAction is returned when a selection names no recommendation.
var ErrUnknownAction = errors.New("widget: unknown action")

// Renderer displays one tab's items. The controller calls RemoveDeletedCharts
// after deleting items so the renderer re-syncs with the shorter item list.
type Renderer interface {
	RemoveDeletedCharts()
}

// Option configures a Controller.
type Option func(*Controller)

// WithEventLogger sets the interaction event sink.
func WithEventLogger(l EventLogger) Option {
	return func(c *Controller) {
		if l != nil {
			c.events = l
		}
	}
}

// WithScheduler sets the scheduler driving the acknowledgement window.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAckTimeout sets how long the export acknowledgement stays visible.
func WithAckTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.ackTimeout = d
		}
	}
}

// Controller synchronizes the widget's local state with the property store.
// Inbound store changes replace local fields wholesale; export and delete
// mutate local state first and then commit to the store without waiting for
// the other side.
type Controller struct {
	store      store.Store
	events     EventLogger
	sched      Scheduler
	logger     *slog.Logger
	ackTimeout time.Duration

	recommendations []Recommendation
	currentVis      VisSpec
	intent          string
	message         string

	registry   *Registry
	exported   ExportMap
	deleted    ExportMap
	currentSel CurrentVisState
	activeTab  TabID

	renderers map[TabID]Renderer
	ack       ack
}

// NewController builds a controller from the store's current snapshot.
func NewController(s store.Store, opts ...Option) (*Controller, error) {
	c := &Controller{
		store:      s,
		events:     NopLogger{},
		sched:      TimerScheduler{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		ackTimeout: DefaultAckTimeout,
		exported:   ExportMap{Actions: map[string][]int{}},
		deleted:    ExportMap{Actions: map[string][]int{}},
		currentSel: CurrentVisUnset,
		renderers:  make(map[TabID]Renderer),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registry = NewRegistry(c.rebuild)

	recs, err := decodeRecommendations(s)
	if err != nil {
		return nil, fmt.Errorf("widget: initial snapshot: %w", err)
	}
	c.recommendations = recs
	c.currentVis = decodeCurrentVis(s)
	c.intent = decodeString(s, KeyIntent)
	c.message = decodeString(s, KeyMessage)
	if len(recs) > 0 {
		c.activeTab = TabID(recs[0].Action)
	}
	return c, nil
}

// Init reports widget initialization to the event logger.
func (c *Controller) Init() {
	c.events.Log(EventInit, "")
}

// Recommendations returns the live recommendation list. Callers must not mutate it.
func (c *Controller) Recommendations() []Recommendation { return c.recommendations }

// Recommendation returns the recommendation for action.
func (c *Controller) Recommendation(action string) (Recommendation, bool) {
	for _, rec := range c.recommendations {
		if rec.Action == action {
			return rec, true
		}
	}
	return Recommendation{}, false
}

// CurrentVis returns the current visualization, or nil when there is none.
func (c *Controller) CurrentVis() VisSpec { return c.currentVis }

// Intent returns the intent display string.
func (c *Controller) Intent() string { return c.intent }

// Message returns the warning message display string.
func (c *Controller) Message() string { return c.message }

// ActiveTab returns the tab last switched to.
func (c *Controller) ActiveTab() TabID { return c.activeTab }

// CurrentVisSelection returns the current-visualization panel state.
func (c *Controller) CurrentVisSelection() CurrentVisState { return c.currentSel }

// Selection returns the recorded selection for tab.
func (c *Controller) Selection(tab TabID) []int { return c.registry.Get(tab) }

// Registry exposes the selection registry for inspection.
func (c *Controller) Registry() map[TabID][]int { return c.registry.All() }

// Exported returns a copy of the current exported-index map.
func (c *Controller) Exported() ExportMap { return c.exported.Clone() }

// LastDeleted returns the deletion record of the most recent delete.
func (c *Controller) LastDeleted() ExportMap { return c.deleted.Clone() }

// CanExport reports whether export and delete have anything to act on.
func (c *Controller) CanExport() bool { return !c.exported.IsEmpty() }

// AckVisible reports whether the export acknowledgement is showing.
func (c *Controller) AckVisible() bool { return c.ack.visible }

// AttachRenderer registers the renderer for a tab, replacing any previous one.
func (c *Controller) AttachRenderer(tab TabID, r Renderer) {
	if r == nil {
		delete(c.renderers, tab)
		return
	}
	c.renderers[tab] = r
}

// DetachRenderers forgets every renderer.
func (c *Controller) DetachRenderers() {
	c.renderers = make(map[TabID]Renderer)
}

// SwitchTab records the active tab and dismisses a pending acknowledgement.
func (c *Controller) SwitchTab(tab TabID) {
	if tab != "" {
		c.events.Log(EventSwitchTab, string(tab))
	}
	c.activeTab = tab
	c.ack.dismiss()
}

// SetSelection records the multi-selection of a recommendation tab.
func (c *Controller) SetSelection(tab TabID, indices []int) error {
	if tab.IsCurrentVis() {
		return fmt.Errorf("%w: use SelectCurrentVis for the current visualization", ErrUnknownAction)
	}
	if _, ok := c.Recommendation(string(tab)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, string(tab))
	}
	c.ack.dismiss()
	c.registry.Set(tab, indices)
	return nil
}

// SelectCurrentVis selects or deselects the current-visualization panel.
func (c *Controller) SelectCurrentVis(selected bool) {
	c.ack.dismiss()
	if selected {
		c.currentSel = CurrentVisSelected
	} else {
		c.currentSel = CurrentVisDeselected
	}
	c.registry.Set(CurrentVisTab, nil)
}

// ToggleView reports a switch between the widget and the plain table view.
func (c *Controller) ToggleView(viewType string) {
	c.events.Log(EventToggleView, viewType)
}

// DismissAck hides the export acknowledgement and cancels its auto-clear.
func (c *Controller) DismissAck() { c.ack.dismiss() }

// Export commits the exported-index map to the store. It is a no-op when
// nothing is selected. A commit failure is returned; local state is kept.
func (c *Controller) Export(ctx context.Context) error {
	if c.exported.IsEmpty() {
		return nil
	}
	exported := c.exported.Clone()
	c.events.Log(EventExport, exported)
	c.ack.show(c.sched, c.ackTimeout, c.expireAck)

	c.store.Set(KeyExported, exported)
	if err := c.store.Commit(ctx); err != nil {
		c.ack.dismiss()
		c.logger.Error("widget.Export: commit failed", "keys", exported.Keys(), "err", err)
		return fmt.Errorf("widget: export commit: %w", err)
	}
	c.logger.Debug("widget.Export: committed", "keys", exported.Keys())
	return nil
}

// Delete removes every exported item from its recommendation, resets the
// selection, and commits the deletion record with an empty export map.
// It is a no-op when nothing is selected.
func (c *Controller) Delete(ctx context.Context) (ExportMap, error) {
	if c.exported.IsEmpty() {
		return ExportMap{Actions: map[string][]int{}}, nil
	}
	record := c.exported.Clone()
	c.events.Log(EventDelete, record)

	removed := RemoveSelected(c.recommendations, record)
	c.currentSel = CurrentVisDeselected
	c.registry.Clear()
	c.deleted = record
	for _, r := range c.renderers {
		r.RemoveDeletedCharts()
	}

	c.store.Set(KeyDeleted, record)
	c.store.Set(KeyExported, ExportMap{Actions: map[string][]int{}})
	if err := c.store.Commit(ctx); err != nil {
		c.logger.Error("widget.Delete: commit failed", "keys", record.Keys(), "err", err)
		return record, fmt.Errorf("widget: delete commit: %w", err)
	}
	c.logger.Debug("widget.Delete: committed", "removed", removed)
	return record, nil
}

// HandleChanges applies an inbound store change. Changed fields are replaced
// wholesale. Replacing recommendations drops their selections, since the old
// indices may no longer address the same items.
func (c *Controller) HandleChanges(cs store.ChangeSet) error {
	var errs []error
	if cs.Has(KeyRecommendations) {
		recs, err := decodeRecommendations(c.store)
		if err != nil {
			errs = append(errs, err)
		} else {
			c.recommendations = recs
			if _, ok := c.Recommendation(string(c.activeTab)); !ok {
				c.activeTab = ""
				if len(recs) > 0 {
					c.activeTab = TabID(recs[0].Action)
				}
			}
			c.registry.Retain(TabID.IsCurrentVis)
			for _, r := range c.renderers {
				r.RemoveDeletedCharts()
			}
		}
	}
	if cs.Has(KeyCurrentVis) {
		c.currentVis = decodeCurrentVis(c.store)
		if c.currentVis == nil && c.currentSel == CurrentVisSelected {
			c.currentSel = CurrentVisDeselected
		}
		c.rebuild()
	}
	if cs.Has(KeyIntent) {
		c.intent = decodeString(c.store, KeyIntent)
	}
	if cs.Has(KeyMessage) {
		c.message = decodeString(c.store, KeyMessage)
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		c.logger.Warn("widget.HandleChanges: ignored malformed change", "keys", cs.Keys(), "err", err)
		return fmt.Errorf("widget: apply change: %w", err)
	}
	return nil
}

func (c *Controller) rebuild() {
	c.exported = BuildExportMap(c.registry, c.recommendations, c.currentSel, c.currentVis)
}

func (c *Controller) expireAck(epoch uint64) {
	if c.ack.expire(epoch) {
		c.logger.Debug("widget: acknowledgement expired", "epoch", epoch)
	}
}
