package widget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxview/internal/store"
)

type harness struct {
	store  *store.Memory
	sched  *fakeScheduler
	events *recordingLogger
	ctrl   *Controller
}

func newHarness(t *testing.T, props map[string]interface{}) *harness {
	t.Helper()
	mem, err := store.NewMemory(props)
	require.NoError(t, err)
	h := &harness{store: mem, sched: &fakeScheduler{}, events: &recordingLogger{}}
	h.ctrl, err = NewController(mem,
		WithScheduler(h.sched),
		WithEventLogger(h.events),
		WithAckTimeout(60*time.Second),
	)
	require.NoError(t, err)
	return h
}

func scenarioProps() map[string]interface{} {
	return map[string]interface{}{
		KeyRecommendations: []Recommendation{
			{Action: "Correlation", Description: "pairs", Items: visList("v0", "v1", "v2")},
			{Action: "Occurrence", Description: "counts", Items: visList("w0")},
		},
		KeyCurrentVis: vis("current"),
		KeyIntent:     "Age",
		KeyMessage:    "",
	}
}

func TestController_LoadsInitialSnapshot(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl

	require.Len(t, c.Recommendations(), 2)
	assert.Equal(t, "Correlation", c.Recommendations()[0].Action)
	assert.Equal(t, visList("v0", "v1", "v2"), c.Recommendations()[0].Items)
	assert.Equal(t, vis("current"), c.CurrentVis())
	assert.Equal(t, "Age", c.Intent())
	assert.Equal(t, TabID("Correlation"), c.ActiveTab())
	assert.Equal(t, CurrentVisUnset, c.CurrentVisSelection())
	assert.False(t, c.CanExport())
}

func TestController_EmptyCurrentVisListMeansNone(t *testing.T) {
	h := newHarness(t, map[string]interface{}{KeyCurrentVis: []interface{}{}})
	assert.Nil(t, h.ctrl.CurrentVis())
	assert.Empty(t, h.ctrl.Recommendations())
}

func TestController_Init(t *testing.T) {
	h := newHarness(t, scenarioProps())
	h.ctrl.Init()
	assert.Equal(t, []string{EventInit}, h.events.names())
}

func TestController_SelectExportDeleteScenario(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl
	corr, occ := &countingRenderer{}, &countingRenderer{}
	c.AttachRenderer("Correlation", corr)
	c.AttachRenderer("Occurrence", occ)

	require.NoError(t, c.SetSelection("Correlation", []int{0, 2}))
	require.NoError(t, c.SetSelection("Occurrence", []int{0}))
	assert.Equal(t, map[string][]int{"Correlation": {0, 2}, "Occurrence": {0}}, c.Exported().Actions)

	record, err := c.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"Correlation": {0, 2}, "Occurrence": {0}}, record.Actions)

	assert.Equal(t, visList("v1"), c.Recommendations()[0].Items)
	assert.Empty(t, c.Recommendations()[1].Items)
	assert.Empty(t, c.Registry())
	assert.True(t, c.Exported().IsEmpty())
	assert.Equal(t, 1, corr.resyncs)
	assert.Equal(t, 1, occ.resyncs)

	deleted, ok := h.store.Get(KeyDeleted)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"Correlation": []interface{}{0.0, 2.0},
		"Occurrence":  []interface{}{0.0},
	}, deleted)
	exported, ok := h.store.Get(KeyExported)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{}, exported)
	assert.Equal(t, record.Actions, c.LastDeleted().Actions)
	assert.Equal(t, []string{EventDelete}, h.events.names())
}

func TestController_DeleteResetsCurrentVisSelection(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl
	c.SelectCurrentVis(true)
	require.NoError(t, c.SetSelection("Correlation", []int{1}))

	record, err := c.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, vis("current"), record.CurrentVis)
	assert.Equal(t, CurrentVisDeselected, c.CurrentVisSelection())
	assert.True(t, c.Exported().IsEmpty())
	assert.Equal(t, visList("v0", "v2"), c.Recommendations()[0].Items)
}

func TestController_CurrentVisOnlyWithoutRecommendations(t *testing.T) {
	h := newHarness(t, map[string]interface{}{KeyCurrentVis: vis("current")})
	c := h.ctrl

	c.SelectCurrentVis(true)
	assert.Equal(t, CurrentVisSelected, c.CurrentVisSelection())
	assert.Equal(t, []string{CurrentVisKey}, c.Exported().Keys())

	c.SelectCurrentVis(false)
	assert.True(t, c.Exported().IsEmpty())
}

func TestController_ExportCommitsAndLogs(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl
	require.NoError(t, c.SetSelection("Correlation", []int{2, 0}))

	require.NoError(t, c.Export(context.Background()))

	got, ok := h.store.Get(KeyExported)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"Correlation": []interface{}{0.0, 2.0}}, got)
	require.Len(t, h.events.events, 1)
	assert.Equal(t, EventExport, h.events.events[0].name)
	payload, ok := h.events.events[0].payload.(ExportMap)
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, payload.Actions["Correlation"])
	assert.True(t, c.AckVisible())
	// Export does not clear the selection.
	assert.Equal(t, []int{0, 2}, c.Selection("Correlation"))
}

func TestController_EmptyExportAndDeleteAreNoops(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl

	require.NoError(t, c.Export(context.Background()))
	record, err := c.Delete(context.Background())
	require.NoError(t, err)
	assert.True(t, record.IsEmpty())

	assert.Empty(t, h.events.events)
	assert.False(t, c.AckVisible())
	assert.Equal(t, int64(0), h.store.Version())
	assert.Len(t, c.Recommendations()[0].Items, 3)
}

func TestController_AckAutoClears(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl
	require.NoError(t, c.SetSelection("Occurrence", []int{0}))

	require.NoError(t, c.Export(context.Background()))
	assert.True(t, c.AckVisible())

	h.sched.Advance(59 * time.Second)
	assert.True(t, c.AckVisible())
	h.sched.Advance(time.Second)
	assert.False(t, c.AckVisible())
	assert.Equal(t, 0, h.sched.Pending())
}

func TestController_SecondExportSupersedesFirstClear(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl
	require.NoError(t, c.SetSelection("Occurrence", []int{0}))

	require.NoError(t, c.Export(context.Background()))
	h.sched.Advance(30 * time.Second)
	require.NoError(t, c.Export(context.Background()))
	assert.Equal(t, 1, h.sched.Pending(), "the first clear must be cancelled, not stacked")

	h.sched.Advance(30 * time.Second) // t=60: original clear would have fired
	assert.True(t, c.AckVisible())
	h.sched.Advance(29 * time.Second)
	assert.True(t, c.AckVisible())
	h.sched.Advance(time.Second) // t=90
	assert.False(t, c.AckVisible())
}

func TestController_StaleExpiryIsNoop(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl
	require.NoError(t, c.SetSelection("Occurrence", []int{0}))
	require.NoError(t, c.Export(context.Background()))
	stale := c.ack.epoch
	require.NoError(t, c.Export(context.Background()))

	c.expireAck(stale)
	assert.True(t, c.AckVisible())
}

func TestController_DismissAndTabSwitchCancelClear(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl
	require.NoError(t, c.SetSelection("Occurrence", []int{0}))

	require.NoError(t, c.Export(context.Background()))
	c.DismissAck()
	assert.False(t, c.AckVisible())
	assert.Equal(t, 0, h.sched.Pending())

	require.NoError(t, c.Export(context.Background()))
	c.SwitchTab("Correlation")
	assert.False(t, c.AckVisible())
	assert.Equal(t, 0, h.sched.Pending())
	assert.Equal(t, TabID("Correlation"), c.ActiveTab())

	require.NoError(t, c.Export(context.Background()))
	require.NoError(t, c.SetSelection("Correlation", []int{1}))
	assert.False(t, c.AckVisible())
	assert.Equal(t, 0, h.sched.Pending())

	assert.Equal(t, []string{EventExport, EventExport, EventSwitchTab, EventExport}, h.events.names())
}

func TestController_SetSelectionUnknownAction(t *testing.T) {
	h := newHarness(t, scenarioProps())
	err := h.ctrl.SetSelection("Nope", []int{0})
	assert.ErrorIs(t, err, ErrUnknownAction)
	err = h.ctrl.SetSelection(CurrentVisTab, []int{0})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestController_CommitFailureKeepsLocalState(t *testing.T) {
	mem, err := store.NewMemory(scenarioProps())
	require.NoError(t, err)
	fs := &failingStore{Memory: mem, err: errCommit}
	c, err := NewController(fs, WithScheduler(&fakeScheduler{}))
	require.NoError(t, err)

	require.NoError(t, c.SetSelection("Correlation", []int{1}))
	err = c.Export(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errCommit))
	assert.False(t, c.AckVisible(), "failed export shows no success notice")
	assert.Equal(t, []int{1}, c.Selection("Correlation"))

	_, err = c.Delete(context.Background())
	require.ErrorIs(t, err, errCommit)
	assert.Equal(t, visList("v0", "v2"), c.Recommendations()[0].Items, "local deletion is not rolled back")
	assert.True(t, c.Exported().IsEmpty())
}

func TestController_InboundRecommendationsReplaceWholesale(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl
	r := &countingRenderer{}
	c.AttachRenderer("Correlation", r)
	c.SelectCurrentVis(true)
	require.NoError(t, c.SetSelection("Correlation", []int{0}))

	var seen store.ChangeSet
	h.store.OnChange(func(cs store.ChangeSet) { seen = cs })
	require.NoError(t, h.store.Apply(map[string]interface{}{
		KeyRecommendations: []Recommendation{{Action: "Distribution", Items: visList("d0", "d1")}},
		KeyIntent:          "Income",
	}))
	require.NotNil(t, seen)
	require.NoError(t, c.HandleChanges(seen))

	require.Len(t, c.Recommendations(), 1)
	assert.Equal(t, "Distribution", c.Recommendations()[0].Action)
	assert.Equal(t, "Income", c.Intent())
	assert.Equal(t, TabID("Distribution"), c.ActiveTab())
	assert.Equal(t, 1, r.resyncs)
	assert.Equal(t, []string{CurrentVisKey}, c.Exported().Keys(), "current-vis selection survives")
	assert.NotContains(t, c.Registry(), TabID("Correlation"))
}

func TestController_InboundCurrentVisCleared(t *testing.T) {
	h := newHarness(t, scenarioProps())
	c := h.ctrl
	c.SelectCurrentVis(true)
	require.False(t, c.Exported().IsEmpty())

	require.NoError(t, h.store.Apply(map[string]interface{}{KeyCurrentVis: []interface{}{}}))
	require.NoError(t, c.HandleChanges(store.NewChangeSet(KeyCurrentVis)))
	assert.Nil(t, c.CurrentVis())
	assert.Equal(t, CurrentVisDeselected, c.CurrentVisSelection())
	assert.True(t, c.Exported().IsEmpty())
}

func TestController_InboundMessage(t *testing.T) {
	h := newHarness(t, scenarioProps())
	require.NoError(t, h.store.Apply(map[string]interface{}{KeyMessage: "Large dataframe detected"}))
	require.NoError(t, h.ctrl.HandleChanges(store.NewChangeSet(KeyMessage)))
	assert.Equal(t, "Large dataframe detected", h.ctrl.Message())
}

func TestController_MalformedInboundRecommendations(t *testing.T) {
	h := newHarness(t, scenarioProps())
	require.NoError(t, h.store.Apply(map[string]interface{}{KeyRecommendations: "garbage"}))
	err := h.ctrl.HandleChanges(store.NewChangeSet(KeyRecommendations))
	require.Error(t, err)
	assert.Len(t, h.ctrl.Recommendations(), 2, "previous recommendations are kept")
}

func TestController_ToggleViewLogs(t *testing.T) {
	h := newHarness(t, scenarioProps())
	h.ctrl.ToggleView("table")
	require.Len(t, h.events.events, 1)
	assert.Equal(t, EventToggleView, h.events.events[0].name)
	assert.Equal(t, "table", h.events.events[0].payload)
}
