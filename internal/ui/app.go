package ui

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"luxview/internal/widget"
)

// ExportAlertText is shown after a successful export.
const ExportAlertText = "Access exported visualizations via the property `exported`"

const (
	overlayConfirm = "confirm"
	overlayMessage = "message"
)

// Options configures a WidgetModel.
type Options struct {
	MaxSelectable int           // per-tab selection cap; default 10
	CommitTimeout time.Duration // bound on one store commit; default 5s
	Logger        *slog.Logger
}

// Ensure WidgetModel implements View.
var _ View = (*WidgetModel)(nil)

// WidgetModel is the root model: the current-vis panel, one gallery per
// recommendation tab, the export/delete affordances and their overlays.
type WidgetModel struct {
	Ctrl       *widget.Controller
	Sched      *Scheduler
	KeyHandler *KeyHandler
	Mode       ViewMode
	Focus      FocusManager
	Overlays   OverlayStack
	Current    *CurrentVisView
	Galleries  map[widget.TabID]*GalleryView
	Table      *TableView

	maxSelectable int
	commitTimeout time.Duration
	logger        *slog.Logger
	status        string
	width, height int
}

// NewWidgetModel creates the root model. sched must be the scheduler the
// controller was built with.
func NewWidgetModel(ctrl *widget.Controller, sched *Scheduler, opts Options) *WidgetModel {
	if opts.MaxSelectable <= 0 {
		opts.MaxSelectable = 10
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &WidgetModel{
		Ctrl:          ctrl,
		Sched:         sched,
		KeyHandler:    NewKeyHandler(newWidgetKeybinds()),
		Mode:          ModeWidget,
		Current:       NewCurrentVisView(ctrl),
		Galleries:     make(map[widget.TabID]*GalleryView),
		Table:         NewTableView(ctrl),
		maxSelectable: opts.MaxSelectable,
		commitTimeout: opts.CommitTimeout,
		logger:        opts.Logger,
	}
	m.syncTabs()
	m.Focus.SetFocus(FocusGallery)
	return m
}

func newWidgetKeybinds() *KeybindRegistry {
	reg := NewKeybindRegistry()
	msg := func(v tea.Msg) tea.Cmd { return func() tea.Msg { return v } }
	widgetOnly := []ViewMode{ModeWidget}

	reg.BindWithDesc("q", tea.Quit, "Quit")
	reg.BindWithDesc("ctrl+c", tea.Quit, "Quit")
	reg.BindWithDesc("SPC q", tea.Quit, "Quit")
	reg.BindForMode("e", msg(ExportMsg{}), "Export", widgetOnly)
	reg.BindForMode("SPC e", msg(ExportMsg{}), "Export", widgetOnly)
	reg.BindForMode("d", msg(DeleteMsg{}), "Delete", widgetOnly)
	reg.BindForMode("SPC d", msg(DeleteMsg{}), "Delete", widgetOnly)
	reg.BindWithDesc("t", msg(ToggleViewMsg{}), "Toggle table view")
	reg.BindWithDesc("SPC v", msg(ToggleViewMsg{}), "Toggle table view")
	reg.BindWithDesc("m", msg(ToggleMessageMsg{}), "Warning message")
	reg.BindWithDesc("SPC m", msg(ToggleMessageMsg{}), "Warning message")
	reg.BindForMode("a", msg(DismissAlertMsg{}), "Dismiss alert", widgetOnly)
	reg.BindForMode("SPC s c", msg(ClearSelectionMsg{}), "Clear tab selection", widgetOnly)
	return reg
}

// Tabs returns the recommendation tabs in display order.
func (m *WidgetModel) Tabs() []widget.TabID {
	recs := m.Ctrl.Recommendations()
	out := make([]widget.TabID, len(recs))
	for i, rec := range recs {
		out[i] = widget.TabID(rec.Action)
	}
	return out
}

// ActiveGallery returns the gallery of the active tab, or nil.
func (m *WidgetModel) ActiveGallery() *GalleryView {
	return m.Galleries[m.Ctrl.ActiveTab()]
}

// Status returns the last error or notice shown in the footer.
func (m *WidgetModel) Status() string { return m.status }

// syncTabs creates galleries for new tabs and detaches those of vanished ones.
func (m *WidgetModel) syncTabs() {
	seen := make(map[widget.TabID]bool)
	for _, tab := range m.Tabs() {
		seen[tab] = true
		if _, ok := m.Galleries[tab]; !ok {
			m.Galleries[tab] = NewGalleryView(tab, m.Ctrl, m.maxSelectable)
		}
	}
	for tab := range m.Galleries {
		if !seen[tab] {
			m.Ctrl.AttachRenderer(tab, nil)
			delete(m.Galleries, tab)
		}
	}

	var order []string
	if m.Ctrl.CurrentVis() != nil {
		order = append(order, FocusCurrentVis)
	}
	if len(m.Galleries) > 0 {
		order = append(order, FocusGallery)
	}
	m.Focus.SetOrder(order)
	m.Table.Refresh()
}

// switchTab moves delta tabs from the active one, wrapping around.
func (m *WidgetModel) switchTab(delta int) {
	tabs := m.Tabs()
	if len(tabs) == 0 {
		return
	}
	idx := 0
	for i, t := range tabs {
		if t == m.Ctrl.ActiveTab() {
			idx = i
			break
		}
	}
	n := len(tabs)
	m.Ctrl.SwitchTab(tabs[((idx+delta)%n+n)%n])
	m.Focus.SetFocus(FocusGallery)
}

func (m *WidgetModel) exportSelection() {
	ctx, cancel := context.WithTimeout(context.Background(), m.commitTimeout)
	defer cancel()
	if err := m.Ctrl.Export(ctx); err != nil {
		m.status = "Export failed: " + err.Error()
		return
	}
	m.status = ""
}

func (m *WidgetModel) deleteSelection() {
	ctx, cancel := context.WithTimeout(context.Background(), m.commitTimeout)
	defer cancel()
	record, err := m.Ctrl.Delete(ctx)
	m.Table.Refresh()
	if err != nil {
		m.status = "Delete not saved: " + err.Error()
		return
	}
	m.status = ""
	m.logger.Debug("ui.deleteSelection: removed", "keys", record.Keys())
}

func (m *WidgetModel) applyStoreChange(msg StoreChangedMsg) {
	if err := m.Ctrl.HandleChanges(msg.Keys); err != nil {
		m.status = "Ignored update: " + err.Error()
	}
	m.syncTabs()
	if top, ok := m.Overlays.Peek(); ok && top.ID == overlayMessage {
		if text := m.Ctrl.Message(); text != "" {
			top.View.(*MessagePanel).Text = text
		} else {
			m.Overlays.Remove(overlayMessage)
		}
	}
}

// Init implements View.
func (m *WidgetModel) Init() tea.Cmd {
	m.Ctrl.Init()
	return nil
}

// Update implements View.
func (m *WidgetModel) Update(msg tea.Msg) (View, tea.Cmd) {
	cmd := m.update(msg)
	return m, tea.Batch(cmd, m.Sched.Flush())
}

func (m *WidgetModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case timerFiredMsg:
		m.Sched.Fire(msg.id)
		return nil
	case StoreChangedMsg:
		m.applyStoreChange(msg)
		return nil
	case ExportMsg:
		m.exportSelection()
		return nil
	case DeleteMsg:
		if m.Ctrl.CanExport() && !m.Overlays.Has(overlayConfirm) {
			m.Overlays.Push(Overlay{ID: overlayConfirm, View: NewDeleteConfirmModal(m.Ctrl.Exported())})
		}
		return nil
	case DeleteConfirmedMsg:
		m.Overlays.Remove(overlayConfirm)
		m.deleteSelection()
		return nil
	case DismissModalMsg:
		m.Overlays.Pop()
		return nil
	case ToggleViewMsg:
		m.Mode = m.Mode.Toggle()
		m.Ctrl.ToggleView(m.Mode.String())
		m.Table.Refresh()
		return nil
	case ToggleMessageMsg:
		if m.Overlays.Remove(overlayMessage) {
			return nil
		}
		if text := m.Ctrl.Message(); text != "" {
			m.Overlays.Push(Overlay{ID: overlayMessage, View: &MessagePanel{Text: text}})
		}
		return nil
	case DismissAlertMsg:
		m.Ctrl.DismissAck()
		return nil
	case ClearSelectionMsg:
		if g := m.ActiveGallery(); g != nil {
			g.ClearSelection()
		}
		return nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		_, cmd := m.Table.Update(msg)
		return cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *WidgetModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if cmd, ok := m.Overlays.UpdateTop(msg); ok {
		return cmd
	}
	if consumed, cmd := m.KeyHandler.Handle(msg, m.Mode); consumed {
		return cmd
	}
	if m.Mode == ModeTable {
		_, cmd := m.Table.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "tab":
		m.Focus.Next()
		return nil
	case "shift+tab":
		m.Focus.Prev()
		return nil
	case "l", "right":
		m.switchTab(1)
		return nil
	case "h", "left":
		m.switchTab(-1)
		return nil
	}

	switch m.Focus.Current {
	case FocusCurrentVis:
		_, cmd := m.Current.Update(msg)
		return cmd
	case FocusGallery:
		if g := m.ActiveGallery(); g != nil {
			_, cmd := g.Update(msg)
			return cmd
		}
	}
	return nil
}

// View implements View.
func (m *WidgetModel) View() string {
	if top, ok := m.Overlays.Peek(); ok {
		overlay := top.View.View()
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
		}
		return overlay
	}

	var b strings.Builder
	b.WriteString(m.headerView() + "\n")
	if m.Mode == ModeTable {
		b.WriteString(m.Table.View() + "\n")
	} else {
		b.WriteString(m.widgetView())
	}
	if m.status != "" {
		b.WriteString(Styles.Details.Render(m.status) + "\n")
	}
	if help := RenderKeybindHelp(m.KeyHandler, m.Mode); help != "" {
		b.WriteString(help + "\n")
	} else {
		b.WriteString(Styles.Hint.Render("Press [SPC] for commands") + "\n")
	}
	return b.String()
}

func (m *WidgetModel) headerView() string {
	title := Styles.Title.Render("LuxView")
	toggle := Styles.Hint.Render("[t] " + m.Mode.Toggle().String() + " view")
	line := title + "  " + toggle
	if m.Ctrl.Message() != "" {
		line += "  " + Styles.Warning.Render("⚠ warning [m]")
	}
	return line
}

func (m *WidgetModel) widgetView() string {
	var b strings.Builder
	hasCurrent := m.Ctrl.CurrentVis() != nil
	tabs := m.Tabs()

	if !hasCurrent && len(tabs) == 0 {
		b.WriteString(Styles.Empty.Render("No recommendations or current visualization") + "\n")
	}
	if hasCurrent {
		b.WriteString(m.panel(FocusCurrentVis, m.Current.View()) + "\n")
	}
	if len(tabs) > 0 {
		if hasCurrent {
			b.WriteString(Styles.Normal.Render("You might be interested in...") + "\n")
		}
		b.WriteString(m.tabsView(tabs) + "\n")
		if g := m.ActiveGallery(); g != nil {
			b.WriteString(m.panel(FocusGallery, g.View()) + "\n")
		}
	}
	b.WriteString(m.buttonsView() + "\n")
	if m.Ctrl.AckVisible() {
		b.WriteString(Styles.BoxAlert.Render(ExportAlertText+"  [a] dismiss") + "\n")
	}
	return b.String()
}

func (m *WidgetModel) panel(id, content string) string {
	style := Styles.Box
	if m.Focus.Current == id {
		style = style.BorderForeground(lipgloss.Color(ColorAccent))
	}
	return style.Render(content)
}

func (m *WidgetModel) tabsView(tabs []widget.TabID) string {
	parts := make([]string, len(tabs))
	for i, tab := range tabs {
		label := string(tab)
		if n := len(m.Ctrl.Selection(tab)); n > 0 {
			label += " (" + strconv.Itoa(n) + ")"
		}
		if tab == m.Ctrl.ActiveTab() {
			parts[i] = Styles.TabActive.Render(label)
		} else {
			parts[i] = Styles.TabInactive.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *WidgetModel) buttonsView() string {
	if !m.Ctrl.CanExport() {
		return Styles.ButtonDisabled.Render("[e] Export") + " " + Styles.ButtonDisabled.Render("[d] Delete")
	}
	return Styles.Button.Render("[e] Export") + " " + Styles.ButtonDanger.Render("[d] Delete")
}

// Ensure WidgetModel can be used as tea.Model via adapter.
var _ tea.Model = (*widgetModelAdapter)(nil)

// widgetModelAdapter wraps WidgetModel to implement tea.Model.
type widgetModelAdapter struct {
	*WidgetModel
}

// Init implements tea.Model.
func (a *widgetModelAdapter) Init() tea.Cmd { return a.WidgetModel.Init() }

// Update implements tea.Model.
func (a *widgetModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := a.WidgetModel.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *widgetModelAdapter) View() string { return a.WidgetModel.View() }

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (m *WidgetModel) AsTeaModel() tea.Model {
	return &widgetModelAdapter{WidgetModel: m}
}
