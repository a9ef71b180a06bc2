// Package ui renders the visualization-selection widget with Bubble Tea.
//
// Core pieces:
//   - View: a screen region with its own Init/Update/View (Elm-style)
//   - WidgetModel: the root model wiring views to a widget.Controller
//   - GalleryView: one recommendation tab; the tab's widget.Renderer
//   - Scheduler: widget.Scheduler backed by tea.Tick, so timer callbacks
//     run on the program goroutine
//   - KeyHandler: SPC leader sequences on top of single-key bindings
//   - OverlayStack: modals drawn over the widget (delete confirm, warning message)
package ui
