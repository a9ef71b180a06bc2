// Package widget implements the selection, export and deletion state machine
// of the visualization recommendation widget.
//
// Core pieces:
//   - Registry: per-tab multi-selection, keyed by TabID
//   - BuildExportMap: derives the exported-index map from the registry
//   - RemoveSelected: index-shift-aware removal of exported items
//   - Controller: owns local state, applies inbound store changes and
//     commits export/delete results back to the store
//
// All Controller methods must be called from a single goroutine (the UI loop).
// Timers scheduled through a Scheduler are expected to fire on that same goroutine.
package widget
