package ui

import "luxview/internal/store"

// StoreChangedMsg carries keys another writer changed in the property store.
// Send it with tea.Program.Send from a store.OnChange callback.
type StoreChangedMsg struct {
	Keys store.ChangeSet
}

// ExportMsg asks the widget to export the current selection.
type ExportMsg struct{}

// DeleteMsg asks the widget to confirm and delete the current selection.
type DeleteMsg struct{}

// DeleteConfirmedMsg is sent when the user confirms a deletion.
type DeleteConfirmedMsg struct{}

// DismissModalMsg closes the topmost overlay.
type DismissModalMsg struct{}

// ToggleViewMsg switches between the widget and the table listing.
type ToggleViewMsg struct{}

// ToggleMessageMsg opens or closes the warning message panel.
type ToggleMessageMsg struct{}

// DismissAlertMsg hides the export acknowledgement.
type DismissAlertMsg struct{}

// ClearSelectionMsg drops every selection of the active tab.
type ClearSelectionMsg struct{}

// timerFiredMsg is delivered when a Scheduler timer elapses.
type timerFiredMsg struct {
	id uint64
}
