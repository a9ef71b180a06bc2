package ui

// ViewMode is the top-level display mode: the widget or the plain table listing.
type ViewMode int

const (
	ModeWidget ViewMode = iota
	ModeTable
)

// String returns the name reported with the view toggle event.
func (m ViewMode) String() string {
	switch m {
	case ModeWidget:
		return "widget"
	case ModeTable:
		return "table"
	default:
		return "unknown"
	}
}

// Toggle returns the other mode.
func (m ViewMode) Toggle() ViewMode {
	if m == ModeTable {
		return ModeWidget
	}
	return ModeTable
}
