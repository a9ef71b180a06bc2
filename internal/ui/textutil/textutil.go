// Package textutil measures and fits text by terminal columns, so wide
// characters in chart titles and field names do not break the layout.
package textutil

import "github.com/mattn/go-runewidth"

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Width returns the number of terminal columns s occupies.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to at most maxWidth columns, ending in Ellipsis when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if Width(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// PadRight fits s to exactly width columns.
func PadRight(s string, width int) string {
	if Width(s) >= width {
		return Truncate(s, width)
	}
	return runewidth.FillRight(s, width)
}
