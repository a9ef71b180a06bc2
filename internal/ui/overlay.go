package ui

import tea "github.com/charmbracelet/bubbletea"

// Overlay is a modal or popup view drawn over the widget.
type Overlay struct {
	ID   string
	View View
}

// OverlayStack manages a stack of overlays (topmost receives input first).
type OverlayStack struct {
	Stack []Overlay
}

// Push adds an overlay to the top of the stack.
func (s *OverlayStack) Push(o Overlay) {
	s.Stack = append(s.Stack, o)
}

// Pop removes and returns the top overlay.
func (s *OverlayStack) Pop() (Overlay, bool) {
	if len(s.Stack) == 0 {
		return Overlay{}, false
	}
	top := s.Stack[len(s.Stack)-1]
	s.Stack = s.Stack[:len(s.Stack)-1]
	return top, true
}

// Peek returns the top overlay without removing it.
func (s *OverlayStack) Peek() (Overlay, bool) {
	if len(s.Stack) == 0 {
		return Overlay{}, false
	}
	return s.Stack[len(s.Stack)-1], true
}

// Remove drops the overlay with the given id, wherever it sits.
func (s *OverlayStack) Remove(id string) bool {
	for i, o := range s.Stack {
		if o.ID == id {
			s.Stack = append(s.Stack[:i], s.Stack[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether an overlay with id is open.
func (s *OverlayStack) Has(id string) bool {
	for _, o := range s.Stack {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Len returns the number of overlays in the stack.
func (s *OverlayStack) Len() int {
	return len(s.Stack)
}

// UpdateTop passes msg to the top overlay's Update and replaces its View with the result.
// Caller must run the returned cmd.
func (s *OverlayStack) UpdateTop(msg tea.Msg) (tea.Cmd, bool) {
	if len(s.Stack) == 0 {
		return nil, false
	}
	top := &s.Stack[len(s.Stack)-1]
	newView, cmd := top.View.Update(msg)
	top.View = newView
	return cmd, true
}
