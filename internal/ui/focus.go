package ui

// Focus targets inside the widget.
const (
	FocusCurrentVis = "current"
	FocusGallery    = "gallery"
)

// FocusManager tracks and rotates focus across panels.
type FocusManager struct {
	Current string   // ID of the focused panel
	Order   []string // Rotation order
}

// Next advances focus to the next panel in order and returns it.
func (f *FocusManager) Next() string {
	return f.step(1)
}

// Prev moves focus to the previous panel in order and returns it.
func (f *FocusManager) Prev() string {
	return f.step(-1)
}

func (f *FocusManager) step(delta int) string {
	if len(f.Order) == 0 {
		f.Current = ""
		return ""
	}
	idx := f.index()
	if idx < 0 {
		idx = 0
		if delta > 0 {
			idx = -1
		}
	}
	n := len(f.Order)
	f.Current = f.Order[((idx+delta)%n+n)%n]
	return f.Current
}

// SetOrder replaces the rotation order, keeping focus if it is still present.
func (f *FocusManager) SetOrder(order []string) {
	f.Order = order
	if f.index() < 0 {
		f.Current = ""
		if len(order) > 0 {
			f.Current = order[0]
		}
	}
}

// SetFocus focuses id. It returns false if id is not in the order.
func (f *FocusManager) SetFocus(id string) bool {
	for _, o := range f.Order {
		if o == id {
			f.Current = id
			return true
		}
	}
	return false
}

func (f *FocusManager) index() int {
	for i, id := range f.Order {
		if id == f.Current {
			return i
		}
	}
	return -1
}
