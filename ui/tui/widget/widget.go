package widget

import "github.com/drake/scythe/ui"

// Widget is a UI element laid out by the model: it is told its size and
// renders exactly that area.
type Widget interface {
	SetSize(width, height int)
	View() string
}

var (
	_ Widget = (*Picker[ui.MenuItem])(nil)
	_ Widget = (*AIPanel)(nil)
	_ Widget = (*Status)(nil)
)
