package tui

import (
	"github.com/drake/scythe/pane"
	"github.com/drake/scythe/workspace"
)

// Rect is a rectangle of terminal cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Empty reports whether r has no cells.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Metrics is the pixel size of one cell, used to turn divider positions
// into cell offsets.
type Metrics struct {
	CellWidth  int
	CellHeight int
}

// DefaultMetrics is an 8x16 pixel cell.
var DefaultMetrics = Metrics{CellWidth: 8, CellHeight: 16}

// Offset converts a divider position in pixels along o into the size of
// the first child in cells. span is the cells available along o; one is
// taken by the divider and each side keeps at least one.
func (m Metrics) Offset(px int, o pane.Orientation, span int) int {
	unit := m.CellWidth
	if o == pane.Vertical {
		unit = m.CellHeight
	}
	if unit <= 0 {
		unit = 1
	}
	if span < 3 {
		return span
	}
	return min(max(px/unit, 1), span-2)
}

// Placement is where one shell is drawn. Body excludes the title row.
type Placement struct {
	Session string
	Frame   Rect
	Body    Rect
}

// Divider is the line drawn between the two halves of a split.
type Divider struct {
	Orientation pane.Orientation
	Rect        Rect
}

// Arrange lays n out inside area and returns every visible leaf and
// divider, leaves in tree order.
func Arrange(n *workspace.LayoutNode, area Rect, m Metrics) ([]Placement, []Divider) {
	var leaves []Placement
	var dividers []Divider
	arrange(n, area, m, &leaves, &dividers)
	return leaves, dividers
}

func arrange(n *workspace.LayoutNode, area Rect, m Metrics, leaves *[]Placement, dividers *[]Divider) {
	if n == nil || area.Empty() {
		return
	}
	if !n.Split {
		body := Rect{X: area.X, Y: area.Y + 1, W: area.W, H: area.H - 1}
		if area.H == 1 {
			body = area
		}
		*leaves = append(*leaves, Placement{Session: n.Session, Frame: area, Body: body})
		return
	}

	if n.Orientation == pane.Horizontal {
		first := m.Offset(n.Position, pane.Horizontal, area.W)
		arrange(n.First, Rect{X: area.X, Y: area.Y, W: first, H: area.H}, m, leaves, dividers)
		if first >= area.W {
			return
		}
		*dividers = append(*dividers, Divider{
			Orientation: pane.Horizontal,
			Rect:        Rect{X: area.X + first, Y: area.Y, W: 1, H: area.H},
		})
		arrange(n.Second, Rect{X: area.X + first + 1, Y: area.Y, W: area.W - first - 1, H: area.H}, m, leaves, dividers)
		return
	}

	first := m.Offset(n.Position, pane.Vertical, area.H)
	arrange(n.First, Rect{X: area.X, Y: area.Y, W: area.W, H: first}, m, leaves, dividers)
	if first >= area.H {
		return
	}
	*dividers = append(*dividers, Divider{
		Orientation: pane.Vertical,
		Rect:        Rect{X: area.X, Y: area.Y + first, W: area.W, H: 1},
	})
	arrange(n.Second, Rect{X: area.X, Y: area.Y + first + 1, W: area.W, H: area.H - first - 1}, m, leaves, dividers)
}
