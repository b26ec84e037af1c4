// Package pane holds the split layout of a single tab as a binary tree.
//
// A leaf owns one terminal session. A split owns exactly two children laid
// out along one axis with a divider between them. The tree is the source of
// truth; whatever renders it is a projection kept in sync through Host.
package pane

import (
	"errors"
	"strings"
)

var (
	// ErrAlreadySplit is returned when Split is asked to split a node that is
	// not a leaf.
	ErrAlreadySplit = errors.New("pane is already split")

	// ErrNothingToCollapse is returned when Collapse is called on a node that
	// has no enclosing split.
	ErrNothingToCollapse = errors.New("nothing to collapse")

	// ErrNotSplit is returned when a divider operation targets a leaf.
	ErrNotSplit = errors.New("pane is not a split")

	// ErrNotInTree is returned for nodes that belong to another tree or were
	// already removed.
	ErrNotInTree = errors.New("pane does not belong to this tree")

	// ErrTreeClosed is returned once Destroy has torn the tree down.
	ErrTreeClosed = errors.New("pane tree is closed")
)

// Orientation is the layout axis of a split.
type Orientation int

const (
	// Horizontal places the two children side by side.
	Horizontal Orientation = iota
	// Vertical stacks the two children on top of each other.
	Vertical
)

// String returns "horizontal" or "vertical".
func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// ParseOrientation accepts "h", "horizontal", "v" and "vertical".
func ParseOrientation(s string) (Orientation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "horizontal":
		return Horizontal, true
	case "v", "vertical":
		return Vertical, true
	}
	return Horizontal, false
}

// Session is the handle a leaf owns. The tree never looks inside it.
type Session interface {
	ID() string
}

// SessionProvider creates and tears down the sessions leaves own.
type SessionProvider interface {
	CreateSession() (Session, error)
	DestroySession(s Session)
}

// Host receives every structural change so a rendered projection can follow
// the tree. A nil parent in Attach means the root slot.
type Host interface {
	Attach(node, parent *Node)
	Detach(node *Node)
	Replace(old, replacement *Node)
}

// NopHost ignores all notifications.
type NopHost struct{}

func (NopHost) Attach(node, parent *Node) {}
func (NopHost) Detach(node *Node) {}
func (NopHost) Replace(old, replacement *Node) {}

// Dividers holds the initial divider position, in pixels, for new splits.
type Dividers struct {
	Horizontal int
	Vertical   int
}

// DefaultDividers matches the classic 400px / 300px paned defaults.
var DefaultDividers = Dividers{Horizontal: 400, Vertical: 300}

// For returns the initial position for a split along o.
func (d Dividers) For(o Orientation) int {
	if o == Vertical {
		return d.Vertical
	}
	return d.Horizontal
}

type kind int

const (
	kindLeaf kind = iota
	kindSplit
)

// Node is either a leaf (one session) or a split (two children).
type Node struct {
	kind   kind
	parent *Node

	// leaf
	session Session

	// split
	orientation Orientation
	position    int
	first       *Node
	second      *Node
}

// IsLeaf reports whether n hosts a session.
func (n *Node) IsLeaf() bool { return n != nil && n.kind == kindLeaf }

// IsSplit reports whether n has two children.
func (n *Node) IsSplit() bool { return n != nil && n.kind == kindSplit }

// Session returns the leaf's session, or nil for a split.
func (n *Node) Session() Session {
	if !n.IsLeaf() {
		return nil
	}
	return n.session
}

// SessionID returns the leaf's session ID, or "" for a split.
func (n *Node) SessionID() string {
	if s := n.Session(); s != nil {
		return s.ID()
	}
	return ""
}

// Orientation returns the split axis. Meaningless for leaves.
func (n *Node) Orientation() Orientation { return n.orientation }

// Position returns the divider position in pixels.
func (n *Node) Position() int { return n.position }

// First returns the first (left or top) child of a split.
func (n *Node) First() *Node { return n.first }

// Second returns the second (right or bottom) child of a split.
func (n *Node) Second() *Node { return n.second }

// Parent returns the enclosing split, or nil at the root.
func (n *Node) Parent() *Node { return n.parent }

// Sibling returns the other child of n's parent.
func (n *Node) Sibling() *Node {
	p := n.parent
	if p == nil {
		return nil
	}
	if p.first == n {
		return p.second
	}
	return p.first
}

func (n *Node) replaceChild(old, replacement *Node) {
	switch {
	case n.first == old:
		n.first = replacement
	case n.second == old:
		n.second = replacement
	}
	if replacement != nil {
		replacement.parent = n
	}
}

// shape writes the tree in the Split(A, B) notation used by Tree.Shape.
func (n *Node) shape(b *strings.Builder) {
	if n.IsLeaf() {
		b.WriteString(n.SessionID())
		return
	}
	b.WriteString("Split(")
	n.first.shape(b)
	b.WriteString(", ")
	n.second.shape(b)
	b.WriteString(")")
}
