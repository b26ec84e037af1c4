package pane

import (
	"fmt"
	"strings"
)

// Tree is the pane layout of one tab. It is not safe for concurrent use;
// callers mutate it from a single event loop.
type Tree struct {
	root     *Node
	provider SessionProvider
	host     Host
	dividers Dividers
	closed   bool
}

// NewTree creates a tree holding one fresh leaf.
func NewTree(provider SessionProvider, host Host, dividers Dividers) (*Tree, error) {
	s, err := provider.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return NewTreeWithSession(s, provider, host, dividers), nil
}

// NewTreeWithSession creates a tree whose single leaf owns s.
func NewTreeWithSession(s Session, provider SessionProvider, host Host, dividers Dividers) *Tree {
	if host == nil {
		host = NopHost{}
	}
	if dividers.Horizontal <= 0 {
		dividers.Horizontal = DefaultDividers.Horizontal
	}
	if dividers.Vertical <= 0 {
		dividers.Vertical = DefaultDividers.Vertical
	}
	t := &Tree{
		root:     &Node{kind: kindLeaf, session: s},
		provider: provider,
		host:     host,
		dividers: dividers,
	}
	host.Attach(t.root, nil)
	return t
}

// Root returns the root node, or nil once the tree is destroyed.
func (t *Tree) Root() *Node { return t.root }

// Split turns leaf into a split of leaf and a new leaf along o. The new leaf
// is returned. leaf keeps its session and becomes the first child.
func (t *Tree) Split(leaf *Node, o Orientation) (*Node, error) {
	if err := t.check(leaf); err != nil {
		return nil, err
	}
	if !leaf.IsLeaf() {
		return nil, ErrAlreadySplit
	}

	s, err := t.provider.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	parent := leaf.parent
	fresh := &Node{kind: kindLeaf, session: s}
	split := &Node{
		kind:        kindSplit,
		orientation: o,
		position:    t.dividers.For(o),
	}

	t.host.Detach(leaf)
	if parent == nil {
		t.root = split
	} else {
		parent.replaceChild(leaf, split)
	}
	t.host.Attach(split, parent)

	split.first, split.second = leaf, fresh
	leaf.parent, fresh.parent = split, split
	t.host.Attach(leaf, split)
	t.host.Attach(fresh, split)

	return fresh, nil
}

// Collapse removes the split enclosing n. The sibling subtree is destroyed
// along with every session in it, and n takes the split's former slot. When
// the split is the root, n becomes the root.
func (t *Tree) Collapse(n *Node) error {
	if err := t.check(n); err != nil {
		return err
	}
	split := n.parent
	if split == nil {
		return ErrNothingToCollapse
	}

	sibling := n.Sibling()
	t.host.Detach(sibling)
	t.destroy(sibling)

	t.host.Detach(n)
	grand := split.parent
	if grand == nil {
		t.root = n
		n.parent = nil
	} else {
		grand.replaceChild(split, n)
	}
	t.host.Replace(split, n)

	split.first, split.second, split.parent = nil, nil, nil
	return nil
}

// SetPosition moves the divider of a split. Negative values clamp to zero.
func (t *Tree) SetPosition(split *Node, px int) error {
	if err := t.check(split); err != nil {
		return err
	}
	if !split.IsSplit() {
		return fmt.Errorf("set divider: %w", ErrNotSplit)
	}
	split.position = max(px, 0)
	return nil
}

// Destroy tears down every session in the tree. The tree is unusable after.
func (t *Tree) Destroy() {
	if t.closed {
		return
	}
	if t.root != nil {
		t.host.Detach(t.root)
		t.destroy(t.root)
	}
	t.root = nil
	t.closed = true
}

// Closed reports whether Destroy has run.
func (t *Tree) Closed() bool { return t.closed }

// Leaves returns the leaves in first-to-second order.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	t.Walk(func(n *Node) {
		if n.IsLeaf() {
			out = append(out, n)
		}
	})
	return out
}

// Len returns the number of leaves.
func (t *Tree) Len() int { return len(t.Leaves()) }

// Find returns the leaf owning the session with the given ID.
func (t *Tree) Find(sessionID string) *Node {
	var found *Node
	t.Walk(func(n *Node) {
		if found == nil && n.IsLeaf() && n.SessionID() == sessionID {
			found = n
		}
	})
	return found
}

// Contains reports whether n is currently part of the tree.
func (t *Tree) Contains(n *Node) bool {
	if n == nil || t.root == nil {
		return false
	}
	for cur := n; cur != nil; cur = cur.parent {
		if cur == t.root {
			return true
		}
	}
	return false
}

// Walk visits every node depth first, parents before children.
func (t *Tree) Walk(fn func(*Node)) {
	var visit func(*Node)
	visit = func(n *Node) {
		if n == nil {
			return
		}
		fn(n)
		visit(n.first)
		visit(n.second)
	}
	visit(t.root)
}

// Shape renders the tree as nested Split(first, second) of session IDs.
func (t *Tree) Shape() string {
	if t.root == nil {
		return ""
	}
	var b strings.Builder
	t.root.shape(&b)
	return b.String()
}

// Next returns the leaf after n in first-to-second order, wrapping around.
func (t *Tree) Next(n *Node) *Node { return t.step(n, 1) }

// Prev returns the leaf before n, wrapping around.
func (t *Tree) Prev(n *Node) *Node { return t.step(n, -1) }

func (t *Tree) step(n *Node, dir int) *Node {
	leaves := t.Leaves()
	if len(leaves) == 0 {
		return nil
	}
	for i, l := range leaves {
		if l == n {
			return leaves[(i+dir+len(leaves))%len(leaves)]
		}
	}
	return leaves[0]
}

func (t *Tree) check(n *Node) error {
	if t.closed {
		return ErrTreeClosed
	}
	if !t.Contains(n) {
		return ErrNotInTree
	}
	return nil
}

// destroy releases every session below n, first child before second.
func (t *Tree) destroy(n *Node) {
	if n == nil {
		return
	}
	if n.IsLeaf() {
		if n.session != nil {
			t.provider.DestroySession(n.session)
			n.session = nil
		}
		n.parent = nil
		return
	}
	t.destroy(n.first)
	t.destroy(n.second)
	n.first, n.second, n.parent = nil, nil, nil
}
