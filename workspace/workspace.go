// Package workspace owns the tabs of the window, the pane tree of each tab
// and which leaf has focus.
package workspace

import (
	"errors"
	"fmt"

	"github.com/drake/scythe/pane"
)

// ErrNoTab is returned when a tab index is out of range or no tab exists.
var ErrNoTab = errors.New("no such tab")

// Tab is one page of the window: a pane tree plus its focused leaf.
type Tab struct {
	tree  *pane.Tree
	focus *pane.Node
	title string
}

// Tree returns the tab's pane tree.
func (t *Tab) Tree() *pane.Tree { return t.tree }

// Focus returns the focused leaf.
func (t *Tab) Focus() *pane.Node { return t.focus }

// Title returns the tab label.
func (t *Tab) Title() string { return t.title }

// Workspace is a list of tabs with one active. It is driven from the
// session loop only.
type Workspace struct {
	provider pane.SessionProvider
	host     pane.Host
	dividers pane.Dividers

	tabs   []*Tab
	active int
	serial int
}

// New creates an empty workspace. Call NewTab to open the first tab.
func New(provider pane.SessionProvider, host pane.Host, dividers pane.Dividers) *Workspace {
	if host == nil {
		host = pane.NopHost{}
	}
	return &Workspace{provider: provider, host: host, dividers: dividers}
}

// Len returns the number of open tabs.
func (w *Workspace) Len() int { return len(w.tabs) }

// ActiveIndex returns the index of the active tab, or -1 when empty.
func (w *Workspace) ActiveIndex() int {
	if len(w.tabs) == 0 {
		return -1
	}
	return w.active
}

// Active returns the active tab, or nil when empty.
func (w *Workspace) Active() *Tab {
	if len(w.tabs) == 0 {
		return nil
	}
	return w.tabs[w.active]
}

// Tab returns tab i.
func (w *Workspace) Tab(i int) (*Tab, error) {
	if i < 0 || i >= len(w.tabs) {
		return nil, fmt.Errorf("tab %d: %w", i, ErrNoTab)
	}
	return w.tabs[i], nil
}

// Focused returns the focused leaf of the active tab.
func (w *Workspace) Focused() *pane.Node {
	if t := w.Active(); t != nil {
		return t.focus
	}
	return nil
}

// FocusedSession returns the session ID of the focused leaf.
func (w *Workspace) FocusedSession() string {
	return w.Focused().SessionID()
}

// NewTab opens a tab with one fresh shell after the active tab and makes it
// active.
func (w *Workspace) NewTab() (*Tab, error) {
	tree, err := pane.NewTree(w.provider, w.host, w.dividers)
	if err != nil {
		return nil, err
	}
	return w.insert(tree), nil
}

func (w *Workspace) insert(tree *pane.Tree) *Tab {
	w.serial++
	tab := &Tab{
		tree:  tree,
		focus: tree.Root(),
		title: fmt.Sprintf("Terminal %d", w.serial),
	}
	at := 0
	if len(w.tabs) > 0 {
		at = w.active + 1
	}
	w.tabs = append(w.tabs, nil)
	copy(w.tabs[at+1:], w.tabs[at:])
	w.tabs[at] = tab
	w.active = at
	return tab
}

// CloseTab destroys tab i and every session in it.
func (w *Workspace) CloseTab(i int) error {
	if i < 0 || i >= len(w.tabs) {
		return fmt.Errorf("close tab %d: %w", i, ErrNoTab)
	}
	w.tabs[i].tree.Destroy()
	w.tabs = append(w.tabs[:i], w.tabs[i+1:]...)
	if w.active > i || w.active >= len(w.tabs) {
		w.active--
	}
	if w.active < 0 {
		w.active = 0
	}
	return nil
}

// CloseActive closes the active tab.
func (w *Workspace) CloseActive() error {
	if len(w.tabs) == 0 {
		return ErrNoTab
	}
	return w.CloseTab(w.active)
}

// CloseAll destroys every tab.
func (w *Workspace) CloseAll() {
	for _, t := range w.tabs {
		t.tree.Destroy()
	}
	w.tabs = nil
	w.active = 0
}

// SetActive switches to tab i.
func (w *Workspace) SetActive(i int) error {
	if i < 0 || i >= len(w.tabs) {
		return fmt.Errorf("select tab %d: %w", i, ErrNoTab)
	}
	w.active = i
	return nil
}

// NextTab activates the following tab, wrapping around.
func (w *Workspace) NextTab() {
	if n := len(w.tabs); n > 0 {
		w.active = (w.active + 1) % n
	}
}

// PrevTab activates the preceding tab, wrapping around.
func (w *Workspace) PrevTab() {
	if n := len(w.tabs); n > 0 {
		w.active = (w.active - 1 + n) % n
	}
}

// FocusNext moves focus to the next leaf of the active tab.
func (w *Workspace) FocusNext() {
	if t := w.Active(); t != nil {
		t.focus = t.tree.Next(t.focus)
	}
}

// FocusPrev moves focus to the previous leaf of the active tab.
func (w *Workspace) FocusPrev() {
	if t := w.Active(); t != nil {
		t.focus = t.tree.Prev(t.focus)
	}
}

// Focus activates the tab holding the session and focuses its leaf.
func (w *Workspace) Focus(sessionID string) bool {
	for i, t := range w.tabs {
		if n := t.tree.Find(sessionID); n != nil {
			w.active = i
			t.focus = n
			return true
		}
	}
	return false
}

// SplitFocused splits the focused leaf and focuses the new leaf.
func (w *Workspace) SplitFocused(o pane.Orientation) (*pane.Node, error) {
	t := w.Active()
	if t == nil {
		return nil, ErrNoTab
	}
	fresh, err := t.tree.Split(t.focus, o)
	if err != nil {
		return nil, err
	}
	t.focus = fresh
	return fresh, nil
}

// CollapseFocused collapses the split around the focused leaf, discarding
// its sibling. The focused leaf keeps focus.
func (w *Workspace) CollapseFocused() error {
	t := w.Active()
	if t == nil {
		return ErrNoTab
	}
	return t.tree.Collapse(t.focus)
}

// RemoveSession drops the leaf of a session whose shell went away. The
// sibling takes over the slot; a lone leaf closes its tab. It reports
// whether the session was found.
func (w *Workspace) RemoveSession(sessionID string) bool {
	for i, t := range w.tabs {
		n := t.tree.Find(sessionID)
		if n == nil {
			continue
		}
		if n.Parent() == nil {
			_ = w.CloseTab(i)
			return true
		}
		survivor := n.Sibling()
		if err := t.tree.Collapse(survivor); err != nil {
			return false
		}
		if t.focus == n || !t.tree.Contains(t.focus) {
			t.focus = firstLeaf(survivor)
		}
		return true
	}
	return false
}

// Sessions returns every session ID across all tabs.
func (w *Workspace) Sessions() []string {
	var ids []string
	for _, t := range w.tabs {
		for _, l := range t.tree.Leaves() {
			ids = append(ids, l.SessionID())
		}
	}
	return ids
}

// SetTitle renames the tab holding the session.
func (w *Workspace) SetTitle(sessionID, title string) {
	if title == "" {
		return
	}
	for _, t := range w.tabs {
		if t.tree.Find(sessionID) != nil && t.focus.SessionID() == sessionID {
			t.title = title
			return
		}
	}
}

func firstLeaf(n *pane.Node) *pane.Node {
	for n != nil && n.IsSplit() {
		n = n.First()
	}
	return n
}
