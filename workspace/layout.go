package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/drake/scythe/pane"
)

// LayoutNode is a read-only copy of a pane node handed to the UI.
type LayoutNode struct {
	Session     string // leaf only
	Split       bool
	Orientation pane.Orientation
	Position    int
	First       *LayoutNode
	Second      *LayoutNode
}

// TabLayout is one tab of a Layout.
type TabLayout struct {
	Title string
	Root  *LayoutNode
	Focus string
}

// Layout is the projection of the whole workspace the UI renders.
type Layout struct {
	Tabs   []TabLayout
	Active int
}

// ActiveTab returns the active tab layout, or nil when there is none.
func (l Layout) ActiveTab() *TabLayout {
	if l.Active < 0 || l.Active >= len(l.Tabs) {
		return nil
	}
	return &l.Tabs[l.Active]
}

// Snapshot copies the current state into a Layout.
func (w *Workspace) Snapshot() Layout {
	out := Layout{Active: w.ActiveIndex(), Tabs: make([]TabLayout, 0, len(w.tabs))}
	for _, t := range w.tabs {
		out.Tabs = append(out.Tabs, TabLayout{
			Title: t.title,
			Root:  copyNode(t.tree.Root()),
			Focus: t.focus.SessionID(),
		})
	}
	return out
}

func copyNode(n *pane.Node) *LayoutNode {
	if n == nil {
		return nil
	}
	if n.IsLeaf() {
		return &LayoutNode{Session: n.SessionID()}
	}
	return &LayoutNode{
		Split:       true,
		Orientation: n.Orientation(),
		Position:    n.Position(),
		First:       copyNode(n.First()),
		Second:      copyNode(n.Second()),
	}
}

// Saved layout file format. Shells and scrollback are not persisted.

type savedFile struct {
	Version int        `yaml:"version"`
	Active  int        `yaml:"active"`
	Tabs    []savedTab `yaml:"tabs"`
}

type savedTab struct {
	Title string    `yaml:"title"`
	Root  savedNode `yaml:"root"`
}

type savedNode struct {
	Dir         string     `yaml:"dir,omitempty"`
	Orientation string     `yaml:"split,omitempty"`
	Position    int        `yaml:"position,omitempty"`
	First       *savedNode `yaml:"first,omitempty"`
	Second      *savedNode `yaml:"second,omitempty"`
}

// ErrBadLayout is returned for layout files that cannot be rebuilt.
var ErrBadLayout = errors.New("invalid layout file")

// cwdSession is implemented by sessions that know their working directory.
type cwdSession interface {
	Cwd() string
}

// dirSetter is implemented by providers that can start the next shell in a
// given directory.
type dirSetter interface {
	SetNextDir(dir string)
}

// SaveLayout writes the shape of every tab to path.
func (w *Workspace) SaveLayout(path string) error {
	f := savedFile{Version: 1, Active: w.ActiveIndex()}
	for _, t := range w.tabs {
		f.Tabs = append(f.Tabs, savedTab{Title: t.title, Root: saveNode(t.tree.Root())})
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create layout dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	return nil
}

func saveNode(n *pane.Node) savedNode {
	if n.IsLeaf() {
		var dir string
		if cs, ok := n.Session().(cwdSession); ok {
			dir = cs.Cwd()
		}
		return savedNode{Dir: dir}
	}
	first, second := saveNode(n.First()), saveNode(n.Second())
	return savedNode{
		Orientation: n.Orientation().String(),
		Position:    n.Position(),
		First:       &first,
		Second:      &second,
	}
}

// LoadLayout replaces every tab with the tabs described in path, each with
// fresh shells. The new tabs are built before the old ones are closed, so
// on any error the workspace is left untouched.
func (w *Workspace) LoadLayout(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read layout: %w", err)
	}
	var f savedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode layout: %w", err)
	}
	if len(f.Tabs) == 0 {
		return fmt.Errorf("%w: no tabs", ErrBadLayout)
	}
	for i, t := range f.Tabs {
		if err := validate(&t.Root); err != nil {
			return fmt.Errorf("tab %d: %w", i, err)
		}
	}

	tabs := make([]*Tab, 0, len(f.Tabs))
	discard := func() {
		for _, t := range tabs {
			t.tree.Destroy()
		}
	}
	for i, st := range f.Tabs {
		tab, err := w.build(&st)
		if err != nil {
			if tab != nil {
				tab.tree.Destroy()
			}
			discard()
			return fmt.Errorf("tab %d: %w", i, err)
		}
		tabs = append(tabs, tab)
	}

	w.CloseAll()
	w.tabs = tabs
	if f.Active >= 0 && f.Active < len(w.tabs) {
		w.active = f.Active
	}
	return nil
}

// build creates the tree of one saved tab. On a grow error the partly
// built tab is returned so the caller can destroy it.
func (w *Workspace) build(st *savedTab) (*Tab, error) {
	w.setNextDir(firstDir(&st.Root))
	tree, err := pane.NewTree(w.provider, w.host, w.dividers)
	if err != nil {
		return nil, err
	}
	w.serial++
	tab := &Tab{tree: tree, title: fmt.Sprintf("Terminal %d", w.serial)}
	if st.Title != "" {
		tab.title = st.Title
	}
	if err := w.grow(tree, tree.Root(), &st.Root); err != nil {
		return tab, err
	}
	tab.focus = tree.Leaves()[0]
	return tab, nil
}

// grow splits leaf until it matches the saved subtree. The leaf already
// runs in the directory of the saved subtree's first leaf.
func (w *Workspace) grow(tree *pane.Tree, leaf *pane.Node, sn *savedNode) error {
	if sn.First == nil {
		return nil
	}
	o, _ := pane.ParseOrientation(sn.Orientation)
	w.setNextDir(firstDir(sn.Second))
	fresh, err := tree.Split(leaf, o)
	if err != nil {
		return err
	}
	split := fresh.Parent()
	if sn.Position > 0 {
		_ = tree.SetPosition(split, sn.Position)
	}
	if err := w.grow(tree, leaf, sn.First); err != nil {
		return err
	}
	return w.grow(tree, fresh, sn.Second)
}

func (w *Workspace) setNextDir(dir string) {
	if ds, ok := w.provider.(dirSetter); ok && dir != "" {
		ds.SetNextDir(dir)
	}
}

func firstDir(sn *savedNode) string {
	for sn.First != nil {
		sn = sn.First
	}
	return sn.Dir
}

func validate(sn *savedNode) error {
	if (sn.First == nil) != (sn.Second == nil) {
		return fmt.Errorf("%w: split needs two children", ErrBadLayout)
	}
	if sn.First == nil {
		return nil
	}
	if _, ok := pane.ParseOrientation(sn.Orientation); !ok {
		return fmt.Errorf("%w: unknown split %q", ErrBadLayout, sn.Orientation)
	}
	if err := validate(sn.First); err != nil {
		return err
	}
	return validate(sn.Second)
}
