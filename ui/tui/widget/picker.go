package widget

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/drake/scythe/ui/style"
)

// PickerItem represents a row in the picker.
type PickerItem interface {
	FilterValue() string
	GetText() string
	GetDescription() string
	GetValue() string
	MatchesDescription() bool
}

// PickerConfig holds picker configuration.
type PickerConfig struct {
	MaxVisible int
	Header     string
	EmptyText  string
}

// Picker is a generic fuzzy-filtering selector drawn as an overlay.
type Picker[T PickerItem] struct {
	items     []T
	filtered  []T
	positions [][]int // matched byte offsets per filtered row
	query     string
	selected  int
	scrollOff int
	config    PickerConfig
	styles    style.Styles
	width     int
}

// NewPicker creates a new picker.
func NewPicker[T PickerItem](config PickerConfig, styles style.Styles) *Picker[T] {
	if config.MaxVisible == 0 {
		config.MaxVisible = 10
	}
	if config.EmptyText == "" {
		config.EmptyText = "No matches"
	}
	return &Picker[T]{
		config: config,
		styles: styles,
	}
}

// SetItems sets the items to filter.
func (p *Picker[T]) SetItems(items []T) {
	p.items = items
	p.Reset()
}

// SetSize implements Widget. Only the width is used; the picker sizes its
// own height.
func (p *Picker[T]) SetSize(width, height int) {
	p.width = width
}

// SetHeader updates the header text.
func (p *Picker[T]) SetHeader(header string) {
	p.config.Header = header
}

// Query returns the current filter query.
func (p *Picker[T]) Query() string {
	return p.query
}

// Len returns the number of rows that pass the filter.
func (p *Picker[T]) Len() int { return len(p.filtered) }

// Filter updates the filtered list based on query.
func (p *Picker[T]) Filter(query string) {
	p.query = query

	if query == "" {
		p.filtered = p.items
		p.positions = nil
		p.selected = 0
		p.scrollOff = 0
		return
	}

	values := make([]string, len(p.items))
	for i, item := range p.items {
		values[i] = item.FilterValue()
	}

	matches := fuzzy.Find(query, values)
	p.filtered = make([]T, len(matches))
	p.positions = make([][]int, len(matches))
	for i, m := range matches {
		p.filtered[i] = p.items[m.Index]
		p.positions[i] = m.MatchedIndexes
	}

	if p.selected >= len(p.filtered) {
		p.selected = max(0, len(p.filtered)-1)
	}
	p.scrollOff = 0
	p.adjustScroll()
}

// Type appends text to the query.
func (p *Picker[T]) Type(text string) {
	p.Filter(p.query + text)
}

// Backspace removes the last rune of the query.
func (p *Picker[T]) Backspace() {
	if p.query == "" {
		return
	}
	r := []rune(p.query)
	p.Filter(string(r[:len(r)-1]))
}

// SelectUp moves selection up with wraparound.
func (p *Picker[T]) SelectUp() {
	if len(p.filtered) == 0 {
		return
	}
	p.selected--
	if p.selected < 0 {
		p.selected = len(p.filtered) - 1
	}
	p.adjustScroll()
}

// SelectDown moves selection down with wraparound.
func (p *Picker[T]) SelectDown() {
	if len(p.filtered) == 0 {
		return
	}
	p.selected++
	if p.selected >= len(p.filtered) {
		p.selected = 0
	}
	p.adjustScroll()
}

func (p *Picker[T]) adjustScroll() {
	if p.selected < p.scrollOff {
		p.scrollOff = p.selected
	} else if p.selected >= p.scrollOff+p.config.MaxVisible {
		p.scrollOff = p.selected - p.config.MaxVisible + 1
	}
}

// Reset clears the query and selection.
func (p *Picker[T]) Reset() {
	p.query = ""
	p.filtered = p.items
	p.positions = nil
	p.selected = 0
	p.scrollOff = 0
}

// Selected returns the currently selected item.
func (p *Picker[T]) Selected() (T, bool) {
	var zero T
	if len(p.filtered) == 0 || p.selected < 0 || p.selected >= len(p.filtered) {
		return zero, false
	}
	return p.filtered[p.selected], true
}

// Height returns the rendered height including border.
func (p *Picker[T]) Height() int {
	h := min(len(p.filtered), p.config.MaxVisible)
	if h == 0 {
		h = 1 // empty placeholder
	}
	if p.config.Header != "" {
		h++
	}
	return h + 2
}

// View renders the picker box.
func (p *Picker[T]) View() string {
	var lines []string

	if p.config.Header != "" {
		lines = append(lines, p.styles.Muted.Render(p.config.Header)+p.query+"█")
	}

	inner := max(p.width-4, 10)
	if len(p.filtered) == 0 {
		lines = append(lines, p.styles.Muted.Render("  "+p.config.EmptyText))
		return p.styles.OverlayBorder.Width(inner).Render(strings.Join(lines, "\n"))
	}

	end := min(p.scrollOff+p.config.MaxVisible, len(p.filtered))
	for i := p.scrollOff; i < end; i++ {
		var positions []int
		if i < len(p.positions) {
			positions = p.positions[i]
		}
		lines = append(lines, p.renderItem(p.filtered[i], i == p.selected, positions))
	}

	return p.styles.OverlayBorder.Width(inner).Render(strings.Join(lines, "\n"))
}

func (p *Picker[T]) renderItem(item T, selected bool, matches []int) string {
	matchSet := make(map[int]bool, len(matches))
	for _, pos := range matches {
		matchSet[pos] = true
	}

	paint := func(ch string, matched bool) string {
		switch {
		case matched && selected:
			return p.styles.OverlayMatchSelected.Render(ch)
		case matched:
			return p.styles.OverlayMatch.Render(ch)
		case selected:
			return p.styles.OverlaySelected.Render(ch)
		default:
			return p.styles.OverlayNormal.Render(ch)
		}
	}

	var b strings.Builder
	if selected {
		b.WriteString(paint("> ", false))
	} else {
		b.WriteString(paint("  ", false))
	}

	text := item.GetText()
	for idx, r := range text {
		b.WriteString(paint(string(r), matchSet[idx]))
	}

	if desc := item.GetDescription(); desc != "" {
		b.WriteString(paint(" - ", false))
		offset := len(text) + 1
		for idx, r := range desc {
			b.WriteString(paint(string(r), item.MatchesDescription() && matchSet[offset+idx]))
		}
	}
	return b.String()
}
