package terminal

import (
	"fmt"
	"strings"

	"github.com/hinshun/vt10x"
)

// Glyph attribute bits as laid out in vt10x.Glyph.Mode.
const (
	attrReverse int16 = 1 << iota
	attrUnderline
	attrBold
	attrGfx
	attrItalic
	attrBlink
)

// Screen is an immutable snapshot of a session's visible grid.
type Screen struct {
	Cols, Rows    int
	Lines         []string // one styled line per row, exactly Cols cells wide
	CursorX       int
	CursorY       int
	CursorVisible bool
	Title         string
}

// Screen snapshots the grid. Taking a snapshot re-arms output notification.
func (s *Session) Screen() Screen {
	s.dirty.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.vt, s.title)
}

// Text returns the visible screen as plain text with trailing blanks trimmed.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return plainText(s.vt)
}

func snapshot(vt vt10x.View, title string) Screen {
	vt.Lock()
	defer vt.Unlock()

	cols, rows := vt.Size()
	cur := vt.Cursor()
	scr := Screen{
		Cols:          cols,
		Rows:          rows,
		Lines:         make([]string, rows),
		CursorX:       cur.X,
		CursorY:       cur.Y,
		CursorVisible: vt.CursorVisible(),
		Title:         title,
	}
	for y := 0; y < rows; y++ {
		scr.Lines[y] = styledRow(vt, y, cols)
	}
	return scr
}

func plainText(vt vt10x.View) string {
	vt.Lock()
	defer vt.Unlock()

	cols, rows := vt.Size()
	lines := make([]string, 0, rows)
	for y := 0; y < rows; y++ {
		var b strings.Builder
		for x := 0; x < cols; x++ {
			b.WriteRune(printable(vt.Cell(x, y).Char))
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// styledRow renders one row with SGR sequences, emitting a new sequence only
// when attributes change. The row always ends reset.
func styledRow(vt vt10x.View, y, cols int) string {
	var b strings.Builder
	var last vt10x.Glyph
	last.FG, last.BG = vt10x.DefaultFG, vt10x.DefaultBG
	styled := false

	for x := 0; x < cols; x++ {
		g := vt.Cell(x, y)
		if g.FG != last.FG || g.BG != last.BG || g.Mode != last.Mode {
			if seq := sgr(g); seq != "" {
				b.WriteString(seq)
				styled = true
			} else if styled {
				b.WriteString("\x1b[0m")
				styled = false
			}
			last = g
		}
		b.WriteRune(printable(g.Char))
	}
	if styled {
		b.WriteString("\x1b[0m")
	}
	return b.String()
}

// sgr returns the full SGR sequence for g, or "" for a default cell.
func sgr(g vt10x.Glyph) string {
	var params []string
	if g.Mode&attrBold != 0 {
		params = append(params, "1")
	}
	if g.Mode&attrItalic != 0 {
		params = append(params, "3")
	}
	if g.Mode&attrUnderline != 0 {
		params = append(params, "4")
	}
	if g.Mode&attrBlink != 0 {
		params = append(params, "5")
	}
	if g.Mode&attrReverse != 0 {
		params = append(params, "7")
	}
	if p := colorParam(g.FG, vt10x.DefaultFG, 38); p != "" {
		params = append(params, p)
	}
	if p := colorParam(g.BG, vt10x.DefaultBG, 48); p != "" {
		params = append(params, p)
	}
	if len(params) == 0 {
		return ""
	}
	return "\x1b[0;" + strings.Join(params, ";") + "m"
}

func colorParam(c, def vt10x.Color, base int) string {
	switch {
	case c == def:
		return ""
	case c < 256:
		return fmt.Sprintf("%d;5;%d", base, c)
	}
	return ""
}

func printable(r rune) rune {
	if r < ' ' || r == 0x7f {
		return ' '
	}
	return r
}
