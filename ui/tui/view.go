package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/drake/scythe/event"
	"github.com/drake/scythe/pane"
	"github.com/drake/scythe/terminal"
	"github.com/drake/scythe/ui/tui/widget"
	"github.com/drake/scythe/ui/util"
)

const (
	headerRows = 2 // buttons and tab strip
	statusRows = 1
	maxTabName = 24
)

// zone is a clickable span of one row.
type zone struct {
	x0, x1 int
	action string
	arg    string
	text   string
}

type button struct {
	label  string
	action string
}

var headerButtons = []button{
	{"New Terminal", event.ActionNewTab},
	{"Automate ▾", event.ActionMenuAuto},
	{"Session ▾", event.ActionMenuSession},
}

func (m *Model) headerZones() []zone {
	zones := make([]zone, 0, len(headerButtons))
	x := 1
	for _, b := range headerButtons {
		text := m.styles.Button.Render(b.label)
		w := util.VisibleLen(text)
		zones = append(zones, zone{x0: x, x1: x + w, action: b.action, text: text})
		x += w + 1
	}
	return zones
}

func (m *Model) tabZones() []zone {
	zones := make([]zone, 0, len(m.layout.Tabs))
	x := 0
	for i, t := range m.layout.Tabs {
		name := util.Clip(t.Title, maxTabName)
		var text string
		if i == m.layout.Active {
			text = m.styles.TabActive.Render(name)
		} else {
			text = m.styles.Tab.Render(name)
		}
		w := util.VisibleLen(text)
		zones = append(zones, zone{x0: x, x1: x + w, arg: t.Focus, text: text})
		x += w
	}
	return zones
}

// bodyRect is the area between the header and the status bar.
func (m *Model) bodyRect() Rect {
	return Rect{X: 0, Y: headerRows, W: m.width, H: max(0, m.height-headerRows-statusRows)}
}

// panelVisible reports whether the AI panel fits beside the panes.
func (m *Model) panelVisible() bool {
	return m.showPanel && m.width >= m.panelWidth+20
}

func (m *Model) paneRect() Rect {
	r := m.bodyRect()
	if m.panelVisible() {
		r.W -= m.panelWidth + 1
	}
	return r
}

func (m *Model) panelRect() (Rect, bool) {
	if !m.panelVisible() {
		return Rect{}, false
	}
	body := m.bodyRect()
	return Rect{X: body.W - m.panelWidth, Y: body.Y, W: m.panelWidth, H: body.H}, true
}

func (m *Model) placements() []Placement {
	t := m.layout.ActiveTab()
	if t == nil {
		return nil
	}
	leaves, _ := Arrange(t.Root, m.paneRect(), m.metrics)
	return leaves
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.initialized {
		return "Loading..."
	}
	if m.quitting {
		return ""
	}

	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderHeader(), m.renderTabs())
	lines = append(lines, m.renderBody()...)

	m.status.SetSize(m.width, statusRows)
	m.status.SetMode(m.mode.String(), m.mode == ModePrefix)
	m.status.SetHint(widget.Hints(m.mode.String()))
	lines = append(lines, m.status.View())

	if len(lines) > m.height {
		lines = lines[:m.height]
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render(" "))
	for _, z := range m.headerZones() {
		b.WriteString(z.text)
		b.WriteString(m.styles.Header.Render(" "))
	}
	left := b.String()
	brand := m.styles.Brand.Render("☠ scythe ")
	gap := m.width - util.VisibleLen(left) - util.VisibleLen(brand)
	if gap < 0 {
		return util.Fit(left, m.width)
	}
	return left + m.styles.Header.Render(strings.Repeat(" ", gap)) + brand
}

func (m *Model) renderTabs() string {
	var b strings.Builder
	for _, z := range m.tabZones() {
		b.WriteString(z.text)
	}
	return util.Fit(b.String(), m.width)
}

func (m *Model) renderBody() []string {
	body := m.bodyRect()
	area := m.paneRect()

	rows := make([]string, body.H)
	for i := range rows {
		rows[i] = strings.Repeat(" ", area.W)
	}

	if t := m.layout.ActiveTab(); t != nil {
		leaves, dividers := Arrange(t.Root, area, m.metrics)
		for _, d := range dividers {
			rows = util.Overlay(rows, m.renderDivider(d), d.Rect.X-area.X, d.Rect.Y-area.Y, area.W)
		}
		for _, p := range leaves {
			block := m.renderPane(p, p.Session == t.Focus && m.mode != ModeAI)
			rows = util.Overlay(rows, block, p.Frame.X-area.X, p.Frame.Y-area.Y, area.W)
		}
	}

	if r, ok := m.panelRect(); ok {
		m.panel.SetSize(r.W, r.H)
		panel := strings.Split(m.panel.View(), "\n")
		sep := m.styles.Divider.Render("│")
		for i := range rows {
			right := ""
			if i < len(panel) {
				right = panel[i]
			}
			rows[i] = util.Fit(rows[i], area.W) + sep + right
		}
	}

	if m.mode == ModeMenu {
		w := min(64, m.width-4)
		m.picker.SetSize(w, 0)
		box := strings.Split(m.picker.View(), "\n")
		boxW := 0
		for _, l := range box {
			boxW = max(boxW, util.VisibleLen(l))
		}
		x := max(0, (m.width-boxW)/2)
		rows = util.Overlay(rows, box, x, 1, m.width)
	}

	return rows
}

func (m *Model) renderDivider(d Divider) []string {
	if d.Orientation == pane.Horizontal {
		out := make([]string, d.Rect.H)
		for i := range out {
			out[i] = m.styles.Divider.Render("│")
		}
		return out
	}
	return []string{m.styles.Divider.Render(strings.Repeat("─", d.Rect.W))}
}

// renderPane draws one shell: a title row and its screen clipped to the
// body rectangle.
func (m *Model) renderPane(p Placement, focused bool) []string {
	scr, ok := m.screens[p.Session]
	title := " shell"
	if ok && scr.Title != "" {
		title = " " + scr.Title
	}

	out := make([]string, 0, p.Frame.H)
	if p.Body != p.Frame {
		title = util.Fit(util.Clip(title, p.Frame.W), p.Frame.W)
		if focused {
			out = append(out, m.styles.PaneTitleFocused.Render(title))
		} else {
			out = append(out, m.styles.PaneTitle.Render(title))
		}
	}

	for row := 0; row < p.Body.H; row++ {
		line := ""
		if ok && row < len(scr.Lines) {
			line = scr.Lines[row]
		}
		line = util.Fit(line, p.Body.W)
		if focused && ok && scr.CursorVisible && row == scr.CursorY && scr.CursorX < p.Body.W {
			line = m.withCursor(line, scr, p.Body.W)
		}
		out = append(out, line)
	}
	return out
}

// withCursor paints the cursor cell of a fitted line.
func (m *Model) withCursor(line string, scr terminal.Screen, width int) string {
	x := scr.CursorX
	plain := []rune(ansi.Strip(line))
	ch := " "
	if x < len(plain) {
		ch = string(plain[x])
	}
	left := ansi.Truncate(line, x, "")
	right := ""
	if x+1 < width {
		right = ansi.TruncateLeft(line, x+1, "")
	}
	return left + m.styles.Cursor.Render(ch) + right
}
