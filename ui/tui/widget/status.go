package widget

import (
	"strings"

	"github.com/drake/scythe/ui"
	"github.com/drake/scythe/ui/style"
	"github.com/drake/scythe/ui/util"
)

// Status is the bottom bar: input mode on the left, the latest notice on
// the right and key hints in between.
type Status struct {
	mode   string
	prefix bool
	hint   string
	notice ui.Status
	width  int
	styles style.Styles
}

// NewStatus creates a new status widget.
func NewStatus(styles style.Styles) *Status {
	return &Status{mode: "TERM", styles: styles}
}

// SetMode sets the mode badge. prefix highlights it as waiting for a
// command key.
func (s *Status) SetMode(mode string, prefix bool) {
	s.mode = mode
	s.prefix = prefix
}

// SetHint sets the key hint text.
func (s *Status) SetHint(hint string) { s.hint = hint }

// SetNotice replaces the notice.
func (s *Status) SetNotice(n ui.Status) { s.notice = n }

// Notice returns the current notice.
func (s *Status) Notice() ui.Status { return s.notice }

// SetSize implements Widget.
func (s *Status) SetSize(width, height int) { s.width = width }

// View implements Widget.
func (s *Status) View() string {
	var left string
	if s.prefix {
		left = s.styles.StatusPrefix.Render(s.mode)
	} else {
		left = s.styles.StatusMode.Render(s.mode)
	}

	var right string
	if s.notice.Notice != "" {
		if s.notice.Error {
			right = s.styles.Error.Inherit(s.styles.StatusBar).Render(s.notice.Notice + " ")
		} else {
			right = s.styles.StatusBar.Render(s.notice.Notice + " ")
		}
	}

	room := s.width - util.VisibleLen(left) - util.VisibleLen(right)
	if room < 0 {
		right = util.Fit(right, max(0, s.width-util.VisibleLen(left)))
		room = 0
	}
	middle := ""
	if room > 0 {
		middle = s.styles.StatusBar.Render(util.Fit(" "+s.hint, room))
	}

	return util.Fit(left+middle+right, s.width)
}

// Hints returns the key hint line for a mode.
func Hints(mode string) string {
	switch mode {
	case "PREFIX":
		return strings.Join([]string{
			"t tab", "w close", "n/p next/prev", "% split", "\" vsplit",
			"x collapse", "o focus", "m automate", "s session", "i ai", "q quit",
		}, "  ")
	case "AI":
		return "enter send  esc back  ctrl+y copy"
	case "MENU":
		return "type to filter  ↑/↓ select  enter run  esc close"
	default:
		return "ctrl+a prefix"
	}
}
