package util

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// VisibleLen returns the display width of s, ignoring escape sequences.
func VisibleLen(s string) int {
	return ansi.StringWidth(s)
}

// Fit truncates or pads a styled string to exactly width cells.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return ansi.Truncate(s, width, "")
}

// Clip shortens plain text such as a title to width cells with an ellipsis.
func Clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Overlay composites top onto base with its top-left corner at column x,
// row y. Every base line is treated as width cells wide.
func Overlay(base, top []string, x, y, width int) []string {
	out := make([]string, len(base))
	copy(out, base)

	topWidth := 0
	for _, l := range top {
		topWidth = max(topWidth, ansi.StringWidth(l))
	}
	for i, line := range top {
		row := y + i
		if row < 0 || row >= len(out) {
			continue
		}
		target := Fit(out[row], width)
		left := Fit(ansi.Truncate(target, x, ""), x)
		mid := Fit(line, topWidth)
		right := ""
		if end := x + topWidth; end < width {
			right = ansi.TruncateLeft(target, end, "")
		}
		out[row] = left + mid + right
	}
	return out
}

// Wrap word-wraps s to width cells and splits it into lines.
func Wrap(s string, width int) []string {
	if width <= 0 {
		return nil
	}
	wrapped := ansi.Wrap(s, width, "")
	return strings.Split(wrapped, "\n")
}
