package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// Header
	Header       lipgloss.Style
	Button       lipgloss.Style
	ButtonActive lipgloss.Style
	Brand        lipgloss.Style

	// Tabs
	Tab       lipgloss.Style
	TabActive lipgloss.Style

	// Panes
	PaneTitle        lipgloss.Style
	PaneTitleFocused lipgloss.Style
	Divider          lipgloss.Style
	Cursor           lipgloss.Style

	// AI panel
	PanelTitle   lipgloss.Style
	PanelBorder  lipgloss.Style
	PanelPrompt  lipgloss.Style
	PanelText    lipgloss.Style
	PanelPending lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	StatusMode   lipgloss.Style
	StatusPrefix lipgloss.Style

	// Overlay
	OverlayBorder        lipgloss.Style
	OverlaySelected      lipgloss.Style
	OverlayNormal        lipgloss.Style
	OverlayMatch         lipgloss.Style
	OverlayMatchSelected lipgloss.Style // Match highlighting on selected row

	// Misc
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color("235")),
		Button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238")).
			Padding(0, 1),
		ButtonActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),
		Brand: lipgloss.NewStyle().
			Foreground(lipgloss.Color("160")). // Blood red
			Background(lipgloss.Color("235")).
			Bold(true),

		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),

		PaneTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Background(lipgloss.Color("236")),
		PaneTitleFocused: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")),
		Divider: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Cursor: lipgloss.NewStyle().
			Reverse(true),

		PanelTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Bold(true),
		PanelBorder: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		PanelPrompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")), // Muted yellow
		PanelText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		PanelPending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")),
		StatusMode: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),
		StatusPrefix: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("179")).
			Padding(0, 1),

		OverlayBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
		OverlaySelected: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")),
		OverlayNormal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		OverlayMatch: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true),
		OverlayMatchSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Background(lipgloss.Color("62")).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")),
	}
}
