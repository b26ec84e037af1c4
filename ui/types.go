package ui

// MenuItem is one row of a header menu. Selecting it sends Action with Arg
// back to the session.
type MenuItem struct {
	Label       string
	Description string
	Action      string
	Arg         string
	MatchDesc   bool // include Description in fuzzy matching
}

// FilterValue returns the string used for fuzzy matching.
func (m MenuItem) FilterValue() string {
	if m.MatchDesc && m.Description != "" {
		return m.Label + " " + m.Description
	}
	return m.Label
}

// GetText returns the item's display text.
func (m MenuItem) GetText() string { return m.Label }

// GetDescription returns the item's description.
func (m MenuItem) GetDescription() string { return m.Description }

// GetValue returns the action the item triggers.
func (m MenuItem) GetValue() string { return m.Action }

// MatchesDescription reports whether the description takes part in matching.
func (m MenuItem) MatchesDescription() bool { return m.MatchDesc }

// Menu is a titled list shown in the picker overlay.
type Menu struct {
	Title string
	Items []MenuItem
}

// AIState is what the side panel shows.
type AIState struct {
	Model    string
	Prompt   string
	Response string
	Pending  bool
	Err      string
	Disabled bool

	Unreachable bool // server down or model missing
}

// Placeholder is the side panel text before the first question.
const Placeholder = "AI Response will appear here..."

// Status is the right-hand part of the status bar.
type Status struct {
	Notice string
	Error  bool
}
