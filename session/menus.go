package session

import (
	"github.com/drake/scythe/event"
	"github.com/drake/scythe/ui"
)

func (s *Session) automateMenu() ui.Menu {
	actions := s.engine.Actions()
	items := make([]ui.MenuItem, 0, len(actions)+1)
	for _, a := range actions {
		items = append(items, ui.MenuItem{
			Label:       a.Name,
			Description: a.Description,
			Action:      event.ActionAutomate,
			Arg:         a.Name,
			MatchDesc:   true,
		})
	}
	items = append(items, ui.MenuItem{
		Label:       "Reload Scripts",
		Description: "Re-run built-in and user automation scripts",
		Action:      event.ActionReload,
	})
	return ui.Menu{Title: "Automate", Items: items}
}

func sessionMenu() ui.Menu {
	return ui.Menu{Title: "Session", Items: []ui.MenuItem{
		{Label: "Save Session", Description: "Write tabs and splits to the session file", Action: event.ActionSave},
		{Label: "Load Session", Description: "Replace all tabs with the saved session", Action: event.ActionLoad},
		{Label: "Close All", Description: "Close every terminal and start fresh", Action: event.ActionCloseAll},
		{Label: "Quit", Action: event.ActionQuit},
	}}
}

func paneMenu() ui.Menu {
	return ui.Menu{Title: "Terminal", Items: []ui.MenuItem{
		{Label: "Split Horizontally", Description: "Side by side", Action: event.ActionSplitH},
		{Label: "Split Vertically", Description: "One above the other", Action: event.ActionSplitV},
		{Label: "Collapse", Description: "Close the other half of this split", Action: event.ActionCollapse},
		{Label: "New Tab", Action: event.ActionNewTab},
		{Label: "Close Tab", Action: event.ActionCloseTab},
		{Label: "Next Pane", Action: event.ActionFocusNext},
		{Label: "Previous Pane", Action: event.ActionFocusPrev},
	}}
}
