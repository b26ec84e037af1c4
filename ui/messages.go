package ui

import (
	"github.com/drake/scythe/terminal"
	"github.com/drake/scythe/workspace"
)

// --- Messages pushed from the session to the UI ---

// LayoutMsg replaces the workspace projection.
type LayoutMsg workspace.Layout

// ScreenMsg replaces the screen of one shell.
type ScreenMsg struct {
	Session string
	Screen  terminal.Screen
}

// DropScreenMsg forgets a shell that is gone.
type DropScreenMsg string

// AIMsg replaces the side panel state.
type AIMsg AIState

// NoticeMsg shows a status bar notice.
type NoticeMsg Status

// MenuMsg opens the picker overlay.
type MenuMsg Menu
