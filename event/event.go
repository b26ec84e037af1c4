package event

// Type identifies the source of the message
type Type int

const (
	UserInput  Type = iota
	TermOutput      // Screen of a session changed; coalesced per session
	TermTitle       // OSC window title changed
	TermExit        // Shell process exited
	Resize          // UI resized a session's pane
	Timer
	SystemControl
	AsyncResult // Async work completion dispatched onto the session loop
)

// Control action constants
const (
	ActionQuit        = "quit"
	ActionNewTab      = "new_tab"
	ActionCloseTab    = "close_tab"
	ActionNextTab     = "next_tab"
	ActionPrevTab     = "prev_tab"
	ActionSplitH      = "split_h"
	ActionSplitV      = "split_v"
	ActionCollapse    = "collapse"
	ActionFocusNext   = "focus_next"
	ActionFocusPrev   = "focus_prev"
	ActionFocus       = "focus"
	ActionAutomate    = "automate"
	ActionSave        = "session_save"
	ActionLoad        = "session_load"
	ActionCloseAll    = "close_all"
	ActionAsk         = "ai_ask"
	ActionReload      = "reload"
	ActionMenuAuto    = "menu_automate"
	ActionMenuSession = "menu_session"
	ActionMenuPane    = "menu_pane"
)

// ControlOp contains control operation details
type ControlOp struct {
	Action string // Use Action* constants
	Arg    string // Action name, prompt text or layout path
}

// Event is the universal packet sent to the Orchestrator
type Event struct {
	Type     Type
	Session  string    // Terminal session ID for Term* events
	Payload  string    // For User text and titles
	Code     int       // Exit code for TermExit
	Cols     int       // For Resize
	Rows     int       // For Resize
	Callback func()    // For async results, run on the session loop
	Control  ControlOp // For SystemControl events
}
