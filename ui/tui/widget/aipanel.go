package widget

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/scythe/ui"
	"github.com/drake/scythe/ui/style"
	"github.com/drake/scythe/ui/util"
)

// Rows of the AI panel that react to clicks.
const (
	AIInputRow = 2
	AISendRow  = 3
)

// AIPanel is the right-hand assistant: a prompt line, a send button and
// the wrapped answer.
type AIPanel struct {
	input  textinput.Model
	state  ui.AIState
	width  int
	height int
	styles style.Styles
}

// NewAIPanel creates the panel with an empty prompt.
func NewAIPanel(styles style.Styles) *AIPanel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask the AI..."
	ti.CharLimit = 4000
	return &AIPanel{input: ti, styles: styles}
}

// Focus gives the prompt line the keyboard.
func (p *AIPanel) Focus() tea.Cmd { return p.input.Focus() }

// Blur returns the keyboard to the terminal.
func (p *AIPanel) Blur() { p.input.Blur() }

// Focused reports whether the prompt line has the keyboard.
func (p *AIPanel) Focused() bool { return p.input.Focused() }

// Update forwards a message to the prompt line.
func (p *AIPanel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// Submit takes the prompt text and clears the line.
func (p *AIPanel) Submit() string {
	v := strings.TrimSpace(p.input.Value())
	p.input.Reset()
	return v
}

// Value returns the unsent prompt text.
func (p *AIPanel) Value() string { return p.input.Value() }

// SetState replaces what the panel shows.
func (p *AIPanel) SetState(st ui.AIState) { p.state = st }

// State returns what the panel shows.
func (p *AIPanel) State() ui.AIState { return p.state }

// SetSize implements Widget.
func (p *AIPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(1, width-3)
}

// View implements Widget. It renders exactly height lines of width cells.
func (p *AIPanel) View() string {
	w := p.width
	title := p.styles.PanelTitle.Render("AI Assistant")
	switch {
	case p.state.Disabled:
		title += p.styles.Muted.Render(" (offline)")
	case p.state.Unreachable:
		title += p.styles.Error.Render(" (unreachable)")
	case p.state.Model != "":
		title += p.styles.Muted.Render(" · " + p.state.Model)
	}

	rule := p.styles.PanelBorder.Render(strings.Repeat("─", max(0, w)))
	button := p.styles.Button.Render("Send")
	if p.Focused() {
		button = p.styles.ButtonActive.Render("Send")
	}

	lines := []string{title, rule, p.input.View(), button, rule}

	if p.state.Prompt != "" {
		for _, l := range util.Wrap("Q: "+p.state.Prompt, w) {
			lines = append(lines, p.styles.PanelPrompt.Render(l))
		}
		lines = append(lines, "")
	}

	switch {
	case p.state.Pending:
		lines = append(lines, p.styles.PanelPending.Render("Thinking..."))
	case p.state.Err != "":
		for _, l := range util.Wrap("Error: "+p.state.Err, w) {
			lines = append(lines, p.styles.Error.Render(l))
		}
	case p.state.Response == "":
		lines = append(lines, p.styles.Muted.Render(util.Clip(ui.Placeholder, w)))
	default:
		for _, l := range util.Wrap(p.state.Response, w) {
			lines = append(lines, p.styles.PanelText.Render(l))
		}
	}

	out := make([]string, p.height)
	for i := range out {
		if i < len(lines) {
			out[i] = util.Fit(lines[i], w)
		} else {
			out[i] = strings.Repeat(" ", max(0, w))
		}
	}
	if len(lines) > p.height && p.height > 0 {
		out[p.height-1] = util.Fit(p.styles.Muted.Render("…"), w)
	}
	return strings.Join(out, "\n")
}
