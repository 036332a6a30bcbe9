// Package render provides ANSI-colored terminal rendering for agent sessions.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/bazelment/agenttap/session"
)

// ANSI color codes - chosen to work on both light and dark backgrounds
const (
	ColorReset   = "\x1b[0m"
	ColorDim     = "\x1b[2m"
	ColorItalic  = "\x1b[3m"
	ColorBold    = "\x1b[1m"
	ColorRed     = "\x1b[31m"
	ColorGreen   = "\x1b[32m"
	ColorYellow  = "\x1b[33m"
	ColorCyan    = "\x1b[36m"
	ColorGray    = "\x1b[90m"
)

// Renderer prints session progress with ANSI colors.
type Renderer struct {
	out         io.Writer
	mu          sync.Mutex
	verbose     bool
	noColor     bool
	inThinking  bool
	wroteText   bool
}

// NewRenderer creates a renderer writing to out. If verbose is true, tool
// invocations are shown as they happen. If noColor is true, ANSI color codes
// are suppressed; colors are also suppressed when out is not a terminal.
func NewRenderer(out io.Writer, verbose, noColor bool) *Renderer {
	if !noColor {
		noColor = !isTerminal(out)
	}
	return &Renderer{
		out:     out,
		verbose: verbose,
		noColor: noColor,
	}
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// color returns the color code if colors are enabled, empty string otherwise.
func (r *Renderer) color(c string) string {
	if r.noColor {
		return ""
	}
	return c
}

// Handle dispatches a session event to the matching print method.
func (r *Renderer) Handle(event session.Event) {
	switch e := event.(type) {
	case session.ReadyEvent:
		r.SessionInfo(e.Info.SessionID, e.Info.Model)
	case session.TextEvent:
		r.Text(e.Text)
	case session.ThinkingEvent:
		r.Thinking(e.Thinking)
	case session.ToolCallEvent:
		r.ToolCall(e.Invocation)
	case session.ToolResultEvent:
		r.ToolResult(e.ToolUseID, e.IsError)
	case session.DelegationEvent:
		r.Delegation(e.Delegation.SubAgent, e.Delegation.Description)
	case session.WarningEvent:
		r.Warning(e.Warning.Message)
	case session.CompleteEvent:
		r.Outcome(e.Outcome)
	case session.ErrorEvent:
		r.Error(e.Error, e.Context)
	}
}

// SessionInfo prints session metadata (e.g. session ID, model).
func (r *Renderer) SessionInfo(sessionID, model string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parts := []string{}
	if sessionID != "" {
		parts = append(parts, "session="+sessionID)
	}
	if model != "" {
		parts = append(parts, "model="+model)
	}
	if len(parts) > 0 {
		fmt.Fprintf(r.out, "%s[%s]%s\n", r.color(ColorGray), strings.Join(parts, " "), r.color(ColorReset))
	}
}

// Text prints streaming assistant text.
func (r *Renderer) Text(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Add newline when transitioning from thinking to text
	if r.inThinking {
		fmt.Fprintln(r.out)
		r.inThinking = false
	}
	fmt.Fprint(r.out, text)
	r.wroteText = true
}

// Thinking prints reasoning output in dim italic style.
func (r *Renderer) Thinking(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "%s%s%s%s", r.color(ColorDim), r.color(ColorItalic), text, r.color(ColorReset))
	r.inThinking = true
}

// ToolCall prints a tool invocation. In verbose mode, one line per call:
// [Read] a.go — undeclared tools get a yellow marker. In non-verbose mode,
// invocations are silent.
func (r *Renderer) ToolCall(inv session.ToolInvocation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.verbose {
		return
	}

	r.breakText()
	marker := ""
	if inv.Unknown {
		marker = fmt.Sprintf(" %s(undeclared)%s", r.color(ColorYellow), r.color(ColorReset))
	}
	fmt.Fprintf(r.out, "%s[%s]%s %s%s\n",
		r.color(ColorCyan), inv.Name, r.color(ColorReset),
		truncate(SummarizeInput(inv.Input), 60), marker)
}

// ToolResult prints a failed tool result. Successful results are silent even
// in verbose mode; errors are always shown.
func (r *Renderer) ToolResult(toolUseID string, isError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !isError {
		return
	}
	r.breakText()
	fmt.Fprintf(r.out, "%s[tool failed]%s %s\n", r.color(ColorRed), r.color(ColorReset), toolUseID)
}

// Delegation prints a sub-agent hand-off.
func (r *Renderer) Delegation(subAgent, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.breakText()
	desc := ""
	if description != "" {
		desc = " " + truncate(description, 60)
	}
	fmt.Fprintf(r.out, "%s[delegate → %s]%s%s\n", r.color(ColorCyan), subAgent, r.color(ColorReset), desc)
}

// Warning prints a non-fatal irregularity.
func (r *Renderer) Warning(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.breakText()
	fmt.Fprintf(r.out, "%s[Warning]%s %s\n", r.color(ColorYellow), r.color(ColorReset), msg)
}

// Outcome prints the terminal summary: status, cost, turns, and tokens.
func (r *Renderer) Outcome(o *session.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\n%s───────────────────────────────────────────────────────%s\n", r.color(ColorDim), r.color(ColorReset))

	status := "✓"
	colorCode := ColorGreen
	if !o.Success() {
		status = "✗"
		colorCode = ColorRed
	}

	fmt.Fprintf(r.out, "%s%s Session %s%s", r.color(colorCode), status, o.State, r.color(ColorReset))
	if o.Failure != nil {
		fmt.Fprintf(r.out, "%s (%s)%s", r.color(ColorRed), o.Failure.Error(), r.color(ColorReset))
	}
	fmt.Fprintln(r.out)

	fmt.Fprintf(r.out, "%sCost: $%g | Turns: %d | Tokens: %d in / %d out%s\n",
		r.color(ColorGray), o.Stats.CostUSD, o.Stats.Turns,
		o.Stats.InputTokens, o.Stats.OutputTokens, r.color(ColorReset))
}

// Error prints an error message.
func (r *Renderer) Error(err error, context string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\n%s[Error: %s]%s %v\n", r.color(ColorRed), context, r.color(ColorReset), err)
}

// breakText terminates any in-progress text line before a bracketed line.
// Callers must hold mu.
func (r *Renderer) breakText() {
	if r.inThinking || r.wroteText {
		fmt.Fprintln(r.out)
		r.inThinking = false
		r.wroteText = false
	}
}

// summaryKeys are tool input fields worth showing, in preference order.
var summaryKeys = []string{"command", "file_path", "path", "pattern", "description", "prompt", "query", "url"}

// SummarizeInput picks a short human-readable summary out of a tool's input:
// the first well-known field present, else the compact JSON encoding.
func SummarizeInput(input map[string]interface{}) string {
	for _, key := range summaryKeys {
		if v, ok := input[key].(string); ok && v != "" {
			return v
		}
	}
	if len(input) == 0 {
		return ""
	}
	data, err := json.Marshal(input)
	if err != nil {
		return ""
	}
	return string(data)
}

// truncate truncates a string to the given max length.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
