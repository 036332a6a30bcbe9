package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/bazelment/agenttap/session"
)

func TestNewRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, false)
	if r == nil {
		t.Fatal("NewRenderer returned nil")
	}
	if r.out != &buf {
		t.Error("Renderer output not set correctly")
	}
	if !r.verbose {
		t.Error("Renderer verbose not set correctly")
	}
	if !r.noColor {
		t.Error("non-terminal writer should disable color")
	}
}

func TestSessionInfo(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false, true)
	r.SessionInfo("abc-123", "sonnet")

	output := buf.String()
	if !strings.Contains(output, "session=abc-123") {
		t.Errorf("SessionInfo missing session ID: %q", output)
	}
	if !strings.Contains(output, "model=sonnet") {
		t.Errorf("SessionInfo missing model: %q", output)
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)
	r.Text("hello ")
	r.Text("world")

	if buf.String() != "hello world" {
		t.Errorf("Text output: got %q, want %q", buf.String(), "hello world")
	}
}

func TestThinkingToTextTransition(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)
	r.Thinking("pondering")
	r.Text("answer")

	if buf.String() != "pondering\nanswer" {
		t.Errorf("transition output: got %q", buf.String())
	}
}

func TestToolCall_Verbose(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	r.ToolCall(session.ToolInvocation{
		Name:  "Read",
		Input: map[string]interface{}{"file_path": "main.go"},
	})

	output := buf.String()
	if !strings.Contains(output, "[Read]") {
		t.Errorf("Missing tool name: %q", output)
	}
	if !strings.Contains(output, "main.go") {
		t.Errorf("Missing input summary: %q", output)
	}
}

func TestToolCall_NonVerbose(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false, true)

	r.ToolCall(session.ToolInvocation{Name: "Read"})

	if buf.Len() != 0 {
		t.Errorf("Non-verbose should hide tool calls: %q", buf.String())
	}
}

func TestToolCall_Undeclared(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	r.ToolCall(session.ToolInvocation{Name: "Bash", Unknown: true})

	if !strings.Contains(buf.String(), "(undeclared)") {
		t.Errorf("Missing undeclared marker: %q", buf.String())
	}
}

func TestToolResult(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	r.ToolResult("call-1", false)
	if buf.Len() != 0 {
		t.Errorf("Successful results should be silent: %q", buf.String())
	}

	r.ToolResult("call-2", true)
	output := buf.String()
	if !strings.Contains(output, "[tool failed]") || !strings.Contains(output, "call-2") {
		t.Errorf("Missing failure line: %q", output)
	}
}

func TestDelegation(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false, true)

	r.Delegation("security-scanner", "scan for injection risks")

	output := buf.String()
	if !strings.Contains(output, "delegate → security-scanner") {
		t.Errorf("Missing delegation target: %q", output)
	}
	if !strings.Contains(output, "scan for injection risks") {
		t.Errorf("Missing description: %q", output)
	}
}

func TestWarning(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false, true)

	r.Warning(`tool "Bash" invoked but never declared`)

	if !strings.Contains(buf.String(), "[Warning]") {
		t.Errorf("Missing warning prefix: %q", buf.String())
	}
}

func TestOutcomeSuccess(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false, true)

	r.Outcome(&session.Outcome{
		State: session.StateSuccess,
		Stats: session.Stats{CostUSD: 0.03, Turns: 2, InputTokens: 100, OutputTokens: 50},
	})

	output := buf.String()
	if !strings.Contains(output, "✓") {
		t.Errorf("Missing success indicator: %q", output)
	}
	if !strings.Contains(output, "$0.03") {
		t.Errorf("Missing cost: %q", output)
	}
	if !strings.Contains(output, "Turns: 2") {
		t.Errorf("Missing turns: %q", output)
	}
}

func TestOutcomeFailure(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false, true)

	r.Outcome(&session.Outcome{
		State:   session.StateFailure,
		Failure: &session.Failure{Kind: session.FailureTurnLimit},
	})

	output := buf.String()
	if !strings.Contains(output, "✗") {
		t.Errorf("Missing failure indicator: %q", output)
	}
	if !strings.Contains(output, "turn_limit_exceeded") {
		t.Errorf("Missing failure kind: %q", output)
	}
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	r.Error(errors.New("something went wrong"), "read_line")

	output := buf.String()
	if !strings.Contains(output, "[Error: read_line]") {
		t.Errorf("Missing error context: %q", output)
	}
	if !strings.Contains(output, "something went wrong") {
		t.Errorf("Missing error message: %q", output)
	}
}

func TestHandleDispatch(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	r.Handle(session.ReadyEvent{Info: session.Info{SessionID: "s1", Model: "sonnet"}})
	r.Handle(session.TextEvent{Text: "hi"})
	r.Handle(session.CompleteEvent{Outcome: &session.Outcome{State: session.StateSuccess}})

	output := buf.String()
	for _, want := range []string{"session=s1", "hi", "✓"} {
		if !strings.Contains(output, want) {
			t.Errorf("Handle output missing %q: %q", want, output)
		}
	}
}

func TestNoColorMode(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	r.SessionInfo("s1", "sonnet")
	r.Warning("w")
	r.Outcome(&session.Outcome{State: session.StateSuccess})

	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("Color codes present in no-color mode: %q", buf.String())
	}
}

func TestColorMode(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, false)
	// Force noColor off even though buf is not a terminal
	r.noColor = false

	r.Warning("w")

	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("Color codes missing in color mode: %q", buf.String())
	}
}

func TestSummarizeInput(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]interface{}
		expected string
	}{
		{"command preferred", map[string]interface{}{"command": "go vet ./...", "description": "vet"}, "go vet ./..."},
		{"file path", map[string]interface{}{"file_path": "a.go"}, "a.go"},
		{"empty", nil, ""},
		{"fallback json", map[string]interface{}{"limit": float64(5)}, `{"limit":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SummarizeInput(tt.input); got != tt.expected {
				t.Errorf("SummarizeInput = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		max      int
	}{
		{"short", "short", 10},
		{"exactly10!", "exactly10!", 10},
		{"this is a long string", "this is...", 10},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.max)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
		}
	}
}
