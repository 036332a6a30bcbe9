package session

import (
	"encoding/json"
	"fmt"

	"github.com/bazelment/agenttap/protocol"
)

// State is the lifecycle state of a session outcome.
type State int

const (
	// StatePending means no terminal condition has been reached yet.
	StatePending State = iota
	// StateSuccess means the session completed and any declared contract held.
	StateSuccess
	// StateFailure means the session reached a terminal failure.
	StateFailure
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FailureKind classifies terminal failures.
type FailureKind string

const (
	// FailureProtocol: the stream violated event ordering or would not parse.
	FailureProtocol FailureKind = "protocol_error"
	// FailureSchema: terminal payload missing or violating the declared contract.
	FailureSchema FailureKind = "schema_violation"
	// FailureUpstream: the service reported the session failed.
	FailureUpstream FailureKind = "upstream_failure"
	// FailureTurnLimit: the configured turn bound was exceeded.
	FailureTurnLimit FailureKind = "turn_limit_exceeded"
	// FailureNoEvents: the source closed without delivering a single message.
	FailureNoEvents FailureKind = "no_events"
	// FailureStreamClosed: the source closed after some messages but before
	// a terminal result.
	FailureStreamClosed FailureKind = "stream_closed_early"
)

// Failure describes why a session ended unsuccessfully.
type Failure struct {
	Err  error
	Kind FailureKind
	// Subtype is the upstream failure subtype, verbatim from the wire.
	Subtype string
	Detail  string
}

func (f *Failure) Error() string {
	msg := string(f.Kind)
	if f.Subtype != "" {
		msg += " (" + f.Subtype + ")"
	}
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Warning flags a non-fatal irregularity observed on the stream.
type Warning struct {
	Code    string
	Tool    string
	Message string
}

// Warning codes.
const (
	WarnUnknownTool  = "unknown_tool"
	WarnUnknownAgent = "unknown_agent"
)

// Stats accumulates session metrics. Turns counts tool invocations observed
// client-side; UpstreamTurns is the count the service reported on the
// terminal message.
type Stats struct {
	CostUSD         float64
	Turns           int
	UpstreamTurns   int
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
	DurationMs      int64
	DurationAPIMs   int64
}

// AddUsage folds terminal usage details into the stats.
func (s *Stats) AddUsage(u protocol.UsageDetails) {
	s.InputTokens += u.InputTokens
	s.OutputTokens += u.OutputTokens
	s.CacheReadTokens += u.CacheReadInputTokens
}

// TotalTokens returns input + output tokens.
func (s *Stats) TotalTokens() int {
	return s.InputTokens + s.OutputTokens
}

// Delegation records a hand-off to a named sub-agent.
type Delegation struct {
	// SubAgent is the delegate's name, taken from the invocation's
	// subagent_type argument.
	SubAgent string
	// ToolCallID identifies the delegating tool invocation.
	ToolCallID string
	// Description summarizes the delegated work when the agent provided one.
	Description string
}

// Info contains session metadata from the init message.
type Info struct {
	SessionID string
	Model     string
	WorkDir   string
	Tools     []string
	Agents    []string
}

// Outcome is the terminal value of a session. It transitions from pending
// exactly once and never changes afterwards.
type Outcome struct {
	State State
	// Text is the final free-text result (success without a contract, or
	// whatever partial text a failure left behind).
	Text string
	// Structured is the contract-validated terminal payload, when declared.
	Structured json.RawMessage
	// Failure is non-nil exactly when State is StateFailure.
	Failure     *Failure
	Stats       Stats
	Warnings    []Warning
	ToolCalls   []ToolInvocation
	Delegations []Delegation
	SessionID   string
}

// Success reports whether the session completed successfully.
func (o *Outcome) Success() bool {
	return o.State == StateSuccess
}

// Err returns the failure as an error, or nil on success.
func (o *Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}
