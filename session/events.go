package session

// EventType discriminates between event kinds.
type EventType int

const (
	// EventTypeReady fires when the init message arrives.
	EventTypeReady EventType = iota
	// EventTypeText fires for assistant text fragments.
	EventTypeText
	// EventTypeThinking fires for reasoning fragments.
	EventTypeThinking
	// EventTypeToolCall fires when a tool invocation is recorded.
	EventTypeToolCall
	// EventTypeToolResult fires when the CLI echoes a tool's result back.
	EventTypeToolResult
	// EventTypeDelegation fires when work is handed to a sub-agent.
	EventTypeDelegation
	// EventTypeWarning fires for non-fatal irregularities.
	EventTypeWarning
	// EventTypeComplete fires exactly once, when the outcome is decided.
	EventTypeComplete
	// EventTypeError fires on session errors.
	EventTypeError
)

// Event is the interface for all session events.
type Event interface {
	Type() EventType
}

// ReadyEvent fires when the session is initialized.
type ReadyEvent struct {
	Info Info
}

// Type returns the event type.
func (e ReadyEvent) Type() EventType { return EventTypeReady }

// TextEvent contains an assistant text fragment and the transcript so far.
type TextEvent struct {
	Text     string
	FullText string
}

// Type returns the event type.
func (e TextEvent) Type() EventType { return EventTypeText }

// ThinkingEvent contains a reasoning fragment.
type ThinkingEvent struct {
	Thinking string
}

// Type returns the event type.
func (e ThinkingEvent) Type() EventType { return EventTypeThinking }

// ToolCallEvent fires when a tool invocation is appended to the usage log.
type ToolCallEvent struct {
	Invocation ToolInvocation
}

// Type returns the event type.
func (e ToolCallEvent) Type() EventType { return EventTypeToolCall }

// ToolResultEvent carries a tool execution result the CLI echoed back. It is
// observability only; results do not change the usage log.
type ToolResultEvent struct {
	ToolUseID string
	Content   string
	IsError   bool
}

// Type returns the event type.
func (e ToolResultEvent) Type() EventType { return EventTypeToolResult }

// DelegationEvent fires when the agent hands work to a named sub-agent.
type DelegationEvent struct {
	Delegation Delegation
}

// Type returns the event type.
func (e DelegationEvent) Type() EventType { return EventTypeDelegation }

// WarningEvent flags a non-fatal irregularity, such as an invocation of a
// tool that was never declared.
type WarningEvent struct {
	Warning Warning
}

// Type returns the event type.
func (e WarningEvent) Type() EventType { return EventTypeWarning }

// CompleteEvent fires exactly once, carrying the session's final outcome.
type CompleteEvent struct {
	Outcome *Outcome
}

// Type returns the event type.
func (e CompleteEvent) Type() EventType { return EventTypeComplete }

// ErrorEvent contains session errors.
type ErrorEvent struct {
	Error   error
	Context string
}

// Type returns the event type.
func (e ErrorEvent) Type() EventType { return EventTypeError }
