// Package protocol defines the stream-json wire format emitted by agent CLIs
// in one-shot mode: newline-delimited JSON messages discriminated by a type
// tag. The package models only the receive side; sessions never write to the
// CLI in one-shot mode.
package protocol

import "encoding/json"

// MessageType discriminates between message kinds.
type MessageType string

const (
	MessageTypeSystem    MessageType = "system"
	MessageTypeAssistant MessageType = "assistant"
	MessageTypeUser      MessageType = "user"
	MessageTypeResult    MessageType = "result"
)

// Result subtypes reported by the CLI on the terminal message. The set is
// open-ended; consumers must carry unrecognized subtypes through verbatim.
const (
	ResultSubtypeSuccess        = "success"
	ResultSubtypeErrorExecution = "error_during_execution"
	ResultSubtypeErrorMaxTurns  = "error_max_turns"
)

// Message is the interface for all protocol messages.
type Message interface {
	MsgType() MessageType
}

// SystemMessage carries session initialization and other system events.
// The first message of every session is a SystemMessage with subtype "init".
type SystemMessage struct {
	Type           MessageType `json:"type"`
	Subtype        string      `json:"subtype"`
	UUID           string      `json:"uuid,omitempty"`
	SessionID      string      `json:"session_id"`
	Model          string      `json:"model,omitempty"`
	CWD            string      `json:"cwd,omitempty"`
	PermissionMode string      `json:"permissionMode,omitempty"`
	APIKeySource   string      `json:"apiKeySource,omitempty"`
	Tools          []string    `json:"tools,omitempty"`
	Agents         []string    `json:"agents,omitempty"`
	SlashCommands  []string    `json:"slash_commands,omitempty"`
}

// MsgType returns the message type.
func (m SystemMessage) MsgType() MessageType { return MessageTypeSystem }

// IsInit reports whether this is the session initialization message.
func (m SystemMessage) IsInit() bool { return m.Subtype == "init" }

// FlexibleContent is message content that can be either a plain string or an
// array of content blocks. The CLI uses both forms.
type FlexibleContent struct {
	raw json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (fc *FlexibleContent) UnmarshalJSON(data []byte) error {
	fc.raw = data
	return nil
}

// MarshalJSON implements json.Marshaler.
func (fc FlexibleContent) MarshalJSON() ([]byte, error) {
	if fc.raw == nil {
		return []byte("null"), nil
	}
	return fc.raw, nil
}

// IsString reports whether the content is a plain string.
func (fc FlexibleContent) IsString() bool {
	return len(fc.raw) > 0 && fc.raw[0] == '"'
}

// AsString returns the content as a string, if it is one.
func (fc FlexibleContent) AsString() (string, bool) {
	if !fc.IsString() {
		return "", false
	}
	var s string
	if err := json.Unmarshal(fc.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// AsBlocks returns the content as content blocks, if it is an array.
func (fc FlexibleContent) AsBlocks() (ContentBlocks, bool) {
	if fc.IsString() || len(fc.raw) == 0 {
		return nil, false
	}
	var blocks ContentBlocks
	if err := json.Unmarshal(fc.raw, &blocks); err != nil {
		return nil, false
	}
	return blocks, true
}

// MessageContent is the inner message of assistant/user envelopes.
type MessageContent struct {
	ID      string          `json:"id,omitempty"`
	Model   string          `json:"model,omitempty"`
	Role    string          `json:"role"`
	Content FlexibleContent `json:"content"`
	Usage   Usage           `json:"usage,omitempty"`
}

// Usage tracks per-message token usage.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	OutputTokens             int `json:"output_tokens"`
}

// AssistantMessage is a complete assistant message. ParentToolUseID is set
// when the message was produced inside a delegated sub-agent context.
type AssistantMessage struct {
	ParentToolUseID *string        `json:"parent_tool_use_id"`
	Type            MessageType    `json:"type"`
	SessionID       string         `json:"session_id"`
	UUID            string         `json:"uuid,omitempty"`
	Message         MessageContent `json:"message"`
}

// MsgType returns the message type.
func (m AssistantMessage) MsgType() MessageType { return MessageTypeAssistant }

// UserMessage carries tool results the CLI echoes back after executing a
// tool on the assistant's behalf.
type UserMessage struct {
	ParentToolUseID *string        `json:"parent_tool_use_id"`
	Type            MessageType    `json:"type"`
	SessionID       string         `json:"session_id"`
	UUID            string         `json:"uuid,omitempty"`
	Message         MessageContent `json:"message"`
}

// MsgType returns the message type.
func (m UserMessage) MsgType() MessageType { return MessageTypeUser }

// UsageDetails is the cumulative usage reported on the terminal message.
type UsageDetails struct {
	ServiceTier              string `json:"service_tier,omitempty"`
	InputTokens              int    `json:"input_tokens"`
	CacheCreationInputTokens int    `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int    `json:"cache_read_input_tokens"`
	OutputTokens             int    `json:"output_tokens"`
}

// ResultMessage is the terminal message of a session. Exactly one arrives
// per stream, always last. StructuredOutput is populated only when the
// caller requested a structured result.
type ResultMessage struct {
	Type             MessageType     `json:"type"`
	Subtype          string          `json:"subtype"`
	UUID             string          `json:"uuid,omitempty"`
	SessionID        string          `json:"session_id"`
	IsError          bool            `json:"is_error"`
	Result           string          `json:"result"`
	StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
	TotalCostUSD     float64         `json:"total_cost_usd"`
	NumTurns         int             `json:"num_turns"`
	DurationMs       int64           `json:"duration_ms"`
	DurationAPIMs    int64           `json:"duration_api_ms"`
	Usage            UsageDetails    `json:"usage"`
}

// MsgType returns the message type.
func (m ResultMessage) MsgType() MessageType { return MessageTypeResult }

// Succeeded reports whether the session completed without an upstream error.
func (m ResultMessage) Succeeded() bool {
	return !m.IsError && m.Subtype == ResultSubtypeSuccess
}
