package protocol

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// ParseMessage decodes one wire line into a typed message. Messages with an
// unrecognized type tag return (nil, nil): newer CLI versions add message
// kinds and a consumer must not choke on them. Malformed JSON is an error.
func ParseMessage(line []byte) (Message, error) {
	var probe struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, fmt.Errorf("parse message envelope: %w", err)
	}

	switch probe.Type {
	case MessageTypeSystem:
		var m SystemMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("parse system message: %w", err)
		}
		return &m, nil
	case MessageTypeAssistant:
		var m AssistantMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("parse assistant message: %w", err)
		}
		return &m, nil
	case MessageTypeUser:
		var m UserMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("parse user message: %w", err)
		}
		return &m, nil
	case MessageTypeResult:
		var m ResultMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("parse result message: %w", err)
		}
		return &m, nil
	default:
		slog.Debug("skipping unknown message type", "type", probe.Type)
		return nil, nil
	}
}
