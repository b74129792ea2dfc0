package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies the JSON control frames exchanged on the backend channel.
type MessageType string

const (
	TypeCallStarted          MessageType = "call_started"
	TypeState                MessageType = "state"
	TypeTranscript           MessageType = "transcript"
	TypeClientToolInvocation MessageType = "client_tool_invocation"
	TypePlaybackClearBuffer  MessageType = "playback_clear_buffer"
	TypeError                MessageType = "error"
	TypeClientToolResult     MessageType = "client_tool_result"
)

// ErrUnknownType marks frames with a valid envelope but a type this bridge does
// not handle. Callers should log and continue for forward compatibility.
var ErrUnknownType = errors.New("unknown message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

type CallStarted struct {
	Type   MessageType `json:"type"`
	CallID string      `json:"callId"`
}

type State struct {
	Type  MessageType `json:"type"`
	State string      `json:"state"`
}

type Transcript struct {
	Type   MessageType `json:"type"`
	Role   string      `json:"role"`
	Medium string      `json:"medium"`
	Text   string      `json:"text"`
	Final  bool        `json:"final"`
}

type ClientToolInvocation struct {
	Type         MessageType    `json:"type"`
	ToolName     string         `json:"toolName"`
	InvocationID string         `json:"invocationId"`
	Parameters   map[string]any `json:"parameters"`
}

type PlaybackClearBuffer struct {
	Type MessageType `json:"type"`
}

// ServerError is a backend-reported error event. It does not terminate the
// session by itself.
type ServerError struct {
	Type    MessageType     `json:"type"`
	Detail  json.RawMessage `json:"detail,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ClientToolResult is the only control frame this bridge sends. Exactly one is
// emitted per invocation, success or error, always carrying the invocation ID.
type ClientToolResult struct {
	Type         MessageType `json:"type"`
	InvocationID string      `json:"invocationId"`
	Result       string      `json:"result,omitempty"`
	ResponseType string      `json:"responseType,omitempty"`
	ErrorType    string      `json:"errorType,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
}

// ParseServerMessage decodes a text frame received from the backend channel.
// Unparseable frames are protocol violations; unknown types are wrapped in
// ErrUnknownType so callers can tell the two apart.
func ParseServerMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeCallStarted:
		var msg CallStarted
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeState:
		var msg State
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeTranscript:
		var msg Transcript
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeClientToolInvocation:
		var msg ClientToolInvocation
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.ToolName == "" || msg.InvocationID == "" {
			return nil, errors.New("invalid client_tool_invocation")
		}
		return msg, nil
	case TypePlaybackClearBuffer:
		var msg PlaybackClearBuffer
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeError:
		var msg ServerError
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}
