package protocol

import (
	"errors"
	"testing"
)

func TestParseCallStarted(t *testing.T) {
	msg, err := ParseServerMessage([]byte(`{"type":"call_started","callId":"call-123"}`))
	if err != nil {
		t.Fatalf("ParseServerMessage() error = %v", err)
	}
	started, ok := msg.(CallStarted)
	if !ok {
		t.Fatalf("message type = %T, want CallStarted", msg)
	}
	if started.CallID != "call-123" {
		t.Fatalf("CallID = %q, want %q", started.CallID, "call-123")
	}
}

func TestParseClientToolInvocation(t *testing.T) {
	raw := []byte(`{"type":"client_tool_invocation","toolName":"transferCall","invocationId":"inv-1","parameters":{"exten":"201","priority":2}}`)
	msg, err := ParseServerMessage(raw)
	if err != nil {
		t.Fatalf("ParseServerMessage() error = %v", err)
	}
	inv, ok := msg.(ClientToolInvocation)
	if !ok {
		t.Fatalf("message type = %T, want ClientToolInvocation", msg)
	}
	if inv.ToolName != "transferCall" || inv.InvocationID != "inv-1" {
		t.Fatalf("unexpected invocation: %+v", inv)
	}
	if inv.Parameters["exten"] != "201" {
		t.Fatalf("exten = %v, want %q", inv.Parameters["exten"], "201")
	}
}

func TestParseInvocationRequiresNameAndID(t *testing.T) {
	_, err := ParseServerMessage([]byte(`{"type":"client_tool_invocation","parameters":{}}`))
	if err == nil {
		t.Fatalf("expected error for invocation without toolName and invocationId")
	}
}

func TestParseTranscript(t *testing.T) {
	raw := []byte(`{"type":"transcript","role":"agent","medium":"voice","text":"hello","final":true}`)
	msg, err := ParseServerMessage(raw)
	if err != nil {
		t.Fatalf("ParseServerMessage() error = %v", err)
	}
	tr, ok := msg.(Transcript)
	if !ok {
		t.Fatalf("message type = %T, want Transcript", msg)
	}
	if !tr.Final || tr.Role != "agent" || tr.Text != "hello" {
		t.Fatalf("unexpected transcript: %+v", tr)
	}
}

func TestParsePlaybackClearBuffer(t *testing.T) {
	msg, err := ParseServerMessage([]byte(`{"type":"playback_clear_buffer"}`))
	if err != nil {
		t.Fatalf("ParseServerMessage() error = %v", err)
	}
	if _, ok := msg.(PlaybackClearBuffer); !ok {
		t.Fatalf("message type = %T, want PlaybackClearBuffer", msg)
	}
}

func TestParseUnknownType(t *testing.T) {
	_, err := ParseServerMessage([]byte(`{"type":"pong"}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("error = %v, want ErrUnknownType", err)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := ParseServerMessage([]byte(`{nope`))
	if err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
	if errors.Is(err, ErrUnknownType) {
		t.Fatalf("invalid JSON should not map to ErrUnknownType: %v", err)
	}
}
