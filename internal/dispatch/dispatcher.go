package dispatch

import (
	"context"
	"fmt"
	"log"

	"github.com/antoniostano/voicebridge/internal/observability"
	"github.com/antoniostano/voicebridge/internal/protocol"
	"github.com/antoniostano/voicebridge/internal/tools"
)

const (
	errorTypeUndefined      = "undefined"
	errorTypeImplementation = "implementation-error"
	responseTypeDefault     = "tool-response"

	contractViolationMessage = "tool result must be a string or an object with string result and responseType properties."
)

// Sender is the outbound half of the backend channel the dispatcher answers on.
type Sender interface {
	SendControl(msg any) error
}

// Dispatcher executes tool invocations against the registry and always answers
// each one with exactly one client_tool_result, success or error. A handler
// failure never terminates the call.
type Dispatcher struct {
	registry *tools.Registry
	metrics  *observability.Metrics
}

func New(registry *tools.Registry, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{registry: registry, metrics: metrics}
}

// Dispatch runs one invocation to completion and sends its result. Safe to run
// on its own goroutine; results of concurrent invocations may interleave.
func (d *Dispatcher) Dispatch(ctx context.Context, callerID string, inv protocol.ClientToolInvocation, out Sender) {
	result := d.run(ctx, callerID, inv)
	if err := out.SendControl(result); err != nil {
		log.Printf("call %s: sending tool result for %s failed: %v", callerID, inv.InvocationID, err)
	}
}

func (d *Dispatcher) run(ctx context.Context, callerID string, inv protocol.ClientToolInvocation) protocol.ClientToolResult {
	reg, ok := d.registry.Resolve(inv.ToolName)
	if !ok {
		d.metrics.ToolInvocations.WithLabelValues("undefined").Inc()
		return protocol.ClientToolResult{
			Type:         protocol.TypeClientToolResult,
			InvocationID: inv.InvocationID,
			ErrorType:    errorTypeUndefined,
			ErrorMessage: fmt.Sprintf("tool %q is not registered", inv.ToolName),
		}
	}

	value, err := invoke(ctx, reg.Handler, callerID, inv.Parameters)
	if err != nil {
		d.metrics.ToolInvocations.WithLabelValues("error").Inc()
		log.Printf("call %s: tool %s failed: %v", callerID, inv.ToolName, err)
		return protocol.ClientToolResult{
			Type:         protocol.TypeClientToolResult,
			InvocationID: inv.InvocationID,
			ResponseType: responseTypeDefault,
			ErrorType:    errorTypeImplementation,
			ErrorMessage: err.Error(),
		}
	}

	result, ok := normalize(value)
	if !ok {
		d.metrics.ToolInvocations.WithLabelValues("contract_violation").Inc()
		return protocol.ClientToolResult{
			Type:         protocol.TypeClientToolResult,
			InvocationID: inv.InvocationID,
			ResponseType: responseTypeDefault,
			ErrorType:    errorTypeImplementation,
			ErrorMessage: contractViolationMessage,
		}
	}

	d.metrics.ToolInvocations.WithLabelValues("ok").Inc()
	result.Type = protocol.TypeClientToolResult
	result.InvocationID = inv.InvocationID
	return result
}

// invoke shields the relay from handler panics; a panicking tool is reported
// like any other failed one.
func invoke(ctx context.Context, h tools.Handler, callerID string, params map[string]any) (value any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tool panicked: %v", p)
		}
	}()
	return h(ctx, callerID, params)
}

// normalize maps the handler's raw return value onto the wire result schema.
// A bare string is a success; a structured value must carry string result and
// responseType fields; anything else violates the handler contract.
func normalize(value any) (protocol.ClientToolResult, bool) {
	switch v := value.(type) {
	case string:
		return protocol.ClientToolResult{Result: v, ResponseType: responseTypeDefault}, true
	case tools.Result:
		if v.ResponseType == "" {
			return protocol.ClientToolResult{}, false
		}
		return protocol.ClientToolResult{Result: v.Result, ResponseType: v.ResponseType}, true
	case map[string]any:
		text, textOK := v["result"].(string)
		if !textOK {
			text, textOK = v["responseText"].(string)
		}
		responseType, typeOK := v["responseType"].(string)
		if !textOK || !typeOK {
			return protocol.ClientToolResult{}, false
		}
		return protocol.ClientToolResult{Result: text, ResponseType: responseType}, true
	default:
		return protocol.ClientToolResult{}, false
	}
}
