package tools

import (
	"context"
	"fmt"

	"github.com/antoniostano/voicebridge/internal/amibridge"
)

// Builtin returns the registrations shipped with the bridge: call transfer and
// hangup, both thin pass-throughs to the AMI bridge sidecar. This explicit
// registration step is the single place tools enter the registry.
func Builtin(bridge *amibridge.Client) []Registration {
	return []Registration{
		{
			Name:        "transferCall",
			Description: "Transfer the current call to another extension.",
			Parameters: []Parameter{
				{Name: "exten", Type: "string", Description: "Target extension to transfer the call to.", Required: true},
				{Name: "context", Type: "string", Description: "Dialplan context of the target extension."},
				{Name: "priority", Type: "integer", Description: "Dialplan priority to start at."},
			},
			Handler: func(ctx context.Context, callerID string, params map[string]any) (any, error) {
				exten, _ := params["exten"].(string)
				if exten == "" {
					return nil, fmt.Errorf("missing required parameter exten")
				}
				dialContext, _ := params["context"].(string)
				priority := 0
				if p, ok := params["priority"].(float64); ok {
					priority = int(p)
				}
				msg, err := bridge.Transfer(ctx, callerID, exten, dialContext, priority)
				if err != nil {
					return fmt.Sprintf("transfer failed: %v", err), nil
				}
				return msg, nil
			},
		},
		{
			Name:        "hangupCall",
			Description: "Hang up the current call.",
			Parameters:  nil,
			Handler: func(ctx context.Context, callerID string, _ map[string]any) (any, error) {
				msg, err := bridge.Hangup(ctx, callerID)
				if err != nil {
					return fmt.Sprintf("hangup failed: %v", err), nil
				}
				return msg, nil
			},
		},
	}
}
