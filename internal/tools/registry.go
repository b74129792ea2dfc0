package tools

import (
	"context"
	"fmt"
	"sort"
)

// Handler executes one tool invocation. It may return a plain string or a
// Result; anything else is rejected by the dispatcher as a contract violation.
type Handler func(ctx context.Context, callerID string, params map[string]any) (any, error)

// Result is the structured form a handler may return instead of a bare string.
type Result struct {
	Result       string `json:"result"`
	ResponseType string `json:"responseType"`
}

// Parameter describes one schema entry of a tool's dynamic parameters.
type Parameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Registration binds a tool name to its handler and declared parameter schema.
// Registrations are immutable once handed to NewRegistry.
type Registration struct {
	Name        string
	Description string
	Parameters  []Parameter
	Handler     Handler
}

// Registry is a read-only name->registration map built once at startup and
// shared by every call session.
type Registry struct {
	byName map[string]Registration
}

func NewRegistry(regs ...Registration) (*Registry, error) {
	byName := make(map[string]Registration, len(regs))
	for _, reg := range regs {
		if reg.Name == "" {
			return nil, fmt.Errorf("tool registration with empty name")
		}
		if reg.Handler == nil {
			return nil, fmt.Errorf("tool %q has no handler", reg.Name)
		}
		if _, dup := byName[reg.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", reg.Name)
		}
		byName[reg.Name] = reg
	}
	return &Registry{byName: byName}, nil
}

// Resolve returns the registration for name. The same name always yields the
// same handler; the registry never changes after construction.
func (r *Registry) Resolve(name string) (Registration, bool) {
	reg, ok := r.byName[name]
	return reg, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.byName)
}
