package tools

import (
	"context"
	"testing"
)

func marker(v string) Handler {
	return func(context.Context, string, map[string]any) (any, error) {
		return v, nil
	}
}

func TestRegistryResolveIsIdempotent(t *testing.T) {
	r, err := NewRegistry(Registration{Name: "a", Handler: marker("a")})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	first, ok := r.Resolve("a")
	if !ok {
		t.Fatalf("Resolve(a) not found")
	}
	second, ok := r.Resolve("a")
	if !ok {
		t.Fatalf("Resolve(a) not found on second lookup")
	}

	v1, _ := first.Handler(context.Background(), "c", nil)
	v2, _ := second.Handler(context.Background(), "c", nil)
	if v1 != v2 {
		t.Fatalf("repeated Resolve returned different handlers: %v vs %v", v1, v2)
	}
}

func TestRegistryUnknownName(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if _, ok := r.Resolve("nope"); ok {
		t.Fatalf("Resolve(nope) found an entry in an empty registry")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		Registration{Name: "dup", Handler: marker("1")},
		Registration{Name: "dup", Handler: marker("2")},
	)
	if err == nil {
		t.Fatalf("expected error for duplicate tool name")
	}
}

func TestRegistryRejectsMissingHandler(t *testing.T) {
	if _, err := NewRegistry(Registration{Name: "broken"}); err == nil {
		t.Fatalf("expected error for registration without handler")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r, err := NewRegistry(
		Registration{Name: "zeta", Handler: marker("z")},
		Registration{Name: "alpha", Handler: marker("a")},
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("Names() = %v, want [alpha zeta]", names)
	}
}

func TestDefinitionsRenderSchema(t *testing.T) {
	r, err := NewRegistry(Registration{
		Name:        "transferCall",
		Description: "Transfer the call.",
		Parameters: []Parameter{
			{Name: "exten", Type: "string", Description: "Target extension.", Required: true},
			{Name: "priority", Type: "integer"},
		},
		Handler: marker("t"),
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	defs := r.Definitions()
	if len(defs) != 1 {
		t.Fatalf("Definitions() len = %d, want 1", len(defs))
	}
	tool := defs[0].TemporaryTool
	if tool.ModelToolName != "transferCall" {
		t.Fatalf("ModelToolName = %q, want %q", tool.ModelToolName, "transferCall")
	}
	if len(tool.DynamicParameters) != 2 {
		t.Fatalf("DynamicParameters len = %d, want 2", len(tool.DynamicParameters))
	}
	exten := tool.DynamicParameters[0]
	if exten.Name != "exten" || !exten.Required || exten.Schema.Type != "string" {
		t.Fatalf("unexpected exten parameter: %+v", exten)
	}
	if exten.Location != "PARAMETER_LOCATION_BODY" {
		t.Fatalf("Location = %q, want PARAMETER_LOCATION_BODY", exten.Location)
	}
}
