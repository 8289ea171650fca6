package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

type fakeTool struct {
	name   string
	result string
	err    error
}

func (f *fakeTool) Name() string                { return f.name }
func (f *fakeTool) Description() string         { return "fake" }
func (f *fakeTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (f *fakeTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	return f.result, f.err
}

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "echo", result: "ok"})

	if got := r.Execute(context.Background(), "echo", nil); got != "ok" {
		t.Errorf("Execute = %q, want %q", got, "ok")
	}
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "echo"})

	got := r.Execute(context.Background(), "missing", nil)
	if !strings.Contains(got, "Unknown tool: missing") {
		t.Errorf("Execute = %q, want unknown-tool message", got)
	}
	if !strings.Contains(got, "echo") {
		t.Errorf("Execute = %q, want available tools listed", got)
	}
}

func TestRegistryExecuteErrorFolded(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "boom", err: fmt.Errorf("it broke")})

	got := r.Execute(context.Background(), "boom", nil)
	if !strings.Contains(got, "it broke") {
		t.Errorf("Execute = %q, want folded error", got)
	}
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "zeta"})
	r.Register(&fakeTool{name: "alpha"})

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}
	if defs[0].Function.Name != "alpha" || defs[1].Function.Name != "zeta" {
		t.Errorf("definitions not sorted: %q, %q", defs[0].Function.Name, defs[1].Function.Name)
	}
	if defs[0].Type != "function" {
		t.Errorf("definition type = %q, want function", defs[0].Type)
	}
}
