package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/wassette/wassette/internal/config"
	"github.com/wassette/wassette/internal/lifecycle"
	"github.com/wassette/wassette/internal/resolver"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	res, err := resolver.New(t.TempDir(), config.Resolver{}, slog.Default())
	if err != nil {
		t.Fatalf("resolver.New: %v", err)
	}
	manager := lifecycle.NewManager(context.Background(), res, nil)
	t.Cleanup(func() { _ = manager.Close(context.Background()) })
	return NewProvider(manager)
}

func TestListToolsIncludesAllBuiltins(t *testing.T) {
	p := newTestProvider(t)
	tools := p.ListTools()
	if len(tools) != len(builtinTools()) {
		t.Fatalf("tools = %d, want %d built-ins (no components loaded)", len(tools), len(builtinTools()))
	}

	names := make(map[string]bool)
	for _, tool := range tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"load-component", "unload-component", "list-components", "get-policy", "reset-permission"} {
		if !names[want] {
			t.Fatalf("missing built-in tool %q", want)
		}
	}
}

func TestCallToolMissingArgument(t *testing.T) {
	p := newTestProvider(t)
	_, err := p.CallTool(context.Background(), "load-component", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error for missing path argument")
	}
}

func TestCallToolUnknownGuestTool(t *testing.T) {
	p := newTestProvider(t)
	_, err := p.CallTool(context.Background(), "nonexistent-tool", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestCallToolListComponentsEmpty(t *testing.T) {
	p := newTestProvider(t)
	raw, err := p.CallTool(context.Background(), "list-components", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("list-components: %v", err)
	}
	var decoded struct {
		Components []any `json:"components"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(decoded.Components) != 0 {
		t.Fatalf("components = %v, want empty", decoded.Components)
	}
}

func TestCallToolGetPolicyNotFound(t *testing.T) {
	p := newTestProvider(t)
	_, err := p.CallTool(context.Background(), "get-policy", json.RawMessage(`{"id":"missing"}`))
	if err == nil {
		t.Fatal("expected NotFound error")
	}
}
