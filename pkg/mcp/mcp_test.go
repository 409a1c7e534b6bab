package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
)

type stubProvider struct {
	tools []Tool
	err   error
}

func (p *stubProvider) ListTools() []Tool { return p.tools }

func (p *stubProvider) CallTool(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error) {
	if p.err != nil {
		return nil, p.err
	}
	return json.RawMessage(`"ok: ` + name + `"`), nil
}

func TestHandleInitialize(t *testing.T) {
	s := New(&stubProvider{}, "wassette", "0.1.0")
	resp := s.HandleRequest(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params:  json.RawMessage(`{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"test","version":"1"}}`),
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(InitializeResult)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	if !result.Capabilities.Tools.ListChanged {
		t.Fatal("expected tools.listChanged = true")
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New(&stubProvider{tools: []Tool{{Name: "fetch", InputSchema: &jsonschema.Schema{Type: "object"}}}}, "wassette", "0.1.0")
	resp := s.HandleRequest(context.Background(), JSONRPCRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})
	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	tools, ok := result["tools"].([]Tool)
	if !ok || len(tools) != 1 || tools[0].Name != "fetch" {
		t.Fatalf("tools = %v", result["tools"])
	}
}

func TestHandleToolsCallSuccess(t *testing.T) {
	s := New(&stubProvider{}, "wassette", "0.1.0")
	resp := s.HandleRequest(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      3,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"fetch","arguments":{}}`),
	})
	result, ok := resp.Result.(ToolCallResult)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	if result.IsError {
		t.Fatal("expected isError = false")
	}
	if len(result.Content) != 1 || result.Content[0].Text != `"ok: fetch"` {
		t.Fatalf("content = %v", result.Content)
	}
}

func TestHandleToolsCallDomainError(t *testing.T) {
	s := New(&stubProvider{err: errors.New("component not found")}, "wassette", "0.1.0")
	resp := s.HandleRequest(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      4,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"missing","arguments":{}}`),
	})
	result, ok := resp.Result.(ToolCallResult)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	if !result.IsError {
		t.Fatal("expected isError = true")
	}
}

func TestHandleNotificationNoResponse(t *testing.T) {
	s := New(&stubProvider{}, "wassette", "0.1.0")
	resp := s.HandleRequest(context.Background(), JSONRPCRequest{JSONRPC: "2.0", Method: "notifications/initialized"})
	if resp.ID != nil || resp.Result != nil || resp.Error != nil {
		t.Fatalf("expected empty response, got %+v", resp)
	}
}

func TestUnknownMethod(t *testing.T) {
	s := New(&stubProvider{}, "wassette", "0.1.0")
	resp := s.HandleRequest(context.Background(), JSONRPCRequest{JSONRPC: "2.0", ID: 5, Method: "resources/list"})
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected method not found error, got %+v", resp.Error)
	}
}
