package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is one entry of a tools/list response.
type Tool struct {
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	InputSchema  *jsonschema.Schema `json:"inputSchema"`
	OutputSchema *jsonschema.Schema `json:"outputSchema,omitempty"`
}

// ToolContent is one content block of a tools/call result.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolCallResult is the result value of a tools/call response.
type ToolCallResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ToolProvider is the single entry point tools/list and tools/call
// dispatch through; it does not distinguish built-in tools from
// component-exported ones, so callers need not either.
type ToolProvider interface {
	ListTools() []Tool
	CallTool(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error)
}

func (s *MCP) handleToolsList(id any) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  map[string]any{"tools": s.Provider.ListTools()},
	}
}

func (s *MCP) handleToolsCall(ctx context.Context, id any, params json.RawMessage) JSONRPCResponse {
	var callParams struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := decodeJSON(params, &callParams); err != nil {
		return s.createErrorResponse(id, -32602, "Invalid params")
	}
	if len(callParams.Arguments) == 0 {
		callParams.Arguments = json.RawMessage("{}")
	}

	raw, err := s.Provider.CallTool(ctx, callParams.Name, callParams.Arguments)
	if err != nil {
		// Domain failures (unknown tool, invocation error, permission
		// denial) surface as a tool result, not a protocol error.
		return JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      id,
			Result: ToolCallResult{
				Content: []ToolContent{{Type: "text", Text: err.Error()}},
				IsError: true,
			},
		}
	}

	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: ToolCallResult{
			Content: []ToolContent{{Type: "text", Text: string(raw)}},
		},
	}
}
