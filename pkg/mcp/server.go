package mcp

import (
	"context"
	"encoding/json"
)

// HandleRequest dispatches one decoded JSON-RPC request. A request with
// a nil ID is a notification: it returns a zero JSONRPCResponse the
// caller must not write back.
func (s *MCP) HandleRequest(ctx context.Context, request JSONRPCRequest) JSONRPCResponse {
	if request.ID == nil {
		s.handleNotification(request.Method, request.Params)
		return JSONRPCResponse{}
	}

	switch request.Method {
	case "initialize":
		if request.Params != nil {
			return s.handleInitialize(request.ID, request.Params)
		}
		return s.createErrorResponse(request.ID, -32602, "Missing params")
	case "tools/list":
		return s.handleToolsList(request.ID)
	case "tools/call":
		if request.Params != nil {
			return s.handleToolsCall(ctx, request.ID, request.Params)
		}
		return s.createErrorResponse(request.ID, -32602, "Missing params")
	case "ping":
		return s.handlePing(request.ID)
	default:
		return s.createErrorResponse(request.ID, -32601, "Method not found: "+request.Method)
	}
}

func (s *MCP) handleNotification(method string, params json.RawMessage) {
	switch method {
	case "notifications/initialized":
		s.handleInitialized()
	}
}

func (s *MCP) handlePing(id any) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  map[string]any{},
	}
}

func (s *MCP) createErrorResponse(id any, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}

// ToolsListChangedNotification is the server-initiated notification
// emitted after any component table mutation (spec §5, §9).
func ToolsListChangedNotification() JSONRPCRequest {
	return JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "notifications/tools/list_changed",
	}
}
