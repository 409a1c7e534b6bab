package mcp

import "encoding/json"

// MCP is the JSON-RPC method dispatcher for wassette's surface:
// initialize, tools/list, tools/call, ping, and the server-initiated
// notifications/tools/list_changed push.
type MCP struct {
	Provider      ToolProvider
	ServerName    string
	ServerVersion string
}

func New(provider ToolProvider, serverName, serverVersion string) *MCP {
	return &MCP{
		Provider:      provider,
		ServerName:    serverName,
		ServerVersion: serverVersion,
	}
}

func (s *MCP) handleInitialize(id any, params json.RawMessage) JSONRPCResponse {
	var initParams InitializeParams
	if err := decodeJSON(params, &initParams); err != nil {
		return s.createErrorResponse(id, -32602, "Invalid params")
	}

	result := InitializeResult{
		ProtocolVersion: "2025-06-18",
		Capabilities: Capabilities{
			Tools: &ToolsCapability{ListChanged: true},
		},
		ServerInfo: ServerInfo{
			Name:    s.ServerName,
			Version: s.ServerVersion,
		},
	}

	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

func (s *MCP) handleInitialized() {
	// Client has finished its side of the handshake; wassette has no
	// per-client state to set up in response.
}
