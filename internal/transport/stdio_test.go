package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	wiremcp "github.com/wassette/wassette/pkg/mcp"
)

type stubProvider struct{}

func (stubProvider) ListTools() []wiremcp.Tool { return nil }

func (stubProvider) CallTool(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`"ok"`), nil
}

func TestStdioRunDispatchesEachLine(t *testing.T) {
	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","clientInfo":{"name":"test","version":"1"}}}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n",
	)
	var out bytes.Buffer

	server := wiremcp.New(stubProvider{}, "wassette", "test")
	stdio := NewStdio(server, in, &out)

	if err := stdio.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d response lines, want 2: %q", len(lines), out.String())
	}

	var resp1 wiremcp.JSONRPCResponse
	if err := json.Unmarshal([]byte(lines[0]), &resp1); err != nil {
		t.Fatalf("decode response 1: %v", err)
	}
	if resp1.Error != nil {
		t.Fatalf("response 1 error: %+v", resp1.Error)
	}

	var resp2 wiremcp.JSONRPCResponse
	if err := json.Unmarshal([]byte(lines[1]), &resp2); err != nil {
		t.Fatalf("decode response 2: %v", err)
	}
	if resp2.Error != nil {
		t.Fatalf("response 2 error: %+v", resp2.Error)
	}
}

func TestStdioRunSkipsBlankLines(t *testing.T) {
	in := strings.NewReader("\n\n" + `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n\n")
	var out bytes.Buffer

	server := wiremcp.New(stubProvider{}, "wassette", "test")
	stdio := NewStdio(server, in, &out)

	if err := stdio.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d response lines, want 1: %q", len(lines), out.String())
	}
}

func TestStdioRunMalformedLineGetsParseError(t *testing.T) {
	in := strings.NewReader(`{not valid json` + "\n")
	var out bytes.Buffer

	server := wiremcp.New(stubProvider{}, "wassette", "test")
	stdio := NewStdio(server, in, &out)

	if err := stdio.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var resp wiremcp.JSONRPCResponse
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Fatalf("response = %+v, want code -32700", resp.Error)
	}
}

func TestStdioNotifyWritesLine(t *testing.T) {
	var out bytes.Buffer
	server := wiremcp.New(stubProvider{}, "wassette", "test")
	stdio := NewStdio(server, strings.NewReader(""), &out)

	stdio.Notify(wiremcp.ToolsListChangedNotification())

	var notification wiremcp.JSONRPCRequest
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &notification); err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	if notification.Method != "notifications/tools/list_changed" {
		t.Fatalf("method = %q, want notifications/tools/list_changed", notification.Method)
	}
	if notification.ID != nil {
		t.Fatalf("notification has an id: %v", notification.ID)
	}
}
