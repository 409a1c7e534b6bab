// Package transport implements the two wire framings wassette accepts
// client connections over: newline-delimited JSON-RPC on stdio, and
// HTTP POST + Server-Sent Events (spec §4.7). Both dispatch through the
// same *mcp.MCP instance, which in turn shares one component table.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	wiremcp "github.com/wassette/wassette/pkg/mcp"
)

// Stdio frames one JSON-RPC message per line on in/out, matching the
// transport every MCP stdio client expects.
type Stdio struct {
	server *wiremcp.MCP
	in     io.Reader
	out    io.Writer
	mu     sync.Mutex
}

func NewStdio(server *wiremcp.MCP, in io.Reader, out io.Writer) *Stdio {
	return &Stdio{server: server, in: in, out: out}
}

// Run reads requests until in is exhausted or ctx is cancelled,
// dispatching each synchronously so responses are emitted in request
// order (spec §5's ordering guarantee).
func (s *Stdio) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var request wiremcp.JSONRPCRequest
		if err := json.Unmarshal(line, &request); err != nil {
			s.writeLine(wiremcp.JSONRPCResponse{
				JSONRPC: "2.0",
				Error:   &wiremcp.JSONRPCError{Code: -32700, Message: "Parse error"},
			})
			continue
		}

		response := s.server.HandleRequest(ctx, request)
		if response.ID == nil && response.Result == nil && response.Error == nil {
			continue
		}
		s.writeLine(response)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdio: read: %w", err)
	}
	return nil
}

// Notify pushes a server-initiated notification (e.g.
// notifications/tools/list_changed) onto the output stream.
func (s *Stdio) Notify(notification wiremcp.JSONRPCRequest) {
	s.writeLine(notification)
}

func (s *Stdio) writeLine(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("stdio: marshal message", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		slog.Error("stdio: write message", "error", err)
	}
}
