package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rakunlabs/ada"
	mcors "github.com/rakunlabs/ada/middleware/cors"
	mlog "github.com/rakunlabs/ada/middleware/log"
	mrecover "github.com/rakunlabs/ada/middleware/recover"
	mrequestid "github.com/rakunlabs/ada/middleware/requestid"
	mserver "github.com/rakunlabs/ada/middleware/server"
	mtelemetry "github.com/rakunlabs/ada/middleware/telemetry"

	"github.com/wassette/wassette/internal/config"
	wiremcp "github.com/wassette/wassette/pkg/mcp"
)

// SSE serves the MCP message set over HTTP: clients connect to /sse for
// the server-to-client stream and POST to /messages for the
// client-to-server direction. Every session shares the one *mcp.MCP
// (and, through it, the one component table) but gets its own outbound
// queue (spec §4.7).
type SSE struct {
	cfg    config.SSEServer
	server *wiremcp.MCP
	mux    *ada.Server

	mu       sync.RWMutex
	sessions map[string]chan wiremcp.JSONRPCResponse
}

func NewSSE(cfg config.SSEServer, mcpServer *wiremcp.MCP) *SSE {
	s := &SSE{
		cfg:      cfg,
		server:   mcpServer,
		sessions: make(map[string]chan wiremcp.JSONRPCResponse),
	}

	mux := ada.New()
	mux.Use(
		mrecover.Middleware(),
		mserver.Middleware(config.Service),
		mcors.Middleware(),
		mrequestid.Middleware(),
		mlog.Middleware(),
		mtelemetry.Middleware(),
	)
	mux.GET("/sse", s.handleStream)
	mux.POST("/messages", s.handleMessage)

	s.mux = mux
	return s
}

func (s *SSE) Run(ctx context.Context) error {
	return s.mux.StartWithContext(ctx, net.JoinHostPort(s.cfg.Host, s.cfg.Port))
}

// Notify fans a server-initiated notification out to every connected
// session (spec §5: observed by all connected clients).
func (s *SSE) Notify(notification wiremcp.JSONRPCRequest) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, queue := range s.sessions {
		select {
		case queue <- wiremcp.JSONRPCResponse{JSONRPC: notification.JSONRPC, Result: notification}:
		default:
			slog.Warn("sse: session queue full, dropping notification")
		}
	}
}

func (s *SSE) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sessionID := uuid.NewString()
	queue := make(chan wiremcp.JSONRPCResponse, 64)

	s.mu.Lock()
	s.sessions[sessionID] = queue
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: endpoint\ndata: /messages?sessionId=%s\n\n", sessionID)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-queue:
			data, err := json.Marshal(msg)
			if err != nil {
				slog.Error("sse: marshal message", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *SSE) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")

	s.mu.RLock()
	queue, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	var request wiremcp.JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "parse error", http.StatusBadRequest)
		return
	}

	response := s.server.HandleRequest(r.Context(), request)
	w.WriteHeader(http.StatusAccepted)

	if response.ID == nil && response.Result == nil && response.Error == nil {
		return
	}

	select {
	case queue <- response:
	default:
		slog.Warn("sse: session queue full, dropping response", "session", sessionID)
	}
}
