package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rakunlabs/into"
	"github.com/rakunlabs/logi"

	"github.com/wassette/wassette/internal/config"
	"github.com/wassette/wassette/internal/lifecycle"
	"github.com/wassette/wassette/internal/mcp"
	"github.com/wassette/wassette/internal/resolver"
	"github.com/wassette/wassette/internal/transport"
	wiremcp "github.com/wassette/wassette/pkg/mcp"
)

var (
	name    = "wassette"
	version = "v0.0.0"
)

func main() {
	config.Service = name + "/" + version

	// Argument shape is validated before into.Init takes over signal
	// handling, so an invalid invocation gets its own exit code (2)
	// rather than being folded into into's fatal-error code (1).
	command, serveArgs, ok := parseArgs(os.Args[1:])
	if !ok {
		usage()
		os.Exit(2)
	}
	if command == "help" {
		usage()
		return
	}

	into.Init(func(ctx context.Context) error {
		return serve(ctx, serveArgs)
	},
		into.WithLogger(logi.InitializeLog(logi.WithCaller(false))),
		into.WithMsgf("%s [%s]", name, version),
	)
}

// parseArgs validates the command verb and returns the resolved
// command plus the arguments serve should see. ok is false for any
// shape other than "serve [--stdio|--sse]" or a help request.
func parseArgs(args []string) (command string, serveArgs []string, ok bool) {
	if len(args) == 0 {
		return "", nil, false
	}

	switch args[0] {
	case "serve":
		rest := args[1:]
		if len(rest) > 1 {
			return "", nil, false
		}
		if len(rest) == 1 && rest[0] != "--stdio" && rest[0] != "--sse" {
			return "", nil, false
		}
		return "serve", rest, true
	case "help", "-h", "--help":
		return "help", nil, true
	default:
		return "", nil, false
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s serve [--stdio|--sse]\n", name)
}

// serve assumes args was already validated by parseArgs: either empty
// (defaulting to --stdio) or exactly one of --stdio/--sse.
func serve(ctx context.Context, args []string) error {
	mode := "--stdio"
	if len(args) > 0 {
		mode = args[0]
	}

	cfg, err := config.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	res, err := resolver.New(cfg.CacheRoot, cfg.Resolver, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to initialize resolver: %w", err)
	}

	var active notifier
	manager := lifecycle.NewManager(ctx, res, func() {
		if active != nil {
			active.Notify(wiremcp.ToolsListChangedNotification())
		}
	})
	defer func() { _ = manager.Close(ctx) }()

	provider := mcp.NewProvider(manager)
	server := wiremcp.New(provider, name, version)

	if cfg.ComponentsDir != "" {
		loadComponentsDir(ctx, manager, cfg.ComponentsDir)
	}

	switch mode {
	case "--stdio":
		stdio := transport.NewStdio(server, os.Stdin, os.Stdout)
		active = stdio
		slog.Info("serving MCP over stdio")
		return stdio.Run(ctx)
	case "--sse":
		sse := transport.NewSSE(cfg.SSE, server)
		active = sse
		slog.Info("serving MCP over sse", "host", cfg.SSE.Host, "port", cfg.SSE.Port)
		return sse.Run(ctx)
	}

	return nil
}

// notifier is implemented by both transports so the lifecycle manager
// can push notifications/tools/list_changed without knowing which one
// is active.
type notifier interface {
	Notify(wiremcp.JSONRPCRequest)
}

// loadComponentsDir loads every *.wasm found directly under dir at
// startup, pairing each with a same-stem *.policy.yaml if present, so
// a restart preserves what was previously loaded.
func loadComponentsDir(ctx context.Context, manager *lifecycle.Manager, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("components directory unreadable, skipping startup load", "dir", dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".wasm") {
			continue
		}

		uri := "file://" + filepath.Join(dir, entry.Name())
		stem := strings.TrimSuffix(entry.Name(), ".wasm")

		var policyDoc []byte
		policyPath := filepath.Join(dir, stem+".policy.yaml")
		if data, err := os.ReadFile(policyPath); err == nil {
			policyDoc = data
		}

		result, err := manager.Load(ctx, uri, policyDoc)
		if err != nil {
			slog.Error("failed to load component at startup", "uri", uri, "error", err)
			continue
		}
		slog.Info("loaded component at startup", "id", result.ID, "uri", uri)
	}
}
