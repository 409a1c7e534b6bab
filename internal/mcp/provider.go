// Package mcp wires the lifecycle manager and the built-in management
// tools into a single tool surface consumed by the pkg/mcp dispatcher.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wassette/wassette/internal/lifecycle"
	wiremcp "github.com/wassette/wassette/pkg/mcp"
)

// Provider implements wiremcp.ToolProvider over a lifecycle.Manager: it
// advertises the fixed built-in tools alongside whatever guest tools
// are currently loaded, and dispatches tools/call to whichever side
// owns the name (spec §4.6 — "the dispatcher chooses").
type Provider struct {
	manager  *lifecycle.Manager
	builtins map[string]builtinTool
}

func NewProvider(manager *lifecycle.Manager) *Provider {
	builtins := make(map[string]builtinTool)
	for _, b := range builtinTools() {
		builtins[b.Name] = b
	}
	return &Provider{manager: manager, builtins: builtins}
}

func (p *Provider) ListTools() []wiremcp.Tool {
	tools := make([]wiremcp.Tool, 0, len(p.builtins))
	for _, b := range p.builtins {
		tools = append(tools, wiremcp.Tool{
			Name:        b.Name,
			Description: b.Description,
			InputSchema: b.InputSchema,
		})
	}

	for _, t := range p.manager.AllTools() {
		tools = append(tools, wiremcp.Tool{
			Name:         t.Name,
			Description:  t.Description,
			InputSchema:  t.InputSchema,
			OutputSchema: t.OutputSchema,
		})
	}

	return tools
}

func (p *Provider) CallTool(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error) {
	if b, ok := p.builtins[name]; ok {
		var args map[string]any
		if len(arguments) > 0 {
			if err := json.Unmarshal(arguments, &args); err != nil {
				return nil, fmt.Errorf("decode arguments: %w", err)
			}
		}
		text, err := b.Handler(ctx, p.manager, args)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	}

	return p.manager.Invoke(ctx, name, arguments)
}
