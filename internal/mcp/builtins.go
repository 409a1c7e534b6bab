package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wassette/wassette/internal/lifecycle"
)

// builtinTool is one of the fixed management tools wassette advertises
// alongside whatever guest tools are currently loaded (spec §4.6).
type builtinTool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     func(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error)
}

func builtinTools() []builtinTool {
	return []builtinTool{
		{
			Name:        "load-component",
			Description: "Load a WebAssembly component from a file, HTTP(S), or OCI URI and register its exports as tools.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"path": stringProp("Component location: file://, http(s)://, or oci://registry/repo[:tag]."),
			}, "path"),
			Handler: handleLoadComponent,
		},
		{
			Name:        "unload-component",
			Description: "Unload a previously loaded component and remove its tools.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id": stringProp("Component id, as returned by load-component."),
			}, "id"),
			Handler: handleUnloadComponent,
		},
		{
			Name:        "list-components",
			Description: "List every loaded component with its tools and attached policy.",
			InputSchema: emptyObjectSchema(),
			Handler:     handleListComponents,
		},
		{
			Name:        "get-policy",
			Description: "Return the capability policy currently attached to a component.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id": stringProp("Component id."),
			}, "id"),
			Handler: handleGetPolicy,
		},
		{
			Name:        "grant-storage-permission",
			Description: "Add a filesystem allow-list entry to a component's policy.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id":     stringProp("Component id."),
				"uri":    stringProp(`Glob-capable filesystem URI, e.g. "fs:///data/**".`),
				"access": stringArrayProp(`Subset of ["read","write"].`),
			}, "id", "uri", "access"),
			Handler: handleGrantStorage,
		},
		{
			Name:        "revoke-storage-permission",
			Description: "Remove a filesystem allow-list entry from a component's policy.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id":  stringProp("Component id."),
				"uri": stringProp("Filesystem URI matching a previously granted rule."),
			}, "id", "uri"),
			Handler: handleRevokeStorage,
		},
		{
			Name:        "grant-network-permission",
			Description: "Add a host to a component's outbound-network allow-list.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id":   stringProp("Component id."),
				"host": stringProp("Hostname to allow."),
			}, "id", "host"),
			Handler: handleGrantNetwork,
		},
		{
			Name:        "revoke-network-permission",
			Description: "Remove a host from a component's outbound-network allow-list.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id":   stringProp("Component id."),
				"host": stringProp("Hostname to remove."),
			}, "id", "host"),
			Handler: handleRevokeNetwork,
		},
		{
			Name:        "grant-environment-variable-permission",
			Description: "Add an environment variable key pattern to a component's policy.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id":  stringProp("Component id."),
				"key": stringProp(`Environment key or glob, e.g. "AWS_*".`),
			}, "id", "key"),
			Handler: handleGrantEnvironment,
		},
		{
			Name:        "revoke-environment-variable-permission",
			Description: "Remove an environment variable key pattern from a component's policy.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id":  stringProp("Component id."),
				"key": stringProp("Environment key or glob to remove."),
			}, "id", "key"),
			Handler: handleRevokeEnvironment,
		},
		{
			Name:        "grant-memory-permission",
			Description: "Set a component's linear memory limit.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id":    stringProp("Component id."),
				"limit": stringProp(`Kubernetes-style quantity, e.g. "512Mi".`),
			}, "id", "limit"),
			Handler: handleGrantMemory,
		},
		{
			Name:        "revoke-memory-permission",
			Description: "Clear a component's linear memory limit.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id": stringProp("Component id."),
			}, "id"),
			Handler: handleRevokeMemory,
		},
		{
			Name:        "reset-permission",
			Description: "Re-attach the empty default (all-deny) policy to a component.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"id": stringProp("Component id."),
			}, "id"),
			Handler: handleResetPermission,
		},
	}
}

func handleLoadComponent(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	path, err := argString(args, "path")
	if err != nil {
		return "", err
	}

	result, err := m.Load(ctx, path, nil)
	if err != nil {
		return "", err
	}
	if result.Reloaded {
		return fmt.Sprintf("component %q reloaded successfully", result.ID), nil
	}
	return fmt.Sprintf("component %q loaded successfully", result.ID), nil
}

func handleUnloadComponent(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	if err := m.Unload(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("component %q unloaded", id), nil
}

func handleListComponents(_ context.Context, m *lifecycle.Manager, _ map[string]any) (string, error) {
	type componentView struct {
		ID     string                   `json:"id"`
		URI    string                   `json:"uri"`
		Tools  []string                 `json:"tools"`
		Policy json.RawMessage          `json:"policy,omitempty"`
	}

	infos := m.List()
	views := make([]componentView, 0, len(infos))
	for _, info := range infos {
		names := make([]string, 0, len(info.Tools))
		for _, t := range info.Tools {
			names = append(names, t.Name)
		}
		polJSON, err := json.Marshal(info.Policy)
		if err != nil {
			return "", fmt.Errorf("marshal policy for %q: %w", info.ID, err)
		}
		views = append(views, componentView{ID: info.ID, URI: info.URI, Tools: names, Policy: polJSON})
	}

	out, err := json.Marshal(map[string]any{"components": views})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func handleGetPolicy(_ context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	pol, err := m.GetPolicy(id)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(pol)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func handleGrantStorage(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	uri, err := argString(args, "uri")
	if err != nil {
		return "", err
	}
	access, err := argStringSlice(args, "access")
	if err != nil {
		return "", err
	}
	if err := m.GrantStorage(ctx, id, uri, access); err != nil {
		return "", err
	}
	return fmt.Sprintf("storage permission granted for %q: %s", id, uri), nil
}

func handleRevokeStorage(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	uri, err := argString(args, "uri")
	if err != nil {
		return "", err
	}
	if err := m.RevokeStorage(ctx, id, uri); err != nil {
		return "", err
	}
	return fmt.Sprintf("storage permission revoked for %q: %s", id, uri), nil
}

func handleGrantNetwork(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	host, err := argString(args, "host")
	if err != nil {
		return "", err
	}
	if err := m.GrantNetwork(ctx, id, host); err != nil {
		return "", err
	}
	return fmt.Sprintf("network permission granted for %q: %s", id, host), nil
}

func handleRevokeNetwork(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	host, err := argString(args, "host")
	if err != nil {
		return "", err
	}
	if err := m.RevokeNetwork(ctx, id, host); err != nil {
		return "", err
	}
	return fmt.Sprintf("network permission revoked for %q: %s", id, host), nil
}

func handleGrantEnvironment(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	key, err := argString(args, "key")
	if err != nil {
		return "", err
	}
	if err := m.GrantEnvironment(ctx, id, key); err != nil {
		return "", err
	}
	return fmt.Sprintf("environment permission granted for %q: %s", id, key), nil
}

func handleRevokeEnvironment(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	key, err := argString(args, "key")
	if err != nil {
		return "", err
	}
	if err := m.RevokeEnvironment(ctx, id, key); err != nil {
		return "", err
	}
	return fmt.Sprintf("environment permission revoked for %q: %s", id, key), nil
}

func handleGrantMemory(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	limit, err := argString(args, "limit")
	if err != nil {
		return "", err
	}
	if err := m.GrantMemory(ctx, id, limit); err != nil {
		return "", err
	}
	return fmt.Sprintf("memory limit set for %q: %s", id, limit), nil
}

func handleRevokeMemory(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	if err := m.RevokeMemory(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("memory limit cleared for %q", id), nil
}

func handleResetPermission(ctx context.Context, m *lifecycle.Manager, args map[string]any) (string, error) {
	id, err := argString(args, "id")
	if err != nil {
		return "", err
	}
	if err := m.ResetPermission(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("policy reset to default for %q", id), nil
}
