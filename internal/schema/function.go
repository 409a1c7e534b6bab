package schema

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wassette/wassette/internal/wasmtypes"
)

// InputSchema projects a function's parameter list onto the single
// object schema MCP expects for a tool's inputSchema: one property per
// parameter, all required, no extra keys tolerated.
func InputSchema(fn *wasmtypes.Function) (*jsonschema.Schema, error) {
	props := make(map[string]*jsonschema.Schema, len(fn.Params))
	required := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		ps, err := Project(p.Type)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		props[p.Name] = ps
		required = append(required, p.Name)
	}
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: falseSchema(),
	}, nil
}

// OutputSchema projects a function's result list. Zero results yields
// nil (no structured output advertised); one result is projected
// directly; more than one is wrapped as a tuple, matching how the
// canonical ABI already treats multi-value returns.
func OutputSchema(fn *wasmtypes.Function) (*jsonschema.Schema, error) {
	switch len(fn.Results) {
	case 0:
		return nil, nil
	case 1:
		return Project(fn.Results[0])
	default:
		return Project(&wasmtypes.Type{Kind: wasmtypes.Tuple, Items: fn.Results})
	}
}
