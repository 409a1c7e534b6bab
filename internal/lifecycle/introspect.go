package lifecycle

import (
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero"

	"github.com/wassette/wassette/internal/schema"
	"github.com/wassette/wassette/internal/wasmtypes"
)

// interfaceSectionName is the custom wasm section a component carries
// its typed export signatures and WIT documentation strings under.
// Real component-model tooling derives this from the binary's type
// section via the canonical ABI; this core reads it directly so the
// schema bridge never has to parse the component binary format itself.
const interfaceSectionName = "wassette:interface"

// describedFunction is the on-disk shape of one entry in the
// wassette:interface custom section.
type describedFunction struct {
	Name    string              `json:"name"`
	Doc     string              `json:"doc"`
	Params  []wasmtypes.Field   `json:"params"`
	Results []*wasmtypes.Type   `json:"results"`
}

// exportedFunctions reads and validates the wassette:interface custom
// section of a compiled module, returning one wasmtypes.Function per
// declared export.
func exportedFunctions(module wazero.CompiledModule) ([]*wasmtypes.Function, error) {
	var raw []byte
	for _, section := range module.CustomSections() {
		if section.Name() == interfaceSectionName {
			raw = section.Data()
			break
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("component does not carry a %s section", interfaceSectionName)
	}

	var described []describedFunction
	if err := json.Unmarshal(raw, &described); err != nil {
		return nil, fmt.Errorf("parse %s section: %w", interfaceSectionName, err)
	}

	fns := make([]*wasmtypes.Function, 0, len(described))
	for _, d := range described {
		if d.Name == "" {
			return nil, fmt.Errorf("%s: function with empty name", interfaceSectionName)
		}
		fns = append(fns, &wasmtypes.Function{
			Name:    d.Name,
			Doc:     d.Doc,
			Params:  d.Params,
			Results: d.Results,
		})
	}
	return fns, nil
}

// toolsFor projects a component's exported functions into MCP tool
// descriptors, prefixing names with componentID on collision with an
// already-registered name (spec §3's tool-descriptor collision policy).
func toolsFor(componentID string, fns []*wasmtypes.Function, taken map[string]bool) ([]ToolDescriptor, error) {
	tools := make([]ToolDescriptor, 0, len(fns))
	for _, fn := range fns {
		input, err := schema.InputSchema(fn)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", fn.Name, err)
		}
		output, err := schema.OutputSchema(fn)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", fn.Name, err)
		}

		name := fn.Name
		if taken[name] {
			name = componentID + "__" + fn.Name
		}

		tools = append(tools, ToolDescriptor{
			Name:         name,
			Description:  schema.Describe(fn),
			InputSchema:  input,
			OutputSchema: output,
			Params:       fn.Params,
			Results:      fn.Results,
			ComponentID:  componentID,
			Export:       fn.Name,
		})
	}
	return tools, nil
}
