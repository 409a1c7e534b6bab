package lifecycle

import (
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tetratelabs/wazero"

	"github.com/wassette/wassette/internal/policy"
	"github.com/wassette/wassette/internal/sandbox"
	"github.com/wassette/wassette/internal/wasmtypes"
)

// ToolDescriptor is what the MCP surface advertises for one exported
// function of a loaded component. Params/Results carry the same
// signature InputSchema/OutputSchema were projected from, so Invoke can
// run the value codec (internal/schema) against the real component
// types rather than passing JSON through unchecked.
type ToolDescriptor struct {
	Name         string
	Description  string
	InputSchema  *jsonschema.Schema
	OutputSchema *jsonschema.Schema
	Params       []wasmtypes.Field
	Results      []*wasmtypes.Type
	ComponentID  string
	Export       string
}

// ComponentRecord is the per-loaded-component state held in the
// manager's table. mu guards Policy, Recipe, Tools, Module, and
// Runtime against concurrent mutation; ID, URI, Data, and LoadedAt are
// immutable after Load and safe to read without holding mu.
//
// Module and Runtime are paired: a wazero.CompiledModule can only be
// instantiated on the wazero.Runtime that compiled it, so whenever a
// policy mutation changes the effective memory limit (recipe.MemoryLimit,
// enforced via the runtime's WithMemoryLimitPages), both are rebuilt
// together from Data and swapped in atomically.
type ComponentRecord struct {
	ID   string
	URI  string
	Data []byte

	mu      sync.RWMutex
	Policy  *policy.Policy
	Recipe  *sandbox.Recipe
	Tools   []ToolDescriptor
	Module  wazero.CompiledModule
	Runtime wazero.Runtime

	LoadedAt time.Time
}

func (r *ComponentRecord) snapshot() (*policy.Policy, *sandbox.Recipe, []ToolDescriptor) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Policy, r.Recipe, r.Tools
}

func (r *ComponentRecord) runtimeAndModule() (wazero.Runtime, wazero.CompiledModule) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Runtime, r.Module
}

// swapRuntime installs a new policy/recipe/module/runtime and returns
// whatever they replaced, so the caller can close the old module and
// runtime once it is no longer reachable from the table. When module
// and runtime are unchanged from the current ones (the common case, no
// memory-limit change), the "old" values returned are the same objects
// and must not be closed.
func (r *ComponentRecord) swapRuntime(p *policy.Policy, recipe *sandbox.Recipe, module wazero.CompiledModule, runtime wazero.Runtime) (oldModule wazero.CompiledModule, oldRuntime wazero.Runtime) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oldModule, oldRuntime = r.Module, r.Runtime
	r.Policy = p
	r.Recipe = recipe
	r.Module = module
	r.Runtime = runtime
	return oldModule, oldRuntime
}
