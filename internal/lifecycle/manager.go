// Package lifecycle owns the component table: compiling and
// instantiating components inside their sandbox, tracking their
// attached policy, and serializing mutation against concurrent
// invocation per the readers-writer discipline.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"

	"github.com/wassette/wassette/internal/policy"
	"github.com/wassette/wassette/internal/resolver"
	"github.com/wassette/wassette/internal/sandbox"
	"github.com/wassette/wassette/internal/schema"
	"github.com/wassette/wassette/internal/wasmtypes"
	"github.com/wassette/wassette/internal/wassetteerr"
)

const defaultMutationDeadline = 10 * time.Second

// wasmPageSize is the WebAssembly linear-memory page size (64KiB),
// fixed by the core spec. maxWasmPages is the wasm32 address space
// limit (4GiB) that WithMemoryLimitPages itself is bounded by.
const (
	wasmPageSize = 65536
	maxWasmPages = 65536
)

// NotifyFunc is invoked whenever the table's tool set changes, so the
// MCP surface can emit notifications/tools/list_changed.
type NotifyFunc func()

// Manager is the component table. tableMu guards insert/remove of
// records; each record additionally guards its own policy/recipe/tools
// with its own RWMutex (see ComponentRecord). Each component owns its
// own wazero.Runtime (see newRuntime) rather than sharing one across
// the table, so a component's memory limit (spec §4.4) is enforced by
// the runtime that instantiates it instead of being a purely
// descriptive recipe field.
type Manager struct {
	tableMu sync.RWMutex
	records map[string]*ComponentRecord

	resolver *resolver.Resolver
	notify   NotifyFunc
}

func NewManager(ctx context.Context, res *resolver.Resolver, notify NotifyFunc) *Manager {
	if notify == nil {
		notify = func() {}
	}

	return &Manager{
		records:  make(map[string]*ComponentRecord),
		resolver: res,
		notify:   notify,
	}
}

// Close closes every component's runtime. Errors from individual
// runtimes are joined rather than stopping at the first failure, so
// one misbehaving component can't prevent the rest from shutting down.
func (m *Manager) Close(ctx context.Context) error {
	m.tableMu.Lock()
	defer m.tableMu.Unlock()

	var errs []error
	for _, r := range m.records {
		_, runtime := r.runtimeAndModule()
		if err := runtime.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// memoryLimitPages converts recipe's byte limit to a wazero page
// count, rounding up and clamping to the wasm32 address space. Zero
// means unlimited.
func memoryLimitPages(recipe *sandbox.Recipe) uint32 {
	if recipe == nil || recipe.MemoryLimit == 0 {
		return 0
	}
	pages := (recipe.MemoryLimit + wasmPageSize - 1) / wasmPageSize
	if pages > maxWasmPages {
		pages = maxWasmPages
	}
	if pages == 0 {
		pages = 1
	}
	return uint32(pages)
}

// newRuntime builds a runtime sized to recipe's memory limit (spec
// §4.4: "maximum linear-memory pages enforced at instantiation"). Every
// component gets its own runtime so one component's limit can't be
// loosened or tightened by another's.
func newRuntime(ctx context.Context, recipe *sandbox.Recipe) wazero.Runtime {
	cfg := wazero.NewRuntimeConfig()
	if pages := memoryLimitPages(recipe); pages > 0 {
		cfg = cfg.WithMemoryLimitPages(pages)
	}
	return wazero.NewRuntimeWithConfig(ctx, cfg)
}

// boundedContext caps ctx to timeout unless it already carries a
// tighter deadline, so a policy mutation's trial instantiation can't
// hang indefinitely on a misbehaving component (spec §9).
func boundedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// LoadResult is returned by Load.
type LoadResult struct {
	ID       string
	Reloaded bool
}

// Load resolves uri, compiles and verifies the component, and installs
// (or replaces) its record. A nil policyDoc yields the all-deny
// default policy.
func (m *Manager) Load(ctx context.Context, uri string, policyDoc []byte) (*LoadResult, error) {
	localPath, _, err := m.resolver.Fetch(ctx, uri)
	if err != nil {
		return nil, wassetteerr.New(wassetteerr.Resolve, "Load", err)
	}

	data, err := readArtifact(localPath)
	if err != nil {
		return nil, wassetteerr.New(wassetteerr.Resolve, "Load", err)
	}

	pol := policy.Default()
	if len(policyDoc) > 0 {
		pol, err = policy.Parse(policyDoc)
		if err != nil {
			return nil, wassetteerr.New(wassetteerr.Validation, "Load", err)
		}
	}

	recipe, err := sandbox.Build(pol)
	if err != nil {
		return nil, wassetteerr.New(wassetteerr.Validation, "Load", err)
	}

	runtime := newRuntime(ctx, recipe)

	module, err := runtime.CompileModule(ctx, data)
	if err != nil {
		runtime.Close(ctx)
		return nil, wassetteerr.New(wassetteerr.Compile, "Load", err)
	}

	id := DeriveComponentID(uri)

	fns, err := exportedFunctions(module)
	if err != nil {
		module.Close(ctx)
		runtime.Close(ctx)
		return nil, wassetteerr.New(wassetteerr.Internal, "Load", err)
	}

	tools, err := toolsFor(id, fns, m.takenToolNames(id))
	if err != nil {
		module.Close(ctx)
		runtime.Close(ctx)
		return nil, wassetteerr.New(wassetteerr.Internal, "Load", err)
	}

	// Trial-instantiate to verify the recipe and artifact are sound
	// before the record is installed (spec §4.5).
	cfg := sandbox.ModuleConfig(recipe, discardWriter{}, discardWriter{})
	instance, err := instantiate(ctx, runtime, module, cfg)
	if err != nil {
		module.Close(ctx)
		runtime.Close(ctx)
		return nil, wassetteerr.New(wassetteerr.Instantiate, "Load", err)
	}
	_ = instance.Close(ctx)

	record := &ComponentRecord{
		ID:       id,
		URI:      uri,
		Data:     data,
		Policy:   pol,
		Recipe:   recipe,
		Tools:    tools,
		Module:   module,
		Runtime:  runtime,
		LoadedAt: time.Now(),
	}

	m.tableMu.Lock()
	prior, reloaded := m.records[id]
	m.records[id] = record
	m.tableMu.Unlock()

	if reloaded {
		priorRuntime, priorModule := prior.runtimeAndModule()
		priorModule.Close(ctx)
		priorRuntime.Close(ctx)
	}

	m.notify()

	return &LoadResult{ID: id, Reloaded: reloaded}, nil
}

// Unload removes id's record. Idempotent failures surface NotFound.
func (m *Manager) Unload(ctx context.Context, id string) error {
	m.tableMu.Lock()
	record, ok := m.records[id]
	if ok {
		delete(m.records, id)
	}
	m.tableMu.Unlock()

	if !ok {
		return wassetteerr.New(wassetteerr.NotFound, "Unload", fmt.Errorf("component %q not found", id))
	}

	runtime, module := record.runtimeAndModule()
	module.Close(ctx)
	runtime.Close(ctx)
	m.notify()
	return nil
}

// ComponentInfo is returned by List.
type ComponentInfo struct {
	ID     string
	URI    string
	Tools  []ToolDescriptor
	Policy *policy.Policy
}

func (m *Manager) List() []ComponentInfo {
	m.tableMu.RLock()
	defer m.tableMu.RUnlock()

	out := make([]ComponentInfo, 0, len(m.records))
	for _, r := range m.records {
		pol, _, tools := r.snapshot()
		out = append(out, ComponentInfo{ID: r.ID, URI: r.URI, Tools: tools, Policy: pol})
	}
	return out
}

// AllTools returns the tool descriptors across every loaded component,
// for tools/list.
func (m *Manager) AllTools() []ToolDescriptor {
	m.tableMu.RLock()
	defer m.tableMu.RUnlock()

	var all []ToolDescriptor
	for _, r := range m.records {
		_, _, tools := r.snapshot()
		all = append(all, tools...)
	}
	return all
}

func (m *Manager) lookup(id string) (*ComponentRecord, error) {
	m.tableMu.RLock()
	defer m.tableMu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, wassetteerr.New(wassetteerr.NotFound, "lookup", fmt.Errorf("component %q not found", id))
	}
	return r, nil
}

// findTool resolves a tool name to its owning record and export.
func (m *Manager) findTool(name string) (*ComponentRecord, ToolDescriptor, error) {
	m.tableMu.RLock()
	defer m.tableMu.RUnlock()

	for _, r := range m.records {
		_, _, tools := r.snapshot()
		for _, t := range tools {
			if t.Name == name {
				return r, t, nil
			}
		}
	}
	return nil, ToolDescriptor{}, wassetteerr.New(wassetteerr.NotFound, "findTool", fmt.Errorf("tool %q not found", name))
}

// takenToolNames collects the tool names already registered by every
// component other than excludeID. Called from Load before the new
// record is inserted, so it takes its own read lock rather than
// relying on a caller-held one.
func (m *Manager) takenToolNames(excludeID string) map[string]bool {
	m.tableMu.RLock()
	defer m.tableMu.RUnlock()

	taken := make(map[string]bool)
	for _, r := range m.records {
		if r.ID == excludeID {
			continue
		}
		_, _, tools := r.snapshot()
		for _, t := range tools {
			taken[t.Name] = true
		}
	}
	return taken
}

// paramsType treats a function's named parameters as a record, the
// same way InputSchema projects them into a single object schema.
func paramsType(params []wasmtypes.Field) *wasmtypes.Type {
	return &wasmtypes.Type{Kind: wasmtypes.Record, Fields: params}
}

// resultsType mirrors OutputSchema's arity handling: no results means
// nothing to decode/encode, one result is used directly, and more than
// one is wrapped as a tuple.
func resultsType(results []*wasmtypes.Type) *wasmtypes.Type {
	switch len(results) {
	case 0:
		return nil
	case 1:
		return results[0]
	default:
		return &wasmtypes.Type{Kind: wasmtypes.Tuple, Items: results}
	}
}

// Invoke looks up toolName, decodes and re-encodes argsJSON through the
// component's parameter types (rejecting anything that violates the
// function's structure, spec §4.2/§8), runs the export in a fresh
// sandboxed instance, and decodes/re-encodes the guest's result through
// its result type before returning it.
func (m *Manager) Invoke(ctx context.Context, toolName string, argsJSON []byte) ([]byte, error) {
	record, tool, err := m.findTool(toolName)
	if err != nil {
		return nil, err
	}

	if len(argsJSON) == 0 {
		argsJSON = []byte("{}")
	}

	paramsT := paramsType(tool.Params)
	args, err := schema.Decode(paramsT, argsJSON)
	if err != nil {
		return nil, wassetteerr.New(wassetteerr.Validation, "Invoke", fmt.Errorf("arguments: %w", err))
	}
	normalizedArgs, err := schema.Encode(paramsT, args)
	if err != nil {
		return nil, wassetteerr.New(wassetteerr.Internal, "Invoke", fmt.Errorf("arguments: %w", err))
	}

	_, recipe, _ := record.snapshot()
	runtime, module := record.runtimeAndModule()

	deadline := cpuDeadline(recipe)
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	cfg := sandbox.ModuleConfig(recipe, discardWriter{}, discardWriter{})
	instance, err := instantiate(ctx, runtime, module, cfg)
	if err != nil {
		return nil, wassetteerr.New(wassetteerr.Instantiate, "Invoke", err)
	}
	defer func() { _ = instance.Close(ctx) }()

	raw, err := callJSON(ctx, instance, tool.Export, normalizedArgs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, wassetteerr.New(wassetteerr.Invoke, "Invoke", fmt.Errorf("deadline exceeded: %w", ctx.Err()))
		}
		return nil, wassetteerr.New(wassetteerr.Invoke, "Invoke", err)
	}

	resultsT := resultsType(tool.Results)
	result, err := schema.Decode(resultsT, raw)
	if err != nil {
		return nil, wassetteerr.New(wassetteerr.Invoke, "Invoke", fmt.Errorf("result: %w", err))
	}
	normalizedResult, err := schema.Encode(resultsT, result)
	if err != nil {
		return nil, wassetteerr.New(wassetteerr.Internal, "Invoke", fmt.Errorf("result: %w", err))
	}

	return normalizedResult, nil
}

func cpuDeadline(recipe *sandbox.Recipe) time.Duration {
	if recipe.CPUMillis <= 0 {
		return 0
	}
	return time.Duration(recipe.CPUMillis) * time.Millisecond
}
