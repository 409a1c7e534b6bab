package lifecycle

import (
	"context"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// instantiate creates a fresh module instance from module under cfg,
// calling the WASI _initialize entry point when present. The caller
// must Close the returned instance.
func instantiate(ctx context.Context, runtime wazero.Runtime, module wazero.CompiledModule, cfg wazero.ModuleConfig) (api.Module, error) {
	instance, err := runtime.InstantiateModule(ctx, module, cfg)
	if err != nil {
		return nil, fmt.Errorf("instantiate: %w", err)
	}

	if initFn := instance.ExportedFunction("_initialize"); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			_ = instance.Close(ctx)
			return nil, fmt.Errorf("initialize: %w", err)
		}
	}

	return instance, nil
}

// callJSON invokes the named export with a single JSON-encoded
// argument, written into guest memory via the guest's allocate export
// and passed as two parameters (ptr, len). The guest returns its
// JSON-encoded result as one packed (ptr<<32 | size) value, which is
// read back and then released via deallocate when exported.
func callJSON(ctx context.Context, instance api.Module, export string, argsJSON []byte) ([]byte, error) {
	fn := instance.ExportedFunction(export)
	if fn == nil {
		return nil, fmt.Errorf("export %q not found", export)
	}

	argPtr, err := writeMemory(ctx, instance, argsJSON)
	if err != nil {
		return nil, fmt.Errorf("write arguments: %w", err)
	}

	results, err := fn.Call(ctx, uint64(argPtr), uint64(len(argsJSON)))
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", export, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("call %s: no results", export)
	}

	packed := results[0]
	ptr := uint32(packed >> 32)
	size := uint32(packed & 0xFFFFFFFF)
	if size == 0 {
		return []byte("null"), nil
	}

	return readMemory(ctx, instance, ptr, size)
}

func writeMemory(ctx context.Context, instance api.Module, data []byte) (uint32, error) {
	allocate := instance.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("guest does not export allocate()")
	}

	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("allocate: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocate: no results")
	}

	ptr := uint32(results[0])
	if ptr == 0 && len(data) > 0 {
		return 0, fmt.Errorf("allocate: null pointer")
	}
	if !instance.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("write memory at %d: out of bounds", ptr)
	}
	return ptr, nil
}

func readMemory(ctx context.Context, instance api.Module, ptr, size uint32) ([]byte, error) {
	defer func() {
		if deallocate := instance.ExportedFunction("deallocate"); deallocate != nil {
			_, _ = deallocate.Call(ctx, uint64(ptr), uint64(size))
		}
	}()

	data, ok := instance.Memory().Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("read memory at %d/%d: out of bounds", ptr, size)
	}

	out := make([]byte, size)
	copy(out, data)
	return out, nil
}

var _ io.Writer = (*discardWriter)(nil)

// discardWriter is the default stdout/stderr sink for guest instances:
// wazero requires a non-nil writer, and the core does not surface
// guest console output anywhere.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
