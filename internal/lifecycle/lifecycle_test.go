package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/wassette/wassette/internal/sandbox"
	"github.com/wassette/wassette/internal/wasmtypes"
)

func TestDeriveComponentIDStableAcrossCalls(t *testing.T) {
	uri := "oci://example.com/fetch:latest"
	id1 := DeriveComponentID(uri)
	id2 := DeriveComponentID(uri)
	if id1 != id2 {
		t.Fatalf("id not stable: %s vs %s", id1, id2)
	}
	if id1 != "fetch" {
		t.Fatalf("id = %q, want fetch", id1)
	}
}

func TestDeriveComponentIDFile(t *testing.T) {
	id := DeriveComponentID("file:///home/user/components/memory.wasm")
	if id != "memory" {
		t.Fatalf("id = %q, want memory", id)
	}
}

func TestToolsForCollisionPrefixing(t *testing.T) {
	fns := []*wasmtypes.Function{
		{Name: "fetch"},
	}
	taken := map[string]bool{"fetch": true}

	tools, err := toolsFor("fetch-rs-2", fns, taken)
	if err != nil {
		t.Fatalf("toolsFor: %v", err)
	}
	if len(tools) != 1 {
		t.Fatalf("tools = %v, want 1", tools)
	}
	want := "fetch-rs-2__fetch"
	if tools[0].Name != want {
		t.Fatalf("name = %q, want %q", tools[0].Name, want)
	}
}

func TestToolsForNoCollision(t *testing.T) {
	fns := []*wasmtypes.Function{{Name: "fetch"}}
	tools, err := toolsFor("fetch-rs", fns, map[string]bool{})
	if err != nil {
		t.Fatalf("toolsFor: %v", err)
	}
	if tools[0].Name != "fetch" {
		t.Fatalf("name = %q, want fetch", tools[0].Name)
	}
}

func TestCPUDeadline(t *testing.T) {
	if cpuDeadline(&sandbox.Recipe{}) != 0 {
		t.Fatal("expected zero deadline for unset recipe")
	}
	got := cpuDeadline(&sandbox.Recipe{CPUMillis: 500})
	if got != 500*time.Millisecond {
		t.Fatalf("deadline = %v, want 500ms", got)
	}
}

func TestMemoryLimitPagesUnlimited(t *testing.T) {
	if pages := memoryLimitPages(nil); pages != 0 {
		t.Fatalf("pages = %d, want 0 for nil recipe", pages)
	}
	if pages := memoryLimitPages(&sandbox.Recipe{}); pages != 0 {
		t.Fatalf("pages = %d, want 0 for unset limit", pages)
	}
}

func TestMemoryLimitPagesRoundsUp(t *testing.T) {
	// One byte over a page boundary still needs the next whole page.
	recipe := &sandbox.Recipe{MemoryLimit: wasmPageSize + 1}
	if pages := memoryLimitPages(recipe); pages != 2 {
		t.Fatalf("pages = %d, want 2", pages)
	}

	recipe = &sandbox.Recipe{MemoryLimit: 64 * 1024 * 1024}
	if pages := memoryLimitPages(recipe); pages != 1024 {
		t.Fatalf("pages = %d, want 1024", pages)
	}
}

func TestMemoryLimitPagesClampsToWasm32AddressSpace(t *testing.T) {
	recipe := &sandbox.Recipe{MemoryLimit: uint64(maxWasmPages+1) * wasmPageSize}
	if pages := memoryLimitPages(recipe); pages != maxWasmPages {
		t.Fatalf("pages = %d, want %d", pages, maxWasmPages)
	}
}

func TestBoundedContextAddsDeadlineWhenAbsent(t *testing.T) {
	ctx, cancel := boundedContext(context.Background(), time.Second)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected a deadline to be set")
	}
}

func TestBoundedContextKeepsTighterExistingDeadline(t *testing.T) {
	parent, parentCancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer parentCancel()

	ctx, cancel := boundedContext(parent, time.Hour)
	defer cancel()

	parentDeadline, _ := parent.Deadline()
	ctxDeadline, _ := ctx.Deadline()
	if !ctxDeadline.Equal(parentDeadline) {
		t.Fatalf("deadline = %v, want unchanged parent deadline %v", ctxDeadline, parentDeadline)
	}
}
