package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/wassette/wassette/internal/config"
)

func TestFetchFileAndCacheHit(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "component.wasm")
	if err := os.WriteFile(artifact, []byte("fake component bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cacheRoot := t.TempDir()
	res, err := New(cacheRoot, config.Resolver{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	uri := "file://" + artifact
	path, digest, err := res.Fetch(context.Background(), uri)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	want := sha256.Sum256([]byte("fake component bytes"))
	if digest != hex.EncodeToString(want[:]) {
		t.Fatalf("digest = %s, want %s", digest, hex.EncodeToString(want[:]))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cached artifact: %v", err)
	}
	if string(data) != "fake component bytes" {
		t.Fatalf("cached content mismatch: %q", data)
	}

	// Removing the source file must not affect a cache hit.
	if err := os.Remove(artifact); err != nil {
		t.Fatalf("remove source: %v", err)
	}

	path2, digest2, err := res.Fetch(context.Background(), uri)
	if err != nil {
		t.Fatalf("Fetch (cache hit): %v", err)
	}
	if path2 != path || digest2 != digest {
		t.Fatalf("cache hit mismatch: %s/%s vs %s/%s", path2, digest2, path, digest)
	}
}

func TestFetchFileNotFound(t *testing.T) {
	res, err := New(t.TempDir(), config.Resolver{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, _, err = res.Fetch(context.Background(), "file:///does/not/exist.wasm")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "component.wasm")
	if err := os.WriteFile(artifact, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	res, err := New(t.TempDir(), config.Resolver{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	uri := "file://" + artifact
	_, digest1, err := res.Fetch(context.Background(), uri)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if err := os.WriteFile(artifact, []byte("v2, longer content"), 0o644); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}

	if err := res.Invalidate(uri); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	_, digest2, err := res.Fetch(context.Background(), uri)
	if err != nil {
		t.Fatalf("Fetch after invalidate: %v", err)
	}
	if digest1 == digest2 {
		t.Fatal("expected digest to change after invalidate + refetch")
	}
}
