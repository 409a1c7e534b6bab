package sandbox

import (
	"testing"

	"github.com/wassette/wassette/internal/policy"
)

func TestBuildRecipeStorageMount(t *testing.T) {
	p := policy.Default()
	p = policy.GrantStorage(p, "fs:///data/**", []string{policy.AccessRead})

	recipe, err := Build(p)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(recipe.Mounts) != 1 {
		t.Fatalf("mounts = %v, want 1", recipe.Mounts)
	}
	if recipe.Mounts[0].HostPath != "/data" {
		t.Fatalf("host path = %q, want /data", recipe.Mounts[0].HostPath)
	}
	if !recipe.Mounts[0].ReadOnly {
		t.Fatal("expected read-only mount")
	}
}

func TestBuildRecipeMemoryLimit(t *testing.T) {
	p := policy.Default()
	p = policy.GrantMemory(p, "64Mi")

	recipe, err := Build(p)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if recipe.MemoryLimit != 64*1024*1024 {
		t.Fatalf("memory limit = %d, want %d", recipe.MemoryLimit, 64*1024*1024)
	}
}

func TestMatchEnvKeyGlob(t *testing.T) {
	if !MatchEnvKey("AWS_REGION", "AWS_*") {
		t.Fatal("expected AWS_REGION to match AWS_*")
	}
	if MatchEnvKey("HOME", "AWS_*") {
		t.Fatal("did not expect HOME to match AWS_*")
	}
	if !MatchEnvKey("PATH", "PATH") {
		t.Fatal("expected exact match for PATH")
	}
}

func TestHostAllowed(t *testing.T) {
	recipe := &Recipe{AllowedHosts: []string{"api.example.com"}, AllowedCIDRs: []string{"10.0.0.0/8"}}

	if !HostAllowed(recipe, "api.example.com") {
		t.Fatal("expected exact host match to be allowed")
	}
	if HostAllowed(recipe, "other.example.net") {
		t.Fatal("expected unlisted host to be denied")
	}
	if !HostAllowed(recipe, "10.1.2.3") {
		t.Fatal("expected CIDR match to be allowed")
	}
	if HostAllowed(recipe, "192.168.1.1") {
		t.Fatal("expected out-of-range IP to be denied")
	}
}

func TestStaticPrefix(t *testing.T) {
	cases := map[string]string{
		"/data/**":     "/data",
		"/data/*.txt":  "/data",
		"/data/a/b":    "/data/a/b",
		"/":            "/",
	}
	for pattern, want := range cases {
		got := staticPrefix(pattern)
		if got != want {
			t.Errorf("staticPrefix(%q) = %q, want %q", pattern, got, want)
		}
	}
}
