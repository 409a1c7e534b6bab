package sandbox

import (
	"crypto/rand"
	"io"
	"os"
	"strings"

	"github.com/tetratelabs/wazero"
)

// ModuleConfig builds the wazero module configuration for a fresh
// instantiation from recipe. Every call to this function yields an
// independent config; none of the returned state is shared across
// instances.
func ModuleConfig(recipe *Recipe, stdout, stderr io.Writer) wazero.ModuleConfig {
	fsConfig := wazero.NewFSConfig()
	for _, m := range recipe.Mounts {
		if m.ReadOnly {
			fsConfig = fsConfig.WithReadOnlyDirMount(m.HostPath, m.GuestPath)
		} else {
			fsConfig = fsConfig.WithDirMount(m.HostPath, m.GuestPath)
		}
	}

	cfg := wazero.NewModuleConfig().
		WithFSConfig(fsConfig).
		WithSysWalltime().
		WithSysNanotime().
		WithSysNanosleep().
		WithRandSource(rand.Reader)

	if stdout != nil {
		cfg = cfg.WithStdout(stdout)
	}
	if stderr != nil {
		cfg = cfg.WithStderr(stderr)
	}

	for _, envVar := range filteredEnv(recipe.EnvPatterns) {
		parts := strings.SplitN(envVar, "=", 2)
		if len(parts) == 2 {
			cfg = cfg.WithEnv(parts[0], parts[1])
		}
	}

	return cfg
}

// filteredEnv returns the subset of the current host environment whose
// keys match one of patterns. A pattern matches either exactly or as
// a glob (via MatchEnvKey).
func filteredEnv(patterns []string) []string {
	if len(patterns) == 0 {
		return nil
	}

	var allowed []string
	for _, envVar := range os.Environ() {
		parts := strings.SplitN(envVar, "=", 2)
		if len(parts) != 2 {
			continue
		}
		for _, pattern := range patterns {
			if MatchEnvKey(parts[0], pattern) {
				allowed = append(allowed, envVar)
				break
			}
		}
	}
	return allowed
}

// MatchEnvKey reports whether key matches pattern, a literal key or a
// trailing-glob pattern like "AWS_*".
func MatchEnvKey(key, pattern string) bool {
	if pattern == key {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	}
	return false
}
