package lifecycle

import (
	"context"
	"fmt"

	"github.com/wassette/wassette/internal/policy"
	"github.com/wassette/wassette/internal/sandbox"
	"github.com/wassette/wassette/internal/wassetteerr"
)

// GetPolicy returns the policy currently attached to id.
func (m *Manager) GetPolicy(id string) (*policy.Policy, error) {
	record, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	pol, _, _ := record.snapshot()
	return pol, nil
}

// AttachPolicy replaces id's policy outright, validating and
// trial-instantiating before committing (spec §4.5, §9).
func (m *Manager) AttachPolicy(ctx context.Context, id string, policyDoc []byte) error {
	pol, err := policy.Parse(policyDoc)
	if err != nil {
		return wassetteerr.New(wassetteerr.Validation, "AttachPolicy", err)
	}
	return m.applyPolicy(ctx, id, pol)
}

// ResetPermission re-attaches the empty default policy.
func (m *Manager) ResetPermission(ctx context.Context, id string) error {
	return m.applyPolicy(ctx, id, policy.Default())
}

func (m *Manager) GrantStorage(ctx context.Context, id, uri string, access []string) error {
	return m.mutate(ctx, id, func(p *policy.Policy) (*policy.Policy, error) {
		return policy.GrantStorage(p, uri, access), nil
	})
}

func (m *Manager) RevokeStorage(ctx context.Context, id, uri string) error {
	return m.mutate(ctx, id, func(p *policy.Policy) (*policy.Policy, error) {
		return policy.RevokeStorage(p, uri)
	})
}

func (m *Manager) GrantNetwork(ctx context.Context, id, host string) error {
	return m.mutate(ctx, id, func(p *policy.Policy) (*policy.Policy, error) {
		return policy.GrantNetwork(p, host), nil
	})
}

func (m *Manager) RevokeNetwork(ctx context.Context, id, host string) error {
	return m.mutate(ctx, id, func(p *policy.Policy) (*policy.Policy, error) {
		return policy.RevokeNetwork(p, host), nil
	})
}

func (m *Manager) GrantEnvironment(ctx context.Context, id, key string) error {
	return m.mutate(ctx, id, func(p *policy.Policy) (*policy.Policy, error) {
		return policy.GrantEnvironment(p, key), nil
	})
}

func (m *Manager) RevokeEnvironment(ctx context.Context, id, key string) error {
	return m.mutate(ctx, id, func(p *policy.Policy) (*policy.Policy, error) {
		return policy.RevokeEnvironment(p, key), nil
	})
}

func (m *Manager) GrantMemory(ctx context.Context, id, limit string) error {
	return m.mutate(ctx, id, func(p *policy.Policy) (*policy.Policy, error) {
		return policy.GrantMemory(p, limit), nil
	})
}

func (m *Manager) RevokeMemory(ctx context.Context, id string) error {
	return m.mutate(ctx, id, func(p *policy.Policy) (*policy.Policy, error) {
		return policy.RevokeMemory(p), nil
	})
}

// mutate applies fn to id's current policy and commits the result
// through the same validate-and-trial-instantiate path as AttachPolicy.
func (m *Manager) mutate(ctx context.Context, id string, fn func(*policy.Policy) (*policy.Policy, error)) error {
	record, err := m.lookup(id)
	if err != nil {
		return err
	}

	current, _, _ := record.snapshot()
	next, err := fn(current)
	if err != nil {
		return wassetteerr.New(wassetteerr.Validation, "mutate", err)
	}

	return m.applyPolicy(ctx, id, next)
}

// applyPolicy validates pol, builds its recipe, and trial-instantiates
// before swapping it into the record. On any failure the record keeps
// its prior policy and recipe (spec §9's rollback guarantee). The whole
// operation is bounded by defaultMutationDeadline so a misbehaving
// component's trial instantiation can't hang a grant/revoke call
// forever.
func (m *Manager) applyPolicy(ctx context.Context, id string, pol *policy.Policy) error {
	ctx, cancel := boundedContext(ctx, defaultMutationDeadline)
	defer cancel()

	record, err := m.lookup(id)
	if err != nil {
		return err
	}

	if err := policy.Validate(pol); err != nil {
		return wassetteerr.New(wassetteerr.Validation, "applyPolicy", err)
	}

	recipe, err := sandbox.Build(pol)
	if err != nil {
		return wassetteerr.New(wassetteerr.Validation, "applyPolicy", err)
	}

	_, currentRecipe, _ := record.snapshot()
	currentRuntime, currentModule := record.runtimeAndModule()

	// A memory-limit change can only take effect on a runtime built
	// with the new limit (wazero enforces WithMemoryLimitPages at the
	// runtime level), and a compiled module can only be instantiated
	// on the runtime that compiled it. Everything else (storage,
	// network, environment, CPU) is plain ModuleConfig state that the
	// existing runtime/module can be trial-instantiated with directly.
	runtime, module := currentRuntime, currentModule
	recompiled := memoryLimitPages(recipe) != memoryLimitPages(currentRecipe)
	if recompiled {
		runtime = newRuntime(ctx, recipe)
		module, err = runtime.CompileModule(ctx, record.Data)
		if err != nil {
			runtime.Close(ctx)
			return wassetteerr.New(wassetteerr.Compile, "applyPolicy", err)
		}
	}

	cfg := sandbox.ModuleConfig(recipe, discardWriter{}, discardWriter{})
	instance, err := instantiate(ctx, runtime, module, cfg)
	if err != nil {
		if recompiled {
			module.Close(ctx)
			runtime.Close(ctx)
		}
		return wassetteerr.New(wassetteerr.Instantiate, "applyPolicy", fmt.Errorf("trial instantiation failed, policy not applied: %w", err))
	}
	_ = instance.Close(ctx)

	oldModule, oldRuntime := record.swapRuntime(pol, recipe, module, runtime)
	if recompiled {
		oldModule.Close(ctx)
		oldRuntime.Close(ctx)
	}
	return nil
}
