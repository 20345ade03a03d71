package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
)

// Builder assembles a fresh Set from the built-in rule and every configured source.
type Builder struct {
	Sources []Source
	Options []Option
}

func (b *Builder) Build(ctx context.Context) (*Set, error) {
	set := NewDefaultSet(b.Options...)

	for _, source := range b.Sources {
		rules, err := source.LoadRules(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}

		added := lo.CountBy(rules, set.Add)
		slog.Debug("Rules loaded from source", "source", fmt.Sprintf("%T", source), "total", len(rules), "added", added)
	}

	return set, nil
}

// Registry publishes the current rule Set. Readers get an immutable snapshot; Reload
// builds a replacement and swaps it in atomically.
type Registry struct {
	builder *Builder
	current atomic.Pointer[Set]
	mu      sync.Mutex
}

func NewRegistry(ctx context.Context, builder *Builder) (*Registry, error) {
	set, err := builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	r := &Registry{builder: builder}
	r.current.Store(set)
	return r, nil
}

func (r *Registry) Current() *Set {
	return r.current.Load()
}

// Reload rebuilds the set. On failure the previous snapshot stays active.
func (r *Registry) Reload(ctx context.Context) (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, err := r.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	r.current.Store(set)
	slog.Info("Rule set reloaded", "rules", set.Len())
	return set, nil
}
