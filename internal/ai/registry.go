package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type ProviderFactory func(ctx context.Context, model string) (Provider, error)

type registration struct {
	factory ProviderFactory
	model   string
}

// Registry keeps provider factories in registration order, which is also the
// fallback order used by Chain.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	factories map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]registration)}
}

// Register adds (or replaces, keeping its position) a factory. model is the
// default model handed to the factory by Chain.
func (r *Registry) Register(name, model string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; !exists {
		r.order = append(r.order, name)
	}
	r.factories[name] = registration{factory: f, model: model}
}

func (r *Registry) Get(ctx context.Context, name string, model string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	reg, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	if strings.TrimSpace(model) == "" {
		model = reg.model
	}
	return reg.factory(ctx, model)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Chain instantiates every registered provider with its default model, in
// registration order.
func (r *Registry) Chain(ctx context.Context) ([]Provider, error) {
	names := r.Names()
	out := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := r.Get(ctx, name, "")
		if err != nil {
			return nil, fmt.Errorf("build provider %s: %w", name, err)
		}
		out = append(out, p)
	}
	return out, nil
}
