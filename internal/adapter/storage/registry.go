package storage

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/defarm/defarm-backend/internal/domain"
)

// Registry holds the configured adapters, keyed by type.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.AdapterType]Adapter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[domain.AdapterType]Adapter)}
}

// Register adds or replaces the adapter for its type.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Type()] = a
}

// Get returns the adapter for the given type.
func (r *Registry) Get(t domain.AdapterType) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[t]
	return a, ok
}

// Types returns the registered adapter types.
func (r *Registry) Types() []domain.AdapterType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AdapterType, 0, len(r.adapters))
	for t := range r.adapters {
		out = append(out, t)
	}
	return out
}

// HealthAll checks every registered adapter concurrently and reports
// per-type health. A cancelled context marks the remaining checks unhealthy.
func (r *Registry) HealthAll(ctx context.Context) map[domain.AdapterType]bool {
	r.mu.RLock()
	adapters := make(map[domain.AdapterType]Adapter, len(r.adapters))
	for t, a := range r.adapters {
		adapters[t] = a
	}
	r.mu.RUnlock()

	var mu sync.Mutex
	health := make(map[domain.AdapterType]bool, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for t, a := range adapters {
		g.Go(func() error {
			ok := a.HealthCheck(gctx)
			mu.Lock()
			health[t] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return health
}
