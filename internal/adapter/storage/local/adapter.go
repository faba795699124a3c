// Package local implements an in-process storage adapter. It keeps mirrored
// copies in memory and is used by local deployments and tests.
package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/adapter/storage"
	"github.com/defarm/defarm-backend/internal/domain"
)

// Adapter stores item copies in a process-local map.
type Adapter struct {
	mu    sync.RWMutex
	items map[string]domain.Item
	now   func() time.Time
}

// New creates an empty local adapter.
func New() *Adapter {
	return &Adapter{items: make(map[string]domain.Item), now: time.Now}
}

// Type returns domain.AdapterLocal.
func (a *Adapter) Type() domain.AdapterType { return domain.AdapterLocal }

// StoreItem keeps a copy of the item under a fresh location key.
func (a *Adapter) StoreItem(_ context.Context, item *domain.Item) (*storage.Result, error) {
	key := uuid.New().String()

	a.mu.Lock()
	a.items[key] = *item
	a.mu.Unlock()

	now := a.now().UTC()
	return &storage.Result{
		AdapterType:  domain.AdapterLocal,
		ItemLocation: key,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetItem returns the stored copy for the location key.
func (a *Adapter) GetItem(_ context.Context, locationKey string) (*domain.Item, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	item, ok := a.items[locationKey]
	if !ok {
		return nil, fmt.Errorf("location %s: %w", locationKey, domain.ErrNotFound)
	}
	return &item, nil
}

// HealthCheck always succeeds for the in-process adapter.
func (a *Adapter) HealthCheck(_ context.Context) bool { return true }

// SyncStatus always reports in-sync.
func (a *Adapter) SyncStatus(_ context.Context) (storage.SyncStatus, error) {
	return storage.SyncStatus{InSync: true, LastSyncedAt: a.now().UTC()}, nil
}
