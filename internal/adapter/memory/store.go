// Package memory provides an in-process backend implementing every repository
// the services consume. It backs single-node deployments and tests; the
// postgres adapter is the durable equivalent.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/domain"
)

// Store holds all state behind one RWMutex, shared by the per-entity repos.
// Writes that span several collections (a mint writes items, registrations
// and mappings) happen under the service's keyed identity lock, so a coarse
// store lock is enough.
type Store struct {
	mu sync.RWMutex

	items    map[string]*domain.Item           // by DFID
	circuits map[uuid.UUID]*domain.Circuit     // by ID
	accounts map[uuid.UUID]domain.UserAccount  // by ID
	mappings map[uuid.UUID]string              // local ID → DFID
	events   []domain.Event                    // append-only
	records  map[string][]domain.StorageRecord // by DFID, insertion order
	timeline map[string][]domain.TimelineEntry // by DFID, append-only

	// registrations is the per-circuit dedup index: identity key → DFID.
	registrations map[uuid.UUID]map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items:         make(map[string]*domain.Item),
		circuits:      make(map[uuid.UUID]*domain.Circuit),
		accounts:      make(map[uuid.UUID]domain.UserAccount),
		mappings:      make(map[uuid.UUID]string),
		records:       make(map[string][]domain.StorageRecord),
		timeline:      make(map[string][]domain.TimelineEntry),
		registrations: make(map[uuid.UUID]map[string]string),
	}
}

// RunInTx satisfies the services' transaction manager. The store has no
// transactional isolation; atomicity of multi-step writes comes from the
// keyed identity lock held by the caller.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ---------------------------------------------------------------------------
// Copy helpers
// ---------------------------------------------------------------------------

func copyItem(item *domain.Item) *domain.Item {
	cp := *item
	if item.LocalID != nil {
		id := *item.LocalID
		cp.LocalID = &id
	}
	cp.Identifiers = append([]domain.Identifier(nil), item.Identifiers...)
	cp.EnhancedIdentifiers = append([]domain.Identifier(nil), item.EnhancedIdentifiers...)
	cp.SourceEntries = append([]uuid.UUID(nil), item.SourceEntries...)
	if item.EnrichedData != nil {
		cp.EnrichedData = make(map[string]any, len(item.EnrichedData))
		for k, v := range item.EnrichedData {
			cp.EnrichedData[k] = v
		}
	}
	return &cp
}

func copyCircuit(circuit *domain.Circuit) *domain.Circuit {
	cp := *circuit
	cp.Members = make(map[uuid.UUID]domain.MemberRole, len(circuit.Members))
	for id, role := range circuit.Members {
		cp.Members[id] = role
	}
	if circuit.AliasConfig != nil {
		ac := *circuit.AliasConfig
		ac.RequiredCanonical = append([]string(nil), circuit.AliasConfig.RequiredCanonical...)
		cp.AliasConfig = &ac
	}
	if circuit.AdapterConfig != nil {
		adc := *circuit.AdapterConfig
		cp.AdapterConfig = &adc
	}
	return &cp
}
