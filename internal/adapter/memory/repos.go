package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// ItemRepo stores items keyed by DFID.
type ItemRepo struct{ s *Store }

// NewItemRepo creates an item repository over the store.
func NewItemRepo(s *Store) *ItemRepo { return &ItemRepo{s: s} }

func (r *ItemRepo) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.items[item.DFID]; exists {
		return nil, fmt.Errorf("item %s: %w", item.DFID, domain.ErrAlreadyExists)
	}
	cp := copyItem(item)
	r.s.items[item.DFID] = cp
	return copyItem(cp), nil
}

func (r *ItemRepo) GetByDFID(ctx context.Context, dfid string) (*domain.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.items[dfid]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", dfid, domain.ErrNotFound)
	}
	return copyItem(item), nil
}

func (r *ItemRepo) Update(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.items[item.DFID]; !ok {
		return nil, fmt.Errorf("item %s: %w", item.DFID, domain.ErrNotFound)
	}
	cp := copyItem(item)
	r.s.items[item.DFID] = cp
	return copyItem(cp), nil
}

func (r *ItemRepo) List(ctx context.Context) ([]domain.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Item, 0, len(r.s.items))
	for _, item := range r.s.items {
		out = append(out, *copyItem(item))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Circuits and the dedup index
// ---------------------------------------------------------------------------

// CircuitRepo stores circuits and their item registrations.
type CircuitRepo struct{ s *Store }

// NewCircuitRepo creates a circuit repository over the store.
func NewCircuitRepo(s *Store) *CircuitRepo { return &CircuitRepo{s: s} }

func (r *CircuitRepo) Create(ctx context.Context, circuit *domain.Circuit) (*domain.Circuit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.circuits[circuit.ID]; exists {
		return nil, fmt.Errorf("circuit %s: %w", circuit.ID, domain.ErrAlreadyExists)
	}
	cp := copyCircuit(circuit)
	r.s.circuits[circuit.ID] = cp
	r.s.registrations[circuit.ID] = make(map[string]string)
	return copyCircuit(cp), nil
}

func (r *CircuitRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Circuit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	circuit, ok := r.s.circuits[id]
	if !ok {
		return nil, fmt.Errorf("circuit %s: %w", id, domain.ErrNotFound)
	}
	return copyCircuit(circuit), nil
}

func (r *CircuitRepo) Update(ctx context.Context, circuit *domain.Circuit) (*domain.Circuit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.circuits[circuit.ID]; !ok {
		return nil, fmt.Errorf("circuit %s: %w", circuit.ID, domain.ErrNotFound)
	}
	cp := copyCircuit(circuit)
	r.s.circuits[circuit.ID] = cp
	return copyCircuit(cp), nil
}

func (r *CircuitRepo) List(ctx context.Context) ([]domain.Circuit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Circuit, 0, len(r.s.circuits))
	for _, circuit := range r.s.circuits {
		out = append(out, *copyCircuit(circuit))
	}
	return out, nil
}

func (r *CircuitRepo) FindDFIDByIdentityKey(ctx context.Context, circuitID uuid.UUID, identityKey string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	dfid, ok := r.s.registrations[circuitID][identityKey]
	if !ok {
		return "", fmt.Errorf("identity in circuit %s: %w", circuitID, domain.ErrNotFound)
	}
	return dfid, nil
}

func (r *CircuitRepo) RegisterItem(ctx context.Context, circuitID uuid.UUID, dfid, identityKey string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.registrations[circuitID]
	if !ok {
		return fmt.Errorf("circuit %s: %w", circuitID, domain.ErrNotFound)
	}
	if existing, taken := reg[identityKey]; taken && existing != dfid {
		return fmt.Errorf("identity already registered to %s: %w", existing, domain.ErrAlreadyExists)
	}
	reg[identityKey] = dfid
	return nil
}

func (r *CircuitRepo) IsItemRegistered(ctx context.Context, circuitID uuid.UUID, dfid string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reg, ok := r.s.registrations[circuitID]
	if !ok {
		return false, fmt.Errorf("circuit %s: %w", circuitID, domain.ErrNotFound)
	}
	for _, registered := range reg {
		if registered == dfid {
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// Mappings
// ---------------------------------------------------------------------------

// MappingRepo stores the one-time local ID → DFID mappings.
type MappingRepo struct{ s *Store }

// NewMappingRepo creates a mapping repository over the store.
func NewMappingRepo(s *Store) *MappingRepo { return &MappingRepo{s: s} }

func (r *MappingRepo) Store(ctx context.Context, localID uuid.UUID, dfid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.mappings[localID]; ok && existing != dfid {
		return fmt.Errorf("local item %s already mapped to %s: %w", localID, existing, domain.ErrAlreadyExists)
	}
	r.s.mappings[localID] = dfid
	return nil
}

func (r *MappingRepo) GetDFID(ctx context.Context, localID uuid.UUID) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	dfid, ok := r.s.mappings[localID]
	if !ok {
		return "", fmt.Errorf("mapping for %s: %w", localID, domain.ErrNotFound)
	}
	return dfid, nil
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

// AccountRepo stores user accounts.
type AccountRepo struct{ s *Store }

// NewAccountRepo creates an account repository over the store.
func NewAccountRepo(s *Store) *AccountRepo { return &AccountRepo{s: s} }

func (r *AccountRepo) Create(ctx context.Context, account domain.UserAccount) (*domain.UserAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.accounts[account.ID]; exists {
		return nil, fmt.Errorf("account %s: %w", account.ID, domain.ErrAlreadyExists)
	}
	r.s.accounts[account.ID] = account
	cp := account
	return &cp, nil
}

func (r *AccountRepo) Get(ctx context.Context, id uuid.UUID) (*domain.UserAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	cp := account
	return &cp, nil
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// EventRepo stores the append-only event log.
type EventRepo struct{ s *Store }

// NewEventRepo creates an event repository over the store.
func NewEventRepo(s *Store) *EventRepo { return &EventRepo{s: s} }

func (r *EventRepo) Append(ctx context.Context, event domain.Event) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.events = append(r.s.events, event)
	cp := event
	return &cp, nil
}

func (r *EventRepo) ListByDFID(ctx context.Context, dfid string) ([]domain.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.Event
	for _, ev := range r.s.events {
		if ev.DFID == dfid {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *EventRepo) List(ctx context.Context) ([]domain.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Event, len(r.s.events))
	copy(out, r.s.events)
	return out, nil
}

// ---------------------------------------------------------------------------
// Storage records
// ---------------------------------------------------------------------------

// StorageRecordRepo stores the per-DFID ledger of storage operations.
type StorageRecordRepo struct{ s *Store }

// NewStorageRecordRepo creates a storage record repository over the store.
func NewStorageRecordRepo(s *Store) *StorageRecordRepo { return &StorageRecordRepo{s: s} }

func (r *StorageRecordRepo) Insert(ctx context.Context, record domain.StorageRecord) (*domain.StorageRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.records[record.DFID] = append(r.s.records[record.DFID], record)
	cp := record
	return &cp, nil
}

func (r *StorageRecordRepo) DeactivateActive(ctx context.Context, dfid string, t domain.AdapterType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	recs := r.s.records[dfid]
	for i := range recs {
		if recs[i].AdapterType == t && recs[i].IsActive {
			recs[i].IsActive = false
		}
	}
	return nil
}

func (r *StorageRecordRepo) ListByDFID(ctx context.Context, dfid string) ([]domain.StorageRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.StorageRecord, len(r.s.records[dfid]))
	copy(out, r.s.records[dfid])
	return out, nil
}

// ---------------------------------------------------------------------------
// Timeline
// ---------------------------------------------------------------------------

// TimelineRepo stores the append-only per-DFID evidence timeline.
type TimelineRepo struct{ s *Store }

// NewTimelineRepo creates a timeline repository over the store.
func NewTimelineRepo(s *Store) *TimelineRepo { return &TimelineRepo{s: s} }

func (r *TimelineRepo) Append(ctx context.Context, entry domain.TimelineEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.timeline[entry.DFID] = append(r.s.timeline[entry.DFID], entry)
	return nil
}

func (r *TimelineRepo) ListByDFID(ctx context.Context, dfid string) ([]domain.TimelineEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.TimelineEntry, len(r.s.timeline[dfid]))
	copy(out, r.s.timeline[dfid])
	return out, nil
}
