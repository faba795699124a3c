package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/domain"
)

func TestItemRepo_CreateIsolatesCopies(t *testing.T) {
	t.Parallel()

	repo := NewItemRepo(NewStore())
	ctx := context.Background()

	item := &domain.Item{
		DFID:         "DFID-20240101-0100000001-abcdef12",
		EnrichedData: map[string]any{"breed": "nelore"},
		Status:       domain.ItemStatusActive,
	}
	if _, err := repo.Create(ctx, item); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Mutating the caller's value must not leak into the store.
	item.EnrichedData["breed"] = "angus"

	got, err := repo.GetByDFID(ctx, item.DFID)
	if err != nil {
		t.Fatalf("GetByDFID: %v", err)
	}
	if got.EnrichedData["breed"] != "nelore" {
		t.Errorf("stored breed = %v, want nelore", got.EnrichedData["breed"])
	}

	if _, err := repo.Create(ctx, &domain.Item{DFID: item.DFID}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on duplicate, got: %v", err)
	}
}

func TestItemRepo_UpdateUnknown(t *testing.T) {
	t.Parallel()

	repo := NewItemRepo(NewStore())
	_, err := repo.Update(context.Background(), &domain.Item{DFID: "DFID-20240101-0100000009-abcdef12"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestCircuitRepo_RegistrationConflicts(t *testing.T) {
	t.Parallel()

	store := NewStore()
	repo := NewCircuitRepo(store)
	ctx := context.Background()

	owner := uuid.New()
	circuit := &domain.Circuit{
		ID:      uuid.New(),
		Name:    "cadeia",
		OwnerID: owner,
		Members: map[uuid.UUID]domain.MemberRole{owner: domain.RoleOwner},
		Status:  domain.CircuitStatusActive,
	}
	if _, err := repo.Create(ctx, circuit); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.RegisterItem(ctx, circuit.ID, "DFID-A", "fp-1"); err != nil {
		t.Fatalf("RegisterItem: %v", err)
	}

	// Re-registering the same pair is idempotent; a different DFID conflicts.
	if err := repo.RegisterItem(ctx, circuit.ID, "DFID-A", "fp-1"); err != nil {
		t.Fatalf("expected idempotent re-registration, got: %v", err)
	}
	if err := repo.RegisterItem(ctx, circuit.ID, "DFID-B", "fp-1"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got: %v", err)
	}

	dfid, err := repo.FindDFIDByIdentityKey(ctx, circuit.ID, "fp-1")
	if err != nil {
		t.Fatalf("FindDFIDByIdentityKey: %v", err)
	}
	if dfid != "DFID-A" {
		t.Errorf("dfid = %q, want DFID-A", dfid)
	}

	registered, err := repo.IsItemRegistered(ctx, circuit.ID, "DFID-A")
	if err != nil || !registered {
		t.Errorf("IsItemRegistered = (%v, %v), want (true, nil)", registered, err)
	}

	if err := repo.RegisterItem(ctx, uuid.New(), "DFID-A", "fp-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown circuit, got: %v", err)
	}
}

func TestCircuitRepo_MembersMapIsolated(t *testing.T) {
	t.Parallel()

	repo := NewCircuitRepo(NewStore())
	ctx := context.Background()

	owner := uuid.New()
	circuit := &domain.Circuit{
		ID:      uuid.New(),
		Name:    "cadeia",
		OwnerID: owner,
		Members: map[uuid.UUID]domain.MemberRole{owner: domain.RoleOwner},
		Status:  domain.CircuitStatusActive,
	}
	if _, err := repo.Create(ctx, circuit); err != nil {
		t.Fatalf("Create: %v", err)
	}

	circuit.Members[uuid.New()] = domain.RoleViewer

	got, err := repo.Get(ctx, circuit.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Members) != 1 {
		t.Errorf("stored members = %d, want 1 (caller mutation must not leak)", len(got.Members))
	}
}

func TestMappingRepo_ConflictAndIdempotency(t *testing.T) {
	t.Parallel()

	repo := NewMappingRepo(NewStore())
	ctx := context.Background()
	localID := uuid.New()

	if err := repo.Store(ctx, localID, "DFID-A"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := repo.Store(ctx, localID, "DFID-A"); err != nil {
		t.Fatalf("expected idempotent re-store, got: %v", err)
	}
	if err := repo.Store(ctx, localID, "DFID-B"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got: %v", err)
	}

	if _, err := repo.GetDFID(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestStorageRecordRepo_DeactivateScopedByAdapter(t *testing.T) {
	t.Parallel()

	repo := NewStorageRecordRepo(NewStore())
	ctx := context.Background()
	const dfid = "DFID-20240101-0100000005-abcdef12"

	for _, at := range []domain.AdapterType{domain.AdapterIPFS, domain.AdapterStellar} {
		if _, err := repo.Insert(ctx, domain.StorageRecord{ID: uuid.New(), DFID: dfid, AdapterType: at, IsActive: true}); err != nil {
			t.Fatalf("Insert %s: %v", at, err)
		}
	}

	if err := repo.DeactivateActive(ctx, dfid, domain.AdapterIPFS); err != nil {
		t.Fatalf("DeactivateActive: %v", err)
	}

	records, err := repo.ListByDFID(ctx, dfid)
	if err != nil {
		t.Fatalf("ListByDFID: %v", err)
	}
	for _, rec := range records {
		wantActive := rec.AdapterType == domain.AdapterStellar
		if rec.IsActive != wantActive {
			t.Errorf("%s active = %v, want %v", rec.AdapterType, rec.IsActive, wantActive)
		}
	}
}

func TestRunInTx_Passthrough(t *testing.T) {
	t.Parallel()

	store := NewStore()
	called := false
	err := store.RunInTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("RunInTx = %v (called=%v), want nil and called", err, called)
	}

	sentinel := errors.New("boom")
	if err := store.RunInTx(context.Background(), func(context.Context) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel passthrough, got: %v", err)
	}
}
