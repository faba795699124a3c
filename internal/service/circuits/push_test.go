package circuits

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/dfid"
	"github.com/defarm/defarm-backend/internal/domain"
)

func sisbov(value string) domain.Identifier {
	return domain.Identifier{
		Key:       "sisbov",
		Value:     value,
		Kind:      domain.IdentifierCanonical,
		Namespace: "br.gov",
	}
}

func earTag(value string) domain.Identifier {
	return domain.Identifier{
		Key:       "ear_tag",
		Value:     value,
		Kind:      domain.IdentifierContextual,
		Namespace: "farm",
	}
}

func pushInput(circuitID, requesterID uuid.UUID, ids ...domain.Identifier) PushInput {
	return PushInput{
		LocalID:     uuid.New(),
		Identifiers: ids,
		CircuitID:   circuitID,
		RequesterID: requesterID,
	}
}

func TestPush_MintsDFID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})

	result, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105123456789")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != PushCreated {
		t.Errorf("status: got %s, want created", result.Status)
	}
	if !dfid.Validate(result.DFID) {
		t.Errorf("minted DFID fails validation: %s", result.DFID)
	}
	if result.StorageStatus != StorageSkipped {
		t.Errorf("storage: got %s, want skipped (no adapter configured)", result.StorageStatus)
	}

	item, err := f.items.GetByDFID(context.Background(), result.DFID)
	if err != nil {
		t.Fatalf("tokenized item missing: %v", err)
	}
	if item.Status != domain.ItemStatusActive {
		t.Errorf("item status: got %s, want active", item.Status)
	}
}

func TestPush_RepushSameLocalItem(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})

	input := pushInput(circuit.ID, f.owner, sisbov("105123456789"))
	first, err := f.svc.Push(context.Background(), input)
	if err != nil {
		t.Fatalf("first push: %v", err)
	}

	second, err := f.svc.Push(context.Background(), input)
	if err != nil {
		t.Fatalf("second push: %v", err)
	}
	if second.Status != PushDeduplicated {
		t.Errorf("status: got %s, want deduplicated", second.Status)
	}
	if second.DFID != first.DFID {
		t.Errorf("DFID changed on re-push: %s vs %s", second.DFID, first.DFID)
	}
}

func TestPush_DeduplicatesSameIdentity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})

	first, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105123456789"), earTag("A-17")))
	if err != nil {
		t.Fatalf("first push: %v", err)
	}

	// Different local item, same animal: case and whitespace must not matter.
	second, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner,
		domain.Identifier{Key: "SISBOV", Value: " 105123456789 ", Kind: domain.IdentifierCanonical, Namespace: "BR.GOV"},
		earTag("B-03"),
	))
	if err != nil {
		t.Fatalf("second push: %v", err)
	}

	if second.Status != PushDeduplicated {
		t.Errorf("status: got %s, want deduplicated", second.Status)
	}
	if second.DFID != first.DFID {
		t.Errorf("same identity resolved to two DFIDs: %s vs %s", second.DFID, first.DFID)
	}

	// The second push's contextual identifiers merge into the shared item.
	item, err := f.items.GetByDFID(context.Background(), first.DFID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	tags := map[string]bool{}
	for _, id := range item.EnhancedIdentifiers {
		if id.Key == "ear_tag" {
			tags[id.Value] = true
		}
	}
	if !tags["A-17"] || !tags["B-03"] {
		t.Errorf("contextual identifiers not merged: %+v", item.EnhancedIdentifiers)
	}
}

func TestPush_DistinctIdentitiesMintDistinctDFIDs(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})

	first, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105123456789")))
	if err != nil {
		t.Fatalf("first push: %v", err)
	}
	second, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105987654321")))
	if err != nil {
		t.Fatalf("second push: %v", err)
	}

	if second.Status != PushCreated {
		t.Errorf("status: got %s, want created", second.Status)
	}
	if second.DFID == first.DFID {
		t.Errorf("distinct identities share DFID %s", first.DFID)
	}
}

func TestPush_MissingRequiredIdentifier(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{
		AliasConfig: &domain.AliasConfig{RequiredCanonical: []string{"sisbov"}},
	})

	input := pushInput(circuit.ID, f.owner,
		domain.Identifier{Key: "cpf", Value: "123", Kind: domain.IdentifierCanonical, Namespace: "br.gov"})

	_, err := f.svc.Push(context.Background(), input)
	if !errors.Is(err, domain.ErrMissingIdentifier) {
		t.Fatalf("error: got %v, want ErrMissingIdentifier", err)
	}

	// The rejected push must leave no mapping behind: retrying with the
	// required identifier mints fresh.
	input.Identifiers = append(input.Identifiers, sisbov("105123456789"))
	result, err := f.svc.Push(context.Background(), input)
	if err != nil {
		t.Fatalf("retry push: %v", err)
	}
	if result.Status != PushCreated {
		t.Errorf("retry status: got %s, want created", result.Status)
	}
}

func TestPush_NoCanonicalIdentifiers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})

	_, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, earTag("A-17")))
	if !errors.Is(err, domain.ErrMissingIdentifier) {
		t.Errorf("error: got %v, want ErrMissingIdentifier", err)
	}
}

func TestPush_PermissionDenied(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})
	viewer := f.newAccount(t, "Vera", "vera@frigorifico.example")
	if err := f.svc.AddMember(context.Background(), circuit.ID, f.owner, viewer, domain.RoleViewer); err != nil {
		t.Fatalf("add viewer: %v", err)
	}
	stranger := f.newAccount(t, "Caio", "caio@example.com")

	for name, requester := range map[string]uuid.UUID{"viewer": viewer, "non-member": stranger} {
		_, err := f.svc.Push(context.Background(), pushInput(circuit.ID, requester, sisbov("105123456789")))
		if !errors.Is(err, domain.ErrPermissionDenied) {
			t.Errorf("%s: got %v, want ErrPermissionDenied", name, err)
		}
	}
}

func TestPush_ArchivedCircuit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})
	if err := f.svc.Archive(context.Background(), circuit.ID, f.owner); err != nil {
		t.Fatalf("archive: %v", err)
	}

	_, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105123456789")))
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("error: got %v, want ErrInvalidTransition", err)
	}
}

func TestPush_MirrorsToAdapter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{
		AdapterConfig: &domain.AdapterConfig{AdapterType: domain.AdapterLocal},
	})

	result, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105123456789")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.StorageStatus != StorageMirrored {
		t.Fatalf("storage: got %s (%v), want mirrored", result.StorageStatus, result.AdapterErr)
	}
	if result.StorageLocation == "" {
		t.Error("storage location is empty")
	}

	records, err := f.history.History(context.Background(), result.DFID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	if !records[0].IsActive {
		t.Error("mirroring record should be active")
	}
	if records[0].Location.Kind != domain.AdapterLocal || records[0].Location.LocalID == "" {
		t.Errorf("record location: %+v", records[0].Location)
	}
}

func TestPush_UnregisteredAdapterDegrades(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{
		AdapterConfig: &domain.AdapterConfig{AdapterType: domain.AdapterIPFS},
	})

	result, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105123456789")))
	if err != nil {
		t.Fatalf("push must not fail on adapter problems: %v", err)
	}

	if result.StorageStatus != StorageFailed {
		t.Errorf("storage: got %s, want failed", result.StorageStatus)
	}
	if !errors.Is(result.AdapterErr, domain.ErrAdapter) {
		t.Errorf("adapter err: got %v, want ErrAdapter", result.AdapterErr)
	}

	// The DFID and mapping are committed regardless.
	if _, err := f.items.GetByDFID(context.Background(), result.DFID); err != nil {
		t.Errorf("item not committed: %v", err)
	}
}

func TestPush_RecordsEvent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})

	result, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105123456789")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evs, err := f.events.ListForItem(context.Background(), result.DFID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	found := false
	for _, ev := range evs {
		if ev.Type == domain.EventPushedToCircuit {
			found = true
		}
	}
	if !found {
		t.Errorf("no pushed_to_circuit event, got %+v", evs)
	}
}

func TestPush_ConcurrentSameIdentity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})

	const pushers = 50
	results := make([]*PushResult, pushers)
	errs := make([]error, pushers)

	var wg sync.WaitGroup
	for i := 0; i < pushers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Push(context.Background(),
				pushInput(circuit.ID, f.owner, sisbov("105123456789")))
		}(i)
	}
	wg.Wait()

	minted := 0
	dfids := map[string]bool{}
	for i := 0; i < pushers; i++ {
		if errs[i] != nil {
			t.Fatalf("push %d: %v", i, errs[i])
		}
		dfids[results[i].DFID] = true
		if results[i].Status == PushCreated {
			minted++
		}
	}

	if len(dfids) != 1 {
		t.Errorf("one identity resolved to %d DFIDs: %v", len(dfids), dfids)
	}
	if minted != 1 {
		t.Errorf("minted %d DFIDs, want exactly 1", minted)
	}

	items, err := f.items.List(context.Background())
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("stored items: got %d, want 1", len(items))
	}
}

func TestPull_Success(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})
	viewer := f.newAccount(t, "Vera", "vera@frigorifico.example")
	if err := f.svc.AddMember(context.Background(), circuit.ID, f.owner, viewer, domain.RoleViewer); err != nil {
		t.Fatalf("add viewer: %v", err)
	}

	pushed, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105123456789")))
	if err != nil {
		t.Fatalf("push: %v", err)
	}

	item, op, err := f.svc.Pull(context.Background(), pushed.DFID, circuit.ID, viewer)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if item.DFID != pushed.DFID {
		t.Errorf("pulled DFID: got %s, want %s", item.DFID, pushed.DFID)
	}
	if op.OperationID == uuid.Nil || op.RequesterID != viewer || op.Timestamp.IsZero() {
		t.Errorf("operation record incomplete: %+v", op)
	}

	evs, _ := f.events.ListForItem(context.Background(), pushed.DFID)
	found := false
	for _, ev := range evs {
		if ev.Type == domain.EventPulledFromCircuit {
			found = true
		}
	}
	if !found {
		t.Error("no pulled_from_circuit event recorded")
	}
}

func TestPull_NotRegistered(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})
	other := f.newCircuit(t, CreateInput{Name: "cadeia-suina"})

	pushed, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105123456789")))
	if err != nil {
		t.Fatalf("push: %v", err)
	}

	// Registered in one circuit, pulled from another.
	_, _, err = f.svc.Pull(context.Background(), pushed.DFID, other.ID, f.owner)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error: got %v, want ErrNotFound", err)
	}
}

func TestPull_NonMember(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	circuit := f.newCircuit(t, CreateInput{})
	stranger := f.newAccount(t, "Caio", "caio@example.com")

	pushed, err := f.svc.Push(context.Background(), pushInput(circuit.ID, f.owner, sisbov("105123456789")))
	if err != nil {
		t.Fatalf("push: %v", err)
	}

	_, _, err = f.svc.Pull(context.Background(), pushed.DFID, circuit.ID, stranger)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("error: got %v, want ErrPermissionDenied", err)
	}
}
