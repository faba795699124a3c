package circuits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/adapter/storage"
	"github.com/defarm/defarm-backend/internal/domain"
)

// Push admits a local item into a circuit. It deduplicates against existing
// canonical identities in the circuit, assigns or reuses a DFID, and commits
// the LID→DFID mapping before the best-effort adapter mirroring step.
//
// The dedup check and the mint/mapping write run under a lock keyed by
// (circuit, canonical identity) plus a transaction, so two concurrent pushes
// of the same real-world entity can never mint two DFIDs. An adapter failure
// degrades the result (StorageFailed) but never rolls back the mapping.
func (s *Service) Push(ctx context.Context, input PushInput) (*PushResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	circuit, err := s.circuits.Get(ctx, input.CircuitID)
	if err != nil {
		return nil, err
	}
	if !circuit.HasPermission(input.RequesterID, domain.PermissionPush) {
		return nil, fmt.Errorf("push to circuit %s: %w", circuit.ID, domain.ErrPermissionDenied)
	}
	if circuit.Status != domain.CircuitStatusActive {
		return nil, fmt.Errorf("circuit %s is archived: %w", circuit.ID, domain.ErrInvalidTransition)
	}

	for _, key := range circuit.RequiredCanonicalKeys() {
		if !domain.HasCanonicalKey(input.Identifiers, key) {
			return nil, fmt.Errorf("canonical identifier %q: %w", key, domain.ErrMissingIdentifier)
		}
	}

	fingerprint := domain.Fingerprint(input.Identifiers)
	if fingerprint == "" {
		return nil, fmt.Errorf("item has no canonical identifiers: %w", domain.ErrMissingIdentifier)
	}

	// Idempotent re-push: a local item is mapped exactly once.
	if dfid, err := s.mappings.GetDFID(ctx, input.LocalID); err == nil {
		result := &PushResult{DFID: dfid, Status: PushDeduplicated, StorageStatus: StorageSkipped}
		s.mirror(ctx, circuit, result)
		return result, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// Critical section: dedup check and mint/mapping write must not be
	// observably separable to a concurrent push of the same identity.
	lockKey := circuit.Namespace() + "/" + fingerprint
	s.locks.Lock(lockKey)

	result, err := s.resolveAndCommit(ctx, circuit, input, fingerprint)
	s.locks.Unlock(lockKey)
	if err != nil {
		return nil, err
	}

	// Mirroring happens after the mapping commit so a slow or failing
	// adapter never blocks dedup correctness.
	s.mirror(ctx, circuit, result)

	if _, err := s.events.Record(ctx, result.DFID, domain.EventPushedToCircuit, "circuits", domain.VisibilityPublic); err != nil {
		s.log.WarnContext(ctx, "push event not recorded",
			slog.String("dfid", result.DFID),
			slog.String("error", err.Error()),
		)
	}

	s.log.InfoContext(ctx, "item pushed",
		slog.String("circuit_id", circuit.ID.String()),
		slog.String("dfid", result.DFID),
		slog.String("status", string(result.Status)),
		slog.String("storage", string(result.StorageStatus)),
	)
	return result, nil
}

// resolveAndCommit runs the dedup lookup and, depending on the outcome,
// either records an extra mapping onto the existing DFID (implicit
// enrichment) or mints a new DFID and tokenizes the item. Runs inside one
// transaction under the caller-held identity lock.
func (s *Service) resolveAndCommit(ctx context.Context, circuit *domain.Circuit, input PushInput, fingerprint string) (*PushResult, error) {
	var result *PushResult

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.circuits.FindDFIDByIdentityKey(txCtx, circuit.ID, fingerprint)
		switch {
		case err == nil:
			result, err = s.dedupOnto(txCtx, existing, input)
			return err
		case errors.Is(err, domain.ErrNotFound):
			result, err = s.mint(txCtx, circuit, input, fingerprint)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// dedupOnto maps the local item onto an already-registered DFID and merges
// any new contextual identifiers and enriched data into the existing item.
func (s *Service) dedupOnto(ctx context.Context, dfid string, input PushInput) (*PushResult, error) {
	if err := s.mappings.Store(ctx, input.LocalID, dfid); err != nil {
		return nil, fmt.Errorf("store mapping: %w", err)
	}

	item, err := s.items.GetByDFID(ctx, dfid)
	if err != nil {
		return nil, err
	}

	item.MergeIdentifiers(domain.ContextualOf(input.Identifiers))
	item.MergeEnrichment(input.EnrichedData)
	if input.SourceEntry != uuid.Nil {
		item.AddSourceEntry(input.SourceEntry)
	}
	item.UpdatedAt = s.now().UTC()
	if _, err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("merge into existing item: %w", err)
	}

	return &PushResult{DFID: dfid, Status: PushDeduplicated, StorageStatus: StorageSkipped}, nil
}

// mint tokenizes the local item: new DFID, registration in the circuit's
// dedup index, and the one-time LID→DFID mapping.
func (s *Service) mint(ctx context.Context, circuit *domain.Circuit, input PushInput, fingerprint string) (*PushResult, error) {
	dfid := s.dfids.Generate()
	now := s.now().UTC()

	item := &domain.Item{
		DFID:                dfid,
		LocalID:             &input.LocalID,
		EnhancedIdentifiers: input.Identifiers,
		EnrichedData:        input.EnrichedData,
		ConfidenceScore:     1.0,
		Status:              domain.ItemStatusActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if input.SourceEntry != uuid.Nil {
		item.AddSourceEntry(input.SourceEntry)
	}

	if _, err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("tokenize item: %w", err)
	}
	if err := s.circuits.RegisterItem(ctx, circuit.ID, dfid, fingerprint); err != nil {
		return nil, fmt.Errorf("register item in circuit: %w", err)
	}
	if err := s.mappings.Store(ctx, input.LocalID, dfid); err != nil {
		return nil, fmt.Errorf("store mapping: %w", err)
	}

	return &PushResult{DFID: dfid, Status: PushCreated, StorageStatus: StorageSkipped}, nil
}

// mirror invokes the circuit's configured adapter and records the outcome.
// Best-effort: failures mark the result degraded, nothing is rolled back.
func (s *Service) mirror(ctx context.Context, circuit *domain.Circuit, result *PushResult) {
	cfg := circuit.AdapterConfig
	if cfg == nil {
		result.StorageStatus = StorageSkipped
		return
	}

	adapter, ok := s.adapters.Get(cfg.AdapterType)
	if !ok {
		result.StorageStatus = StorageFailed
		result.AdapterType = cfg.AdapterType
		result.AdapterErr = fmt.Errorf("adapter %s not registered: %w", cfg.AdapterType, domain.ErrAdapter)
		return
	}
	result.AdapterType = cfg.AdapterType

	item, err := s.items.GetByDFID(ctx, result.DFID)
	if err != nil {
		result.StorageStatus = StorageFailed
		result.AdapterErr = err
		return
	}

	stored, err := adapter.StoreItem(ctx, item)
	if err != nil {
		result.StorageStatus = StorageFailed
		result.AdapterErr = err
		s.log.WarnContext(ctx, "adapter mirroring failed",
			slog.String("dfid", result.DFID),
			slog.String("adapter", string(cfg.AdapterType)),
			slog.String("error", err.Error()),
		)
		return
	}

	record := domain.StorageRecord{
		DFID:        result.DFID,
		AdapterType: cfg.AdapterType,
		Location:    locationFrom(cfg.AdapterType, stored),
		StoredAt:    stored.CreatedAt,
		TriggeredBy: "push",
	}
	if _, err := s.history.AddRecord(ctx, record); err != nil {
		result.StorageStatus = StorageFailed
		result.AdapterErr = err
		return
	}

	if ev := stored.Evidence; ev != nil {
		entry := domain.TimelineEntry{
			DFID:     result.DFID,
			CID:      ev.CID,
			TxHash:   ev.TxHash,
			LedgerAt: ev.LedgerAt,
			Network:  ev.Network,
		}
		if err := s.history.AppendTimeline(ctx, entry); err != nil {
			s.log.WarnContext(ctx, "timeline append failed",
				slog.String("dfid", result.DFID),
				slog.String("error", err.Error()),
			)
		}
	}

	result.StorageStatus = StorageMirrored
	result.StorageLocation = stored.ItemLocation
}

// locationFrom builds the adapter-specific storage location variant.
func locationFrom(t domain.AdapterType, res *storage.Result) domain.StorageLocation {
	loc := domain.StorageLocation{Kind: t}
	switch t {
	case domain.AdapterIPFS:
		loc.CID = res.ItemLocation
		loc.Pinned = true
	case domain.AdapterStellar:
		loc.TransactionID = res.ItemLocation
	case domain.AdapterLocal:
		loc.LocalID = res.ItemLocation
	}
	return loc
}
