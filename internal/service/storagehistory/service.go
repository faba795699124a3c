// Package storagehistory implements the storage history manager: the
// per-DFID ledger of external storage operations and the append-only CID
// timeline.
package storagehistory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ipfs/go-cid"

	"github.com/defarm/defarm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type recordRepo interface {
	Insert(ctx context.Context, record domain.StorageRecord) (*domain.StorageRecord, error)
	DeactivateActive(ctx context.Context, dfid string, t domain.AdapterType) error
	ListByDFID(ctx context.Context, dfid string) ([]domain.StorageRecord, error)
}

type timelineRepo interface {
	Append(ctx context.Context, entry domain.TimelineEntry) error
	ListByDFID(ctx context.Context, dfid string) ([]domain.TimelineEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the storage history manager.
type Service struct {
	log      *slog.Logger
	records  recordRepo
	timeline timelineRepo
	tx       txManager
	now      func() time.Time
}

// NewService creates a new StorageHistory service.
func NewService(logger *slog.Logger, records recordRepo, timeline timelineRepo, tx txManager) *Service {
	return &Service{
		log:      logger.With("service", "storagehistory"),
		records:  records,
		timeline: timeline,
		tx:       tx,
		now:      time.Now,
	}
}

// AddRecord appends a storage record for a DFID. Any active record for the
// same (DFID, adapter type) is flipped inactive first, so at most one
// record per pair is active. Superseded records are kept, never deleted.
func (s *Service) AddRecord(ctx context.Context, record domain.StorageRecord) (*domain.StorageRecord, error) {
	if record.DFID == "" {
		return nil, domain.NewValidationError("dfid", "is required")
	}
	if !record.AdapterType.Valid() {
		return nil, domain.NewValidationError("adapter_type", "unknown value")
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.StoredAt.IsZero() {
		record.StoredAt = s.now().UTC()
	}
	record.IsActive = true

	var created *domain.StorageRecord
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.records.DeactivateActive(txCtx, record.DFID, record.AdapterType); err != nil {
			return fmt.Errorf("deactivate prior records: %w", err)
		}
		var err error
		created, err = s.records.Insert(txCtx, record)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "storage record added",
		slog.String("dfid", record.DFID),
		slog.String("adapter", string(record.AdapterType)),
	)
	return created, nil
}

// History returns a DFID's storage records in insertion order.
// An item with no history yields an empty slice, not an error.
func (s *Service) History(ctx context.Context, dfid string) ([]domain.StorageRecord, error) {
	if dfid == "" {
		return nil, domain.NewValidationError("dfid", "is required")
	}
	return s.records.ListByDFID(ctx, dfid)
}

// AppendTimeline records blockchain evidence for a DFID. Pure append; prior
// entries are never touched. A non-empty CID must parse as a valid CID.
func (s *Service) AppendTimeline(ctx context.Context, entry domain.TimelineEntry) error {
	if entry.DFID == "" {
		return domain.NewValidationError("dfid", "is required")
	}
	if entry.CID == "" && entry.TxHash == "" {
		return domain.NewValidationError("entry", "cid or tx_hash is required")
	}
	if entry.CID != "" {
		if _, err := cid.Decode(entry.CID); err != nil {
			return domain.NewValidationError("cid", "not a valid CID")
		}
	}
	if entry.LedgerAt.IsZero() {
		entry.LedgerAt = s.now().UTC()
	}
	return s.timeline.Append(ctx, entry)
}

// Timeline returns a DFID's timeline entries ordered by ledger timestamp.
func (s *Service) Timeline(ctx context.Context, dfid string) ([]domain.TimelineEntry, error) {
	if dfid == "" {
		return nil, domain.NewValidationError("dfid", "is required")
	}

	entries, err := s.timeline.ListByDFID(ctx, dfid)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LedgerAt.Before(entries[j].LedgerAt)
	})
	return entries, nil
}
