// Package items implements the items engine: creation, enrichment, merging,
// and deprecation of tracked items.
package items

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type itemRepo interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	GetByDFID(ctx context.Context, dfid string) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) (*domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
}

type eventRecorder interface {
	Record(ctx context.Context, dfid string, t domain.EventType, source string, vis domain.Visibility) (*domain.Event, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the items engine.
type Service struct {
	log    *slog.Logger
	items  itemRepo
	events eventRecorder
	tx     txManager
	now    func() time.Time
}

// NewService creates a new Items service.
func NewService(logger *slog.Logger, items itemRepo, events eventRecorder, tx txManager) *Service {
	return &Service{
		log:    logger.With("service", "items"),
		items:  items,
		events: events,
		tx:     tx,
		now:    time.Now,
	}
}

// Create registers an item under a caller-supplied DFID. This is the legacy
// path for pre-tokenized or migrated items; new items go through CreateLocal
// and circuit push. Fails with domain.ErrAlreadyExists when the DFID is taken.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Item, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &domain.Item{
		DFID:            input.DFID,
		Identifiers:     input.Identifiers,
		EnrichedData:    map[string]any{},
		ConfidenceScore: 1.0,
		Status:          domain.ItemStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	item.AddSourceEntry(input.SourceEntry)

	var created *domain.Item
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.items.Create(txCtx, item)
		if err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		_, err = s.events.Record(txCtx, created.DFID, domain.EventCreated, input.Source, domain.VisibilityPublic)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "item created", slog.String("dfid", created.DFID))
	return created, nil
}

// CreateLocal registers an item that has not been admitted to any circuit.
// It generates a fresh local ID and the LID placeholder DFID.
func (s *Service) CreateLocal(ctx context.Context, input CreateLocalInput) (*domain.Item, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	localID := uuid.New()
	now := s.now().UTC()
	item := &domain.Item{
		DFID:                domain.NewLID(localID),
		LocalID:             &localID,
		Identifiers:         input.Identifiers,
		EnhancedIdentifiers: input.EnhancedIdentifiers,
		EnrichedData:        map[string]any{},
		ConfidenceScore:     1.0,
		Status:              domain.ItemStatusActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	item.AddSourceEntry(input.SourceEntry)

	created, err := s.items.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create local item: %w", err)
	}

	s.log.DebugContext(ctx, "local item created",
		slog.String("local_id", localID.String()),
		slog.String("lid", created.DFID),
	)
	return created, nil
}

// Get returns the item for a DFID.
func (s *Service) Get(ctx context.Context, dfid string) (*domain.Item, error) {
	return s.items.GetByDFID(ctx, dfid)
}

// Enrich merges data into the item's enriched data, last write wins per key,
// and appends the source entry to provenance.
func (s *Service) Enrich(ctx context.Context, input EnrichInput) (*domain.Item, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Item
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.items.GetByDFID(txCtx, input.DFID)
		if err != nil {
			return err
		}

		item.MergeEnrichment(input.Data)
		item.AddSourceEntry(input.SourceEntry)
		item.UpdatedAt = s.now().UTC()

		updated, err = s.items.Update(txCtx, item)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		_, err = s.events.Record(txCtx, item.DFID, domain.EventEnriched, input.Source, domain.VisibilityPublic)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "item enriched",
		slog.String("dfid", updated.DFID),
		slog.Int("keys", len(input.Data)),
	)
	return updated, nil
}

// Deprecate marks an item deprecated. Idempotent when already deprecated;
// fails with domain.ErrInvalidTransition when the item was merged away.
func (s *Service) Deprecate(ctx context.Context, dfid string) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.items.GetByDFID(txCtx, dfid)
		if err != nil {
			return err
		}

		if item.Status == domain.ItemStatusDeprecated {
			return nil
		}
		if err := item.EnsureTransitionTo(domain.ItemStatusDeprecated); err != nil {
			return err
		}

		item.Status = domain.ItemStatusDeprecated
		item.UpdatedAt = s.now().UTC()
		if _, err := s.items.Update(txCtx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		_, err = s.events.Record(txCtx, dfid, domain.EventDeprecated, "items", domain.VisibilityPublic)
		return err
	})
}
