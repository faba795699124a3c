// Package events implements the events engine: an append-only log of item
// lifecycle events. Events are never updated or deleted.
package events

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/defarm/defarm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type eventRepo interface {
	Append(ctx context.Context, event domain.Event) (*domain.Event, error)
	ListByDFID(ctx context.Context, dfid string) ([]domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the events engine.
type Service struct {
	log    *slog.Logger
	events eventRepo
	now    func() time.Time
}

// NewService creates a new Events service.
func NewService(logger *slog.Logger, events eventRepo) *Service {
	return &Service{
		log:    logger.With("service", "events"),
		events: events,
		now:    time.Now,
	}
}

// Record appends a lifecycle event for an item. The encryption flag is
// derived from visibility: private events are flagged encrypted.
func (s *Service) Record(ctx context.Context, dfid string, t domain.EventType, source string, vis domain.Visibility) (*domain.Event, error) {
	if dfid == "" {
		return nil, domain.NewValidationError("dfid", "is required")
	}
	if !t.Valid() {
		return nil, domain.NewValidationError("event_type", "unknown value")
	}
	if !vis.Valid() {
		return nil, domain.NewValidationError("visibility", "unknown value")
	}

	event := domain.NewEvent(dfid, t, source, vis, s.now().UTC())
	created, err := s.events.Append(ctx, event)
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "event recorded",
		slog.String("dfid", dfid),
		slog.String("type", string(t)),
	)
	return created, nil
}

// ListForItem returns an item's events ordered by timestamp ascending.
func (s *Service) ListForItem(ctx context.Context, dfid string) ([]domain.Event, error) {
	if dfid == "" {
		return nil, domain.NewValidationError("dfid", "is required")
	}

	events, err := s.events.ListByDFID(ctx, dfid)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

// ListAll returns every event. Administrative scan.
func (s *Service) ListAll(ctx context.Context) ([]domain.Event, error) {
	return s.events.List(ctx)
}
