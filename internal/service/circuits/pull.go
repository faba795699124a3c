package circuits

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/domain"
)

// Pull retrieves the current state of an item shared through a circuit and
// records the pull as an operation.
func (s *Service) Pull(ctx context.Context, dfid string, circuitID, requesterID uuid.UUID) (*domain.Item, *PullOperation, error) {
	if dfid == "" {
		return nil, nil, domain.NewValidationError("dfid", "is required")
	}

	circuit, err := s.circuits.Get(ctx, circuitID)
	if err != nil {
		return nil, nil, err
	}
	if !circuit.HasPermission(requesterID, domain.PermissionPull) {
		return nil, nil, fmt.Errorf("pull from circuit %s: %w", circuitID, domain.ErrPermissionDenied)
	}

	registered, err := s.circuits.IsItemRegistered(ctx, circuitID, dfid)
	if err != nil {
		return nil, nil, err
	}
	if !registered {
		return nil, nil, fmt.Errorf("item %s not in circuit %s: %w", dfid, circuitID, domain.ErrNotFound)
	}

	item, err := s.items.GetByDFID(ctx, dfid)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.events.Record(ctx, dfid, domain.EventPulledFromCircuit, "circuits", domain.VisibilityPublic); err != nil {
		return nil, nil, err
	}

	op := &PullOperation{
		OperationID: uuid.New(),
		DFID:        dfid,
		RequesterID: requesterID,
		Timestamp:   s.now().UTC(),
	}

	s.log.DebugContext(ctx, "item pulled",
		slog.String("circuit_id", circuitID.String()),
		slog.String("dfid", dfid),
	)
	return item, op, nil
}
