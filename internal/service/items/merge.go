package items

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/defarm/defarm-backend/internal/domain"
)

// Merge unions the secondary item's identifiers and enriched data into the
// primary and marks the secondary Merged — a terminal, irreversible state.
// Fails with domain.ErrInvalidTransition when either item is already
// Merged or Deprecated.
func (s *Service) Merge(ctx context.Context, primaryDFID, secondaryDFID string) (*domain.Item, error) {
	if primaryDFID == "" || secondaryDFID == "" {
		return nil, domain.NewValidationError("dfid", "both primary and secondary are required")
	}
	if primaryDFID == secondaryDFID {
		return nil, domain.NewValidationError("dfid", "cannot merge an item into itself")
	}

	var merged *domain.Item
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		primary, err := s.items.GetByDFID(txCtx, primaryDFID)
		if err != nil {
			return err
		}
		secondary, err := s.items.GetByDFID(txCtx, secondaryDFID)
		if err != nil {
			return err
		}

		if primary.Status.Terminal() {
			return fmt.Errorf("primary %s is %s: %w", primary.DFID, primary.Status, domain.ErrInvalidTransition)
		}
		if err := secondary.EnsureTransitionTo(domain.ItemStatusMerged); err != nil {
			return err
		}

		now := s.now().UTC()

		primary.MergeIdentifiers(secondary.AllIdentifiers())
		primary.MergeEnrichment(secondary.EnrichedData)
		for _, entry := range secondary.SourceEntries {
			primary.AddSourceEntry(entry)
		}
		primary.UpdatedAt = now

		secondary.Status = domain.ItemStatusMerged
		secondary.UpdatedAt = now

		merged, err = s.items.Update(txCtx, primary)
		if err != nil {
			return fmt.Errorf("update primary: %w", err)
		}
		if _, err := s.items.Update(txCtx, secondary); err != nil {
			return fmt.Errorf("update secondary: %w", err)
		}
		if _, err := s.events.Record(txCtx, primaryDFID, domain.EventMerged, "items", domain.VisibilityPublic); err != nil {
			return err
		}
		_, err = s.events.Record(txCtx, secondaryDFID, domain.EventMerged, "items", domain.VisibilityPublic)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "items merged",
		slog.String("primary", primaryDFID),
		slog.String("secondary", secondaryDFID),
	)
	return merged, nil
}
