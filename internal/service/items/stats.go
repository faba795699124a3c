package items

import (
	"context"
	"fmt"

	"github.com/defarm/defarm-backend/internal/domain"
)

// Statistics aggregates counters over all items by full scan. Authoritative
// state lives in the storage backend, so nothing is cached between calls.
func (s *Service) Statistics(ctx context.Context) (*domain.ItemStatistics, error) {
	all, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	stats := &domain.ItemStatistics{Total: len(all)}
	var confidenceSum float64
	for _, item := range all {
		switch item.Status {
		case domain.ItemStatusActive:
			stats.Active++
		case domain.ItemStatusDeprecated:
			stats.Deprecated++
		case domain.ItemStatusMerged:
			stats.Merged++
		}
		stats.TotalIdentifiers += len(item.Identifiers) + len(item.EnhancedIdentifiers)
		confidenceSum += item.ConfidenceScore
	}
	if stats.Total > 0 {
		stats.AverageConfidence = confidenceSum / float64(stats.Total)
	}
	return stats, nil
}
