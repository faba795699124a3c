package item

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/domain"
)

// itemRow mirrors the items table layout. JSONB columns travel as raw bytes.
type itemRow struct {
	dfid        string
	localID     *uuid.UUID
	identifiers []byte
	enhanced    []byte
	enriched    []byte
	sources     []byte
	confidence  float64
	status      string
	createdAt   time.Time
	updatedAt   time.Time
}

func toRow(item *domain.Item) (*itemRow, error) {
	identifiers, err := json.Marshal(item.Identifiers)
	if err != nil {
		return nil, fmt.Errorf("marshal identifiers: %w", err)
	}
	enhanced, err := json.Marshal(item.EnhancedIdentifiers)
	if err != nil {
		return nil, fmt.Errorf("marshal enhanced identifiers: %w", err)
	}
	enriched, err := json.Marshal(item.EnrichedData)
	if err != nil {
		return nil, fmt.Errorf("marshal enriched data: %w", err)
	}
	sources, err := json.Marshal(item.SourceEntries)
	if err != nil {
		return nil, fmt.Errorf("marshal source entries: %w", err)
	}

	return &itemRow{
		dfid:        item.DFID,
		localID:     item.LocalID,
		identifiers: identifiers,
		enhanced:    enhanced,
		enriched:    enriched,
		sources:     sources,
		confidence:  item.ConfidenceScore,
		status:      string(item.Status),
		createdAt:   item.CreatedAt,
		updatedAt:   item.UpdatedAt,
	}, nil
}

func (r *itemRow) toDomain() (*domain.Item, error) {
	item := &domain.Item{
		DFID:            r.dfid,
		LocalID:         r.localID,
		ConfidenceScore: r.confidence,
		Status:          domain.ItemStatus(r.status),
		CreatedAt:       r.createdAt,
		UpdatedAt:       r.updatedAt,
	}

	if err := json.Unmarshal(r.identifiers, &item.Identifiers); err != nil {
		return nil, fmt.Errorf("unmarshal identifiers for %s: %w", r.dfid, err)
	}
	if err := json.Unmarshal(r.enhanced, &item.EnhancedIdentifiers); err != nil {
		return nil, fmt.Errorf("unmarshal enhanced identifiers for %s: %w", r.dfid, err)
	}
	if err := json.Unmarshal(r.enriched, &item.EnrichedData); err != nil {
		return nil, fmt.Errorf("unmarshal enriched data for %s: %w", r.dfid, err)
	}
	if err := json.Unmarshal(r.sources, &item.SourceEntries); err != nil {
		return nil, fmt.Errorf("unmarshal source entries for %s: %w", r.dfid, err)
	}

	return item, nil
}
