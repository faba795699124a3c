package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the lifecycle state of an item.
type ItemStatus string

const (
	ItemStatusActive     ItemStatus = "active"
	ItemStatusMerged     ItemStatus = "merged"
	ItemStatusDeprecated ItemStatus = "deprecated"
)

// Valid reports whether the status is a known value.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusActive, ItemStatusMerged, ItemStatusDeprecated:
		return true
	}
	return false
}

// Terminal reports whether the status allows no further transitions.
func (s ItemStatus) Terminal() bool {
	return s == ItemStatusMerged || s == ItemStatusDeprecated
}

// LIDPrefix marks a placeholder DFID for an item that has not been
// tokenized into any circuit yet.
const LIDPrefix = "LID-"

// NewLID builds the placeholder DFID for a local item.
func NewLID(localID uuid.UUID) string {
	return LIDPrefix + localID.String()
}

// Item represents one real-world entity tracked by the platform.
//
// DFID is immutable once assigned by tokenization; only Status transitions
// afterward, and only one-way (Active→Merged or Active→Deprecated).
type Item struct {
	DFID                string
	LocalID             *uuid.UUID
	Identifiers         []Identifier
	EnhancedIdentifiers []Identifier
	EnrichedData        map[string]any
	SourceEntries       []uuid.UUID
	ConfidenceScore     float64
	Status              ItemStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocal reports whether the item still carries a LID placeholder,
// i.e. it has not been pushed into any circuit.
func (it *Item) IsLocal() bool {
	return len(it.DFID) >= len(LIDPrefix) && it.DFID[:len(LIDPrefix)] == LIDPrefix
}

// AllIdentifiers returns the legacy and enhanced identifier lists combined.
func (it *Item) AllIdentifiers() []Identifier {
	out := make([]Identifier, 0, len(it.Identifiers)+len(it.EnhancedIdentifiers))
	out = append(out, it.Identifiers...)
	out = append(out, it.EnhancedIdentifiers...)
	return out
}

// AddSourceEntry appends a provenance reference if not already present.
// Source entries are append-only.
func (it *Item) AddSourceEntry(entry uuid.UUID) {
	for _, e := range it.SourceEntries {
		if e == entry {
			return
		}
	}
	it.SourceEntries = append(it.SourceEntries, entry)
}

// MergeEnrichment merges data into EnrichedData, last write wins per key.
func (it *Item) MergeEnrichment(data map[string]any) {
	if len(data) == 0 {
		return
	}
	if it.EnrichedData == nil {
		it.EnrichedData = make(map[string]any, len(data))
	}
	for k, v := range data {
		it.EnrichedData[k] = v
	}
}

// MergeIdentifiers appends identifiers that are not already present
// (dedup on the normalized namespace:key=value triple).
func (it *Item) MergeIdentifiers(ids []Identifier) {
	for _, id := range ids {
		dup := false
		for _, have := range it.EnhancedIdentifiers {
			if have.EqualCanonical(id) {
				dup = true
				break
			}
		}
		if !dup {
			it.EnhancedIdentifiers = append(it.EnhancedIdentifiers, id)
		}
	}
}

// EnsureTransitionTo validates a status transition. Transitions out of a
// terminal state are rejected; Deprecate on an already-deprecated item is
// the caller's idempotency case, not handled here.
func (it *Item) EnsureTransitionTo(next ItemStatus) error {
	if it.Status.Terminal() {
		return fmt.Errorf("item %s is %s: %w", it.DFID, it.Status, ErrInvalidTransition)
	}
	if !next.Valid() {
		return fmt.Errorf("status %q: %w", next, ErrValidation)
	}
	return nil
}

// ItemStatistics is the result of a full-scan aggregation over items.
type ItemStatistics struct {
	Total             int
	Active            int
	Deprecated        int
	Merged            int
	TotalIdentifiers  int
	AverageConfidence float64
}
