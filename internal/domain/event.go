package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies lifecycle events.
type EventType string

const (
	EventCreated           EventType = "created"
	EventEnriched          EventType = "enriched"
	EventMerged            EventType = "merged"
	EventDeprecated        EventType = "deprecated"
	EventPushedToCircuit   EventType = "pushed_to_circuit"
	EventPulledFromCircuit EventType = "pulled_from_circuit"
)

// Valid reports whether the event type is a known value.
func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventEnriched, EventMerged, EventDeprecated,
		EventPushedToCircuit, EventPulledFromCircuit:
		return true
	}
	return false
}

// Visibility controls who may read an event's payload.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether the visibility is a known value.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Event is an immutable lifecycle record for an item. Events are never
// updated or deleted. IsEncrypted is derived: true iff visibility is private.
type Event struct {
	ID          uuid.UUID
	DFID        string
	Type        EventType
	Source      string
	Visibility  Visibility
	IsEncrypted bool
	CreatedAt   time.Time
}

// NewEvent builds an event with the derived encryption flag set.
func NewEvent(dfid string, t EventType, source string, vis Visibility, now time.Time) Event {
	return Event{
		ID:          uuid.New(),
		DFID:        dfid,
		Type:        t,
		Source:      source,
		Visibility:  vis,
		IsEncrypted: vis == VisibilityPrivate,
		CreatedAt:   now,
	}
}
