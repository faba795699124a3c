// Package event implements the event repository using PostgreSQL.
// The events table is append-only; there are no UPDATE or DELETE paths.
package event

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/defarm/defarm-backend/internal/adapter/postgres"
	"github.com/defarm/defarm-backend/internal/domain"
)

// Repo provides event persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new event repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Append inserts an event.
func (r *Repo) Append(ctx context.Context, event domain.Event) (*domain.Event, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO events (id, dfid, event_type, source, visibility, is_encrypted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.DFID, string(event.Type), event.Source,
		string(event.Visibility), event.IsEncrypted, event.CreatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "event", event.ID.String())
	}

	return &event, nil
}

const selectEventsByDFIDSQL = `
SELECT id, dfid, event_type, source, visibility, is_encrypted, created_at
FROM events
WHERE dfid = $1
ORDER BY created_at ASC, id ASC`

// ListByDFID returns an item's events in chronological order.
func (r *Repo) ListByDFID(ctx context.Context, dfid string) ([]domain.Event, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, selectEventsByDFIDSQL, dfid)
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", dfid, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

const selectAllEventsSQL = `
SELECT id, dfid, event_type, source, visibility, is_encrypted, created_at
FROM events
ORDER BY created_at ASC, id ASC`

// List returns every event in chronological order.
func (r *Repo) List(ctx context.Context) ([]domain.Event, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, selectAllEventsSQL)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var (
			e          domain.Event
			eventType  string
			visibility string
		)
		if err := rows.Scan(&e.ID, &e.DFID, &eventType, &e.Source, &visibility, &e.IsEncrypted, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = domain.EventType(eventType)
		e.Visibility = domain.Visibility(visibility)
		events = append(events, e)
	}
	return events, rows.Err()
}
