// Package mapping implements the LID to DFID mapping repository using
// PostgreSQL. The mapping is what makes re-pushing the same local item
// idempotent.
package mapping

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/defarm/defarm-backend/internal/adapter/postgres"
	"github.com/defarm/defarm-backend/internal/domain"
)

// Repo provides LID mapping persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new mapping repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Store records the mapping from a local ID to its minted DFID. Storing the
// same pair again is a no-op; mapping the local ID to a different DFID
// returns domain.ErrAlreadyExists.
func (r *Repo) Store(ctx context.Context, localID uuid.UUID, dfid string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO lid_dfid_mappings (local_id, dfid)
		 VALUES ($1, $2)
		 ON CONFLICT (local_id) DO NOTHING`,
		localID, dfid,
	)
	if err != nil {
		return postgres.MapError(err, "mapping", localID.String())
	}

	// ON CONFLICT DO NOTHING swallows the idempotent re-store; a conflicting
	// DFID for the same local ID must still surface.
	var existing string
	if err := q.QueryRow(ctx,
		`SELECT dfid FROM lid_dfid_mappings WHERE local_id = $1`, localID,
	).Scan(&existing); err != nil {
		return postgres.MapError(err, "mapping", localID.String())
	}
	if existing != dfid {
		return fmt.Errorf("local item %s already mapped to %s: %w", localID, existing, domain.ErrAlreadyExists)
	}
	return nil
}

// GetDFID returns the DFID mapped to a local ID, or domain.ErrNotFound.
func (r *Repo) GetDFID(ctx context.Context, localID uuid.UUID) (string, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var dfid string
	err := q.QueryRow(ctx,
		`SELECT dfid FROM lid_dfid_mappings WHERE local_id = $1`, localID,
	).Scan(&dfid)
	if err != nil {
		return "", postgres.MapError(err, "mapping", localID.String())
	}
	return dfid, nil
}
