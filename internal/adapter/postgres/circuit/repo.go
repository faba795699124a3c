// Package circuit implements the circuit repository using PostgreSQL.
// It also owns the circuit_items table, the per-circuit registration index
// that maps canonical identity keys to DFIDs. A unique index on
// (circuit_id, identity_key) enforces one DFID per identity at the
// database level.
package circuit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/defarm/defarm-backend/internal/adapter/postgres"
	"github.com/defarm/defarm-backend/internal/domain"
)

// Repo provides circuit persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new circuit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const insertCircuitSQL = `
INSERT INTO circuits (id, name, description, owner_id, members, alias_config,
                      adapter_config, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Create inserts a new circuit.
func (r *Repo) Create(ctx context.Context, circuit *domain.Circuit) (*domain.Circuit, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row, err := toRow(circuit)
	if err != nil {
		return nil, fmt.Errorf("encode circuit %s: %w", circuit.ID, err)
	}

	_, err = q.Exec(ctx, insertCircuitSQL,
		row.id, row.name, row.description, row.ownerID, row.members,
		row.aliasConfig, row.adapterConfig, row.status, row.createdAt, row.updatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "circuit", circuit.ID.String())
	}

	out := *circuit
	return &out, nil
}

const selectCircuitSQL = `
SELECT id, name, description, owner_id, members, alias_config,
       adapter_config, status, created_at, updated_at
FROM circuits
WHERE id = $1`

// Get returns a circuit by ID.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*domain.Circuit, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var row circuitRow
	err := q.QueryRow(ctx, selectCircuitSQL, id).Scan(
		&row.id, &row.name, &row.description, &row.ownerID, &row.members,
		&row.aliasConfig, &row.adapterConfig, &row.status, &row.createdAt, &row.updatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "circuit", id.String())
	}

	return row.toDomain()
}

const updateCircuitSQL = `
UPDATE circuits
SET name = $2, description = $3, members = $4, alias_config = $5,
    adapter_config = $6, status = $7, updated_at = $8
WHERE id = $1`

// Update replaces the mutable columns of a circuit.
func (r *Repo) Update(ctx context.Context, circuit *domain.Circuit) (*domain.Circuit, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row, err := toRow(circuit)
	if err != nil {
		return nil, fmt.Errorf("encode circuit %s: %w", circuit.ID, err)
	}

	tag, err := q.Exec(ctx, updateCircuitSQL,
		row.id, row.name, row.description, row.members,
		row.aliasConfig, row.adapterConfig, row.status, row.updatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "circuit", circuit.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("circuit %s: %w", circuit.ID, domain.ErrNotFound)
	}

	out := *circuit
	return &out, nil
}

const listCircuitsSQL = `
SELECT id, name, description, owner_id, members, alias_config,
       adapter_config, status, created_at, updated_at
FROM circuits
ORDER BY created_at ASC, id ASC`

// List returns all circuits ordered by creation time.
func (r *Repo) List(ctx context.Context) ([]domain.Circuit, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listCircuitsSQL)
	if err != nil {
		return nil, fmt.Errorf("list circuits: %w", err)
	}
	defer rows.Close()

	var circuits []domain.Circuit
	for rows.Next() {
		var row circuitRow
		if err := rows.Scan(
			&row.id, &row.name, &row.description, &row.ownerID, &row.members,
			&row.aliasConfig, &row.adapterConfig, &row.status, &row.createdAt, &row.updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan circuit: %w", err)
		}
		circuit, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		circuits = append(circuits, *circuit)
	}
	return circuits, rows.Err()
}

// FindDFIDByIdentityKey looks up the DFID already registered for a canonical
// identity key within the circuit. Returns domain.ErrNotFound when no item
// with that identity has been pushed yet.
func (r *Repo) FindDFIDByIdentityKey(ctx context.Context, circuitID uuid.UUID, identityKey string) (string, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var dfid string
	err := q.QueryRow(ctx,
		`SELECT dfid FROM circuit_items WHERE circuit_id = $1 AND identity_key = $2`,
		circuitID, identityKey,
	).Scan(&dfid)
	if err != nil {
		return "", postgres.MapError(err, "circuit item", identityKey)
	}
	return dfid, nil
}

// RegisterItem records a DFID in the circuit under its identity key.
// The unique index on (circuit_id, identity_key) turns a concurrent
// double-registration into domain.ErrAlreadyExists.
func (r *Repo) RegisterItem(ctx context.Context, circuitID uuid.UUID, dfid, identityKey string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO circuit_items (circuit_id, dfid, identity_key, registered_at)
		 VALUES ($1, $2, $3, $4)`,
		circuitID, dfid, identityKey, time.Now().UTC(),
	)
	if err != nil {
		return postgres.MapError(err, "circuit item", dfid)
	}
	return nil
}

// IsItemRegistered reports whether the DFID is registered in the circuit.
func (r *Repo) IsItemRegistered(ctx context.Context, circuitID uuid.UUID, dfid string) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM circuit_items WHERE circuit_id = $1 AND dfid = $2)`,
		circuitID, dfid,
	).Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err, "circuit item", dfid)
	}
	return exists, nil
}
