// Package item implements the item repository using PostgreSQL.
// Identifier lists, enrichment data and provenance are stored as JSONB.
package item

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/defarm/defarm-backend/internal/adapter/postgres"
	"github.com/defarm/defarm-backend/internal/domain"
)

// Repo provides item persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new item repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const insertItemSQL = `
INSERT INTO items (dfid, local_id, identifiers, enhanced_identifiers, enriched_data,
                   source_entries, confidence_score, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Create inserts a new item. Returns domain.ErrAlreadyExists when the DFID
// is already taken.
func (r *Repo) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row, err := toRow(item)
	if err != nil {
		return nil, fmt.Errorf("encode item %s: %w", item.DFID, err)
	}

	_, err = q.Exec(ctx, insertItemSQL,
		row.dfid, row.localID, row.identifiers, row.enhanced, row.enriched,
		row.sources, row.confidence, row.status, row.createdAt, row.updatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "item", item.DFID)
	}

	out := *item
	return &out, nil
}

const selectItemSQL = `
SELECT dfid, local_id, identifiers, enhanced_identifiers, enriched_data,
       source_entries, confidence_score, status, created_at, updated_at
FROM items
WHERE dfid = $1`

// GetByDFID returns an item by its DFID.
func (r *Repo) GetByDFID(ctx context.Context, dfid string) (*domain.Item, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var row itemRow
	err := q.QueryRow(ctx, selectItemSQL, dfid).Scan(
		&row.dfid, &row.localID, &row.identifiers, &row.enhanced, &row.enriched,
		&row.sources, &row.confidence, &row.status, &row.createdAt, &row.updatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "item", dfid)
	}

	return row.toDomain()
}

const updateItemSQL = `
UPDATE items
SET local_id = $2, identifiers = $3, enhanced_identifiers = $4, enriched_data = $5,
    source_entries = $6, confidence_score = $7, status = $8, updated_at = $9
WHERE dfid = $1`

// Update replaces the mutable columns of an item.
func (r *Repo) Update(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row, err := toRow(item)
	if err != nil {
		return nil, fmt.Errorf("encode item %s: %w", item.DFID, err)
	}

	tag, err := q.Exec(ctx, updateItemSQL,
		row.dfid, row.localID, row.identifiers, row.enhanced, row.enriched,
		row.sources, row.confidence, row.status, row.updatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "item", item.DFID)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("item %s: %w", item.DFID, domain.ErrNotFound)
	}

	out := *item
	return &out, nil
}

// List returns all items ordered by creation time.
func (r *Repo) List(ctx context.Context) ([]domain.Item, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sq.
		Select("dfid", "local_id", "identifiers", "enhanced_identifiers", "enriched_data",
			"source_entries", "confidence_score", "status", "created_at", "updated_at").
		From("items").
		OrderBy("created_at ASC, dfid ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var row itemRow
		if err := rows.Scan(
			&row.dfid, &row.localID, &row.identifiers, &row.enhanced, &row.enriched,
			&row.sources, &row.confidence, &row.status, &row.createdAt, &row.updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
