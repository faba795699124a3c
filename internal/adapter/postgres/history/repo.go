// Package history implements the storage history repositories using
// PostgreSQL: the per-DFID ledger of external storage records and the
// append-only blockchain evidence timeline.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/defarm/defarm-backend/internal/adapter/postgres"
	"github.com/defarm/defarm-backend/internal/domain"
)

// RecordRepo provides storage record persistence backed by PostgreSQL.
// A partial unique index on (dfid, adapter_type) WHERE is_active guards
// the single-active-record invariant.
type RecordRepo struct {
	pool *pgxpool.Pool
}

// NewRecordRepo creates a new storage record repository.
func NewRecordRepo(pool *pgxpool.Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

// Insert appends a storage record.
func (r *RecordRepo) Insert(ctx context.Context, record domain.StorageRecord) (*domain.StorageRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	location, err := json.Marshal(record.Location)
	if err != nil {
		return nil, fmt.Errorf("marshal location: %w", err)
	}
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = q.Exec(ctx,
		`INSERT INTO storage_records (id, dfid, adapter_type, location, stored_at,
		                              triggered_by, is_active, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, record.DFID, string(record.AdapterType), location,
		record.StoredAt, record.TriggeredBy, record.IsActive, metadata,
	)
	if err != nil {
		return nil, postgres.MapError(err, "storage record", record.DFID)
	}

	return &record, nil
}

// DeactivateActive flips the currently active record for (dfid, adapter type)
// to inactive. No active record is not an error.
func (r *RecordRepo) DeactivateActive(ctx context.Context, dfid string, t domain.AdapterType) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`UPDATE storage_records SET is_active = FALSE
		 WHERE dfid = $1 AND adapter_type = $2 AND is_active`,
		dfid, string(t),
	)
	if err != nil {
		return postgres.MapError(err, "storage record", dfid)
	}
	return nil
}

const selectRecordsSQL = `
SELECT id, dfid, adapter_type, location, stored_at, triggered_by, is_active, metadata
FROM storage_records
WHERE dfid = $1
ORDER BY seq ASC`

// ListByDFID returns an item's storage records in insertion order.
func (r *RecordRepo) ListByDFID(ctx context.Context, dfid string) ([]domain.StorageRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, selectRecordsSQL, dfid)
	if err != nil {
		return nil, fmt.Errorf("list storage records for %s: %w", dfid, err)
	}
	defer rows.Close()

	var records []domain.StorageRecord
	for rows.Next() {
		var (
			rec         domain.StorageRecord
			adapterType string
			location    []byte
			metadata    []byte
		)
		if err := rows.Scan(&rec.ID, &rec.DFID, &adapterType, &location,
			&rec.StoredAt, &rec.TriggeredBy, &rec.IsActive, &metadata); err != nil {
			return nil, fmt.Errorf("scan storage record: %w", err)
		}
		rec.AdapterType = domain.AdapterType(adapterType)
		if err := json.Unmarshal(location, &rec.Location); err != nil {
			return nil, fmt.Errorf("unmarshal location for %s: %w", dfid, err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", dfid, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// TimelineRepo provides blockchain timeline persistence backed by PostgreSQL.
// Entries are strictly append-only.
type TimelineRepo struct {
	pool *pgxpool.Pool
}

// NewTimelineRepo creates a new timeline repository.
func NewTimelineRepo(pool *pgxpool.Pool) *TimelineRepo {
	return &TimelineRepo{pool: pool}
}

// Append inserts a timeline entry.
func (r *TimelineRepo) Append(ctx context.Context, entry domain.TimelineEntry) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO timeline_entries (dfid, cid, tx_hash, ledger_at, network)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.DFID, entry.CID, entry.TxHash, entry.LedgerAt, entry.Network,
	)
	if err != nil {
		return postgres.MapError(err, "timeline entry", entry.DFID)
	}
	return nil
}

const selectTimelineSQL = `
SELECT dfid, cid, tx_hash, ledger_at, network
FROM timeline_entries
WHERE dfid = $1
ORDER BY ledger_at ASC, seq ASC`

// ListByDFID returns an item's timeline entries ordered by ledger time.
func (r *TimelineRepo) ListByDFID(ctx context.Context, dfid string) ([]domain.TimelineEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, selectTimelineSQL, dfid)
	if err != nil {
		return nil, fmt.Errorf("list timeline for %s: %w", dfid, err)
	}
	defer rows.Close()

	var entries []domain.TimelineEntry
	for rows.Next() {
		var e domain.TimelineEntry
		if err := rows.Scan(&e.DFID, &e.CID, &e.TxHash, &e.LedgerAt, &e.Network); err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
