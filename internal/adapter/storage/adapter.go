// Package storage defines the contract between the circuits engine and the
// external back-ends that mirror items (IPFS, Stellar, local). Adapters are
// external collaborators behind a narrow interface; the engine treats their
// failures as retryable and never lets them affect an already-committed
// LID→DFID mapping.
package storage

import (
	"context"
	"time"

	"github.com/defarm/defarm-backend/internal/domain"
)

// Result describes a completed mirroring operation.
type Result struct {
	AdapterType    domain.AdapterType
	ItemLocation   string
	EventLocations []string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Evidence is set when the back-end returned verifiable proof of the
	// write (a CID, a transaction hash). It feeds the item timeline.
	Evidence *Evidence
}

// Evidence is blockchain/content-addressed proof of a mirrored write.
type Evidence struct {
	CID      string
	TxHash   string
	LedgerAt time.Time
	Network  string
}

// SyncStatus reports an adapter's view of its backlog.
type SyncStatus struct {
	InSync       bool
	PendingOps   int
	LastSyncedAt time.Time
}

// Adapter mirrors items to one external storage back-end.
// Implementations must be safe for concurrent use.
type Adapter interface {
	Type() domain.AdapterType
	StoreItem(ctx context.Context, item *domain.Item) (*Result, error)
	GetItem(ctx context.Context, locationKey string) (*domain.Item, error)
	HealthCheck(ctx context.Context) bool
	SyncStatus(ctx context.Context) (SyncStatus, error)
}
