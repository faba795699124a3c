package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdapterType identifies an external storage back-end.
type AdapterType string

const (
	AdapterIPFS    AdapterType = "ipfs"
	AdapterStellar AdapterType = "stellar"
	AdapterLocal   AdapterType = "local"
)

// Valid reports whether the adapter type is a known value.
func (t AdapterType) Valid() bool {
	switch t {
	case AdapterIPFS, AdapterStellar, AdapterLocal:
		return true
	}
	return false
}

// StorageLocation is a variant describing where a mirrored copy lives.
// Exactly one of the adapter-specific groups is populated, matching Kind.
type StorageLocation struct {
	Kind AdapterType

	// IPFS
	CID    string
	Pinned bool

	// Stellar
	TransactionID   string
	ContractAddress string
	AssetID         string

	// Local
	LocalID string
}

// StorageRecord is one entry in the per-DFID ledger of external storage
// operations. At most one record per (DFID, adapter type) is active at a
// time; superseding flips the prior record inactive, never deletes it.
type StorageRecord struct {
	ID          uuid.UUID
	DFID        string
	AdapterType AdapterType
	Location    StorageLocation
	StoredAt    time.Time
	TriggeredBy string
	IsActive    bool
	Metadata    map[string]any
}

// TimelineEntry is one strictly append-only ledger tuple per DFID,
// recording blockchain evidence of a mirroring operation.
type TimelineEntry struct {
	DFID     string
	CID      string
	TxHash   string
	LedgerAt time.Time
	Network  string
}
