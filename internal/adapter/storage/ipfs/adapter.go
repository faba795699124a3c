// Package ipfs implements the storage adapter for IPFS. The actual network
// node sits behind the Client interface; this adapter handles serialization,
// CID validation, and pinning policy.
package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/defarm/defarm-backend/internal/adapter/storage"
	"github.com/defarm/defarm-backend/internal/domain"
)

// Client is the narrow surface of an IPFS node this adapter depends on.
type Client interface {
	Add(ctx context.Context, data []byte) (string, error)
	Cat(ctx context.Context, cidStr string) ([]byte, error)
	Pin(ctx context.Context, cidStr string) error
	IsOnline(ctx context.Context) bool
}

// Adapter mirrors items to IPFS.
type Adapter struct {
	client  Client
	pin     bool
	network string
	now     func() time.Time
}

// New creates an IPFS adapter. When pin is true every stored item is pinned.
func New(client Client, pin bool) *Adapter {
	return &Adapter{client: client, pin: pin, network: "ipfs", now: time.Now}
}

// Type returns domain.AdapterIPFS.
func (a *Adapter) Type() domain.AdapterType { return domain.AdapterIPFS }

// StoreItem serializes the item, adds it to IPFS, and optionally pins the
// resulting CID. The returned location key is the CID string.
func (a *Adapter) StoreItem(ctx context.Context, item *domain.Item) (*storage.Result, error) {
	payload, err := json.Marshal(itemDocument(item))
	if err != nil {
		return nil, fmt.Errorf("marshal item %s: %w", item.DFID, err)
	}

	cidStr, err := a.client.Add(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("ipfs add %s: %w", item.DFID, domain.ErrAdapter)
	}
	if _, err := cid.Decode(cidStr); err != nil {
		return nil, fmt.Errorf("ipfs returned invalid cid %q: %w", cidStr, domain.ErrAdapter)
	}

	if a.pin {
		if err := a.client.Pin(ctx, cidStr); err != nil {
			return nil, fmt.Errorf("ipfs pin %s: %w", cidStr, domain.ErrAdapter)
		}
	}

	now := a.now().UTC()
	return &storage.Result{
		AdapterType:  domain.AdapterIPFS,
		ItemLocation: cidStr,
		CreatedAt:    now,
		UpdatedAt:    now,
		Evidence: &storage.Evidence{
			CID:      cidStr,
			LedgerAt: now,
			Network:  a.network,
		},
	}, nil
}

// GetItem fetches and deserializes an item by CID.
func (a *Adapter) GetItem(ctx context.Context, locationKey string) (*domain.Item, error) {
	if _, err := cid.Decode(locationKey); err != nil {
		return nil, fmt.Errorf("location %q is not a cid: %w", locationKey, domain.ErrValidation)
	}

	data, err := a.client.Cat(ctx, locationKey)
	if err != nil {
		return nil, fmt.Errorf("ipfs cat %s: %w", locationKey, domain.ErrAdapter)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal item at %s: %w", locationKey, err)
	}
	return doc.toItem(), nil
}

// HealthCheck reports whether the node is reachable.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	return a.client.IsOnline(ctx)
}

// SyncStatus reports in-sync: IPFS writes are synchronous through Add.
func (a *Adapter) SyncStatus(_ context.Context) (storage.SyncStatus, error) {
	return storage.SyncStatus{InSync: true, LastSyncedAt: a.now().UTC()}, nil
}

// document is the wire form of an item on IPFS.
type document struct {
	DFID            string            `json:"dfid"`
	Identifiers     []identifierDoc   `json:"identifiers,omitempty"`
	EnrichedData    map[string]any    `json:"enriched_data,omitempty"`
	ConfidenceScore float64           `json:"confidence_score"`
	Status          domain.ItemStatus `json:"status"`
}

type identifierDoc struct {
	Key       string                `json:"key"`
	Value     string                `json:"value"`
	Kind      domain.IdentifierKind `json:"kind"`
	Namespace string                `json:"namespace,omitempty"`
}

func itemDocument(item *domain.Item) document {
	ids := make([]identifierDoc, 0, len(item.Identifiers)+len(item.EnhancedIdentifiers))
	for _, id := range item.AllIdentifiers() {
		ids = append(ids, identifierDoc(id))
	}
	return document{
		DFID:            item.DFID,
		Identifiers:     ids,
		EnrichedData:    item.EnrichedData,
		ConfidenceScore: item.ConfidenceScore,
		Status:          item.Status,
	}
}

func (d document) toItem() *domain.Item {
	ids := make([]domain.Identifier, 0, len(d.Identifiers))
	for _, id := range d.Identifiers {
		ids = append(ids, domain.Identifier(id))
	}
	return &domain.Item{
		DFID:                d.DFID,
		EnhancedIdentifiers: ids,
		EnrichedData:        d.EnrichedData,
		ConfidenceScore:     d.ConfidenceScore,
		Status:              d.Status,
	}
}
