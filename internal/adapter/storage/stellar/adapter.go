// Package stellar implements the storage adapter for the Stellar network.
// The Horizon-facing client sits behind the Client interface; this adapter
// builds memo payloads and turns submissions into storage results with
// transaction evidence.
package stellar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/defarm/defarm-backend/internal/adapter/storage"
	"github.com/defarm/defarm-backend/internal/domain"
)

// Submission is the outcome of an accepted transaction.
type Submission struct {
	TxHash   string
	LedgerAt time.Time
}

// Client is the narrow surface of a Horizon endpoint this adapter uses.
type Client interface {
	SubmitPayload(ctx context.Context, memoHash string, payload []byte) (*Submission, error)
	FetchPayload(ctx context.Context, txHash string) ([]byte, error)
	Ping(ctx context.Context) error
	LedgerLag(ctx context.Context) (int, error)
}

// Adapter anchors items on Stellar.
type Adapter struct {
	client          Client
	network         string
	contractAddress string
	now             func() time.Time
}

// New creates a Stellar adapter for the given network passphrase label
// (e.g. "stellar-testnet") and anchoring contract address.
func New(client Client, network, contractAddress string) *Adapter {
	return &Adapter{client: client, network: network, contractAddress: contractAddress, now: time.Now}
}

// Type returns domain.AdapterStellar.
func (a *Adapter) Type() domain.AdapterType { return domain.AdapterStellar }

// StoreItem anchors a hash of the item payload in a transaction memo and
// returns the transaction hash as the location key.
func (a *Adapter) StoreItem(ctx context.Context, item *domain.Item) (*storage.Result, error) {
	payload, err := json.Marshal(map[string]any{
		"dfid":          item.DFID,
		"enriched_data": item.EnrichedData,
		"status":        item.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal item %s: %w", item.DFID, err)
	}

	sum := sha256.Sum256(payload)
	sub, err := a.client.SubmitPayload(ctx, hex.EncodeToString(sum[:]), payload)
	if err != nil {
		return nil, fmt.Errorf("stellar submit %s: %w", item.DFID, domain.ErrAdapter)
	}

	now := a.now().UTC()
	return &storage.Result{
		AdapterType:  domain.AdapterStellar,
		ItemLocation: sub.TxHash,
		CreatedAt:    now,
		UpdatedAt:    now,
		Evidence: &storage.Evidence{
			TxHash:   sub.TxHash,
			LedgerAt: sub.LedgerAt,
			Network:  a.network,
		},
	}, nil
}

// GetItem fetches the anchored payload by transaction hash.
func (a *Adapter) GetItem(ctx context.Context, locationKey string) (*domain.Item, error) {
	data, err := a.client.FetchPayload(ctx, locationKey)
	if err != nil {
		return nil, fmt.Errorf("stellar fetch %s: %w", locationKey, domain.ErrAdapter)
	}

	var doc struct {
		DFID         string            `json:"dfid"`
		EnrichedData map[string]any    `json:"enriched_data"`
		Status       domain.ItemStatus `json:"status"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal payload at %s: %w", locationKey, err)
	}

	return &domain.Item{
		DFID:         doc.DFID,
		EnrichedData: doc.EnrichedData,
		Status:       doc.Status,
	}, nil
}

// HealthCheck reports whether Horizon responds.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	return a.client.Ping(ctx) == nil
}

// SyncStatus reports the ledger lag as pending operations.
func (a *Adapter) SyncStatus(ctx context.Context) (storage.SyncStatus, error) {
	lag, err := a.client.LedgerLag(ctx)
	if err != nil {
		return storage.SyncStatus{}, fmt.Errorf("ledger lag: %w", domain.ErrAdapter)
	}
	return storage.SyncStatus{
		InSync:       lag == 0,
		PendingOps:   lag,
		LastSyncedAt: a.now().UTC(),
	}, nil
}

// ContractAddress returns the configured anchoring contract address.
func (a *Adapter) ContractAddress() string { return a.contractAddress }
