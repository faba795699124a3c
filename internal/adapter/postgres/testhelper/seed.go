package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/defarm/defarm-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedAccount creates a user account. Returns a filled domain.UserAccount.
func SeedAccount(t *testing.T, pool *pgxpool.Pool) domain.UserAccount {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	account := domain.UserAccount{
		ID:        uuid.New(),
		Name:      "Test Account " + suffix,
		Email:     "account-" + suffix + "@example.com",
		CreatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO user_accounts (id, name, email, created_at) VALUES ($1, $2, $3, $4)`,
		account.ID, account.Name, account.Email, account.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAccount insert: %v", err)
	}

	return account
}

// SeedItem creates an active item with one canonical identifier.
// Returns a filled domain.Item.
func SeedItem(t *testing.T, pool *pgxpool.Pool, dfid string) domain.Item {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	item := domain.Item{
		DFID: dfid,
		Identifiers: []domain.Identifier{
			{Key: "sisbov", Value: "105" + suffix, Kind: domain.IdentifierCanonical, Namespace: "br.gov"},
		},
		EnrichedData:    map[string]any{"seed": suffix},
		SourceEntries:   []uuid.UUID{uuid.New()},
		ConfidenceScore: 1.0,
		Status:          domain.ItemStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	identifiers := mustJSON(t, item.Identifiers)
	enhanced := mustJSON(t, item.EnhancedIdentifiers)
	enriched := mustJSON(t, item.EnrichedData)
	sources := mustJSON(t, item.SourceEntries)

	_, err := pool.Exec(ctx,
		`INSERT INTO items (dfid, local_id, identifiers, enhanced_identifiers, enriched_data,
		                    source_entries, confidence_score, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.DFID, item.LocalID, identifiers, enhanced, enriched,
		sources, item.ConfidenceScore, string(item.Status), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedItem insert: %v", err)
	}

	return item
}

// SeedCircuit creates an active circuit owned by the given account.
// Returns a filled domain.Circuit.
func SeedCircuit(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID) domain.Circuit {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	circuit := domain.Circuit{
		ID:          uuid.New(),
		Name:        "circuit-" + suffix,
		Description: "seeded circuit " + suffix,
		OwnerID:     ownerID,
		Members:     map[uuid.UUID]domain.MemberRole{ownerID: domain.RoleOwner},
		Status:      domain.CircuitStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	members := mustJSON(t, circuit.Members)

	_, err := pool.Exec(ctx,
		`INSERT INTO circuits (id, name, description, owner_id, members, alias_config,
		                       adapter_config, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULL, NULL, $6, $7, $8)`,
		circuit.ID, circuit.Name, circuit.Description, circuit.OwnerID, members,
		string(circuit.Status), circuit.CreatedAt, circuit.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCircuit insert: %v", err)
	}

	return circuit
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("testhelper: marshal %T: %v", v, err)
	}
	return b
}
