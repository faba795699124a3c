//go:build e2e

package e2e_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/defarm/defarm-backend/internal/adapter/postgres/testhelper"
	"github.com/defarm/defarm-backend/internal/app"
	"github.com/defarm/defarm-backend/internal/config"
	"github.com/defarm/defarm-backend/internal/domain"
	"github.com/defarm/defarm-backend/internal/service/circuits"
)

// setupEngines builds the full service graph against the shared test
// database, with only the local storage adapter registered.
func setupEngines(t *testing.T) *app.Engines {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		Log:  config.LogConfig{Level: "error", Format: "text"},
		DFID: config.DFIDConfig{Instance: 1},
		Adapters: config.AdaptersConfig{
			Local: config.LocalConfig{Enabled: true},
		},
	}

	return app.BuildEngines(logger, pool, cfg)
}

// seedAccountID creates an account row and returns its ID. The engines have
// no signup path; accounts come from an external identity provider.
func seedAccountID(t *testing.T) uuid.UUID {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return testhelper.SeedAccount(t, pool).ID
}

// createCircuit makes an active circuit with the local adapter configured.
func createCircuit(t *testing.T, engines *app.Engines, owner uuid.UUID, required ...string) *domain.Circuit {
	t.Helper()

	input := circuits.CreateInput{
		Name:    "cadeia-" + uuid.New().String()[:8],
		OwnerID: owner,
		AdapterConfig: &domain.AdapterConfig{
			AdapterType: domain.AdapterLocal,
		},
	}
	if len(required) > 0 {
		input.AliasConfig = &domain.AliasConfig{RequiredCanonical: required}
	}

	circuit, err := engines.Circuits.Create(context.Background(), input)
	require.NoError(t, err)
	return circuit
}

// sisbov builds the canonical cattle registry identifier.
func sisbov(value string) domain.Identifier {
	return domain.Identifier{
		Key:       "sisbov",
		Value:     value,
		Kind:      domain.IdentifierCanonical,
		Namespace: "br.gov",
	}
}

// earTag builds a contextual farm identifier.
func earTag(value string) domain.Identifier {
	return domain.Identifier{
		Key:       "ear_tag",
		Value:     value,
		Kind:      domain.IdentifierContextual,
		Namespace: "farm",
	}
}
