//go:build e2e

package e2e_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/defarm/defarm-backend/internal/dfid"
	"github.com/defarm/defarm-backend/internal/domain"
	"github.com/defarm/defarm-backend/internal/service/circuits"
)

// TestPushFlow walks the full happy path: circuit creation, first push
// minting a DFID, a second producer's push of the same animal resolving to
// the same DFID, and a viewer pulling the merged item.
func TestPushFlow(t *testing.T) {
	engines := setupEngines(t)
	ctx := context.Background()

	owner := seedAccountID(t)
	producer := seedAccountID(t)
	viewer := seedAccountID(t)

	circuit := createCircuit(t, engines, owner, "sisbov")

	require.NoError(t, engines.Circuits.AddMember(ctx, circuit.ID, owner, producer, domain.RoleMember))
	require.NoError(t, engines.Circuits.AddMember(ctx, circuit.ID, owner, viewer, domain.RoleViewer))

	// First producer pushes the animal.
	first, err := engines.Circuits.Push(ctx, circuits.PushInput{
		LocalID:      uuid.New(),
		Identifiers:  []domain.Identifier{sisbov("105000123456789"), earTag("A-17")},
		EnrichedData: map[string]any{"breed": "nelore"},
		CircuitID:    circuit.ID,
		RequesterID:  owner,
	})
	require.NoError(t, err)
	require.Equal(t, circuits.PushCreated, first.Status)
	require.True(t, dfid.Validate(first.DFID))
	require.Equal(t, circuits.StorageMirrored, first.StorageStatus)

	// Second producer pushes the same animal under its own local ID; the
	// canonical SISBOV number resolves to the already-minted DFID.
	second, err := engines.Circuits.Push(ctx, circuits.PushInput{
		LocalID:      uuid.New(),
		Identifiers:  []domain.Identifier{sisbov(" 105000123456789 "), earTag("B-03")},
		EnrichedData: map[string]any{"weight_kg": 412.0},
		CircuitID:    circuit.ID,
		RequesterID:  producer,
	})
	require.NoError(t, err)
	require.Equal(t, circuits.PushDeduplicated, second.Status)
	require.Equal(t, first.DFID, second.DFID)

	// The viewer pulls the merged item.
	item, op, err := engines.Circuits.Pull(ctx, first.DFID, circuit.ID, viewer)
	require.NoError(t, err)
	require.Equal(t, first.DFID, op.DFID)
	require.Equal(t, viewer, op.RequesterID)

	require.Equal(t, "nelore", item.EnrichedData["breed"])
	require.Equal(t, 412.0, item.EnrichedData["weight_kg"])

	tags := map[string]bool{}
	for _, id := range item.AllIdentifiers() {
		if id.Key == "ear_tag" {
			tags[id.Value] = true
		}
	}
	require.True(t, tags["A-17"] && tags["B-03"], "contextual identifiers from both producers merged")

	// Lifecycle events accumulated in order.
	events, err := engines.Events.ListForItem(ctx, first.DFID)
	require.NoError(t, err)
	var types []domain.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	require.Contains(t, types, domain.EventPushedToCircuit)
	require.Contains(t, types, domain.EventPulledFromCircuit)

	// Each push mirrored; superseded records are kept and exactly one
	// stays active.
	records, err := engines.History.History(ctx, first.DFID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	var active int
	for _, rec := range records {
		require.Equal(t, domain.AdapterLocal, rec.AdapterType)
		require.NotEmpty(t, rec.Location.LocalID)
		if rec.IsActive {
			active++
		}
	}
	require.Equal(t, 1, active)
}

// TestPushFlow_RequiredIdentifierEnforced verifies the circuit alias policy
// rejects pushes missing the mandatory canonical key.
func TestPushFlow_RequiredIdentifierEnforced(t *testing.T) {
	engines := setupEngines(t)
	ctx := context.Background()

	owner := seedAccountID(t)
	circuit := createCircuit(t, engines, owner, "sisbov")

	_, err := engines.Circuits.Push(ctx, circuits.PushInput{
		LocalID:     uuid.New(),
		Identifiers: []domain.Identifier{earTag("A-01")},
		CircuitID:   circuit.ID,
		RequesterID: owner,
	})
	require.ErrorIs(t, err, domain.ErrMissingIdentifier)
}

// TestPushFlow_ViewerCannotPush verifies role permissions hold end to end.
func TestPushFlow_ViewerCannotPush(t *testing.T) {
	engines := setupEngines(t)
	ctx := context.Background()

	owner := seedAccountID(t)
	viewer := seedAccountID(t)
	circuit := createCircuit(t, engines, owner)
	require.NoError(t, engines.Circuits.AddMember(ctx, circuit.ID, owner, viewer, domain.RoleViewer))

	_, err := engines.Circuits.Push(ctx, circuits.PushInput{
		LocalID:     uuid.New(),
		Identifiers: []domain.Identifier{sisbov("105000999999999")},
		CircuitID:   circuit.ID,
		RequesterID: viewer,
	})
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
}

// TestPushFlow_ArchivedCircuitRejects verifies archival closes the circuit
// for pushes and unarchiving reopens it.
func TestPushFlow_ArchivedCircuitRejects(t *testing.T) {
	engines := setupEngines(t)
	ctx := context.Background()

	owner := seedAccountID(t)
	circuit := createCircuit(t, engines, owner)

	require.NoError(t, engines.Circuits.Archive(ctx, circuit.ID, owner))

	input := circuits.PushInput{
		LocalID:     uuid.New(),
		Identifiers: []domain.Identifier{sisbov("105000888888888")},
		CircuitID:   circuit.ID,
		RequesterID: owner,
	}
	_, err := engines.Circuits.Push(ctx, input)
	require.True(t, errors.Is(err, domain.ErrInvalidTransition))

	require.NoError(t, engines.Circuits.Unarchive(ctx, circuit.ID, owner))

	result, err := engines.Circuits.Push(ctx, input)
	require.NoError(t, err)
	require.Equal(t, circuits.PushCreated, result.Status)
}
