package circuits

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/domain"
)

// AddMember adds a user to the circuit. Requires ManageMembers; the user
// must exist and not already be a member.
func (s *Service) AddMember(ctx context.Context, circuitID, requesterID, userID uuid.UUID, role domain.MemberRole) error {
	if !role.Valid() {
		return domain.NewValidationError("role", "unknown value")
	}

	if _, err := s.accounts.Get(ctx, userID); err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		circuit, err := s.requireManageable(txCtx, circuitID, requesterID)
		if err != nil {
			return err
		}
		if _, member := circuit.Members[userID]; member {
			return fmt.Errorf("user %s in circuit %s: %w", userID, circuitID, domain.ErrAlreadyExists)
		}

		circuit.Members[userID] = role
		circuit.UpdatedAt = s.now().UTC()
		_, err = s.circuits.Update(txCtx, circuit)
		return err
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "member added",
		slog.String("circuit_id", circuitID.String()),
		slog.String("user_id", userID.String()),
		slog.String("role", string(role)),
	)
	return nil
}

// RemoveMember removes a user from the circuit. Requires ManageMembers.
// The sole owner can never be removed, regardless of who attempts it.
func (s *Service) RemoveMember(ctx context.Context, circuitID, requesterID, userID uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		circuit, err := s.requireManageable(txCtx, circuitID, requesterID)
		if err != nil {
			return err
		}
		if _, member := circuit.Members[userID]; !member {
			return fmt.Errorf("user %s in circuit %s: %w", userID, circuitID, domain.ErrNotFound)
		}
		if circuit.IsSoleOwner(userID) {
			return fmt.Errorf("user %s owns circuit %s: %w", userID, circuitID, domain.ErrSoleOwner)
		}

		delete(circuit.Members, userID)
		circuit.UpdatedAt = s.now().UTC()
		_, err = s.circuits.Update(txCtx, circuit)
		return err
	})
}

// ChangeRole changes a member's role. Requires ManageMembers. The sole
// owner cannot be demoted, including by themselves.
func (s *Service) ChangeRole(ctx context.Context, circuitID, requesterID, userID uuid.UUID, role domain.MemberRole) error {
	if !role.Valid() {
		return domain.NewValidationError("role", "unknown value")
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		circuit, err := s.requireManageable(txCtx, circuitID, requesterID)
		if err != nil {
			return err
		}
		if _, member := circuit.Members[userID]; !member {
			return fmt.Errorf("user %s in circuit %s: %w", userID, circuitID, domain.ErrNotFound)
		}
		if role != domain.RoleOwner && circuit.IsSoleOwner(userID) {
			return fmt.Errorf("user %s owns circuit %s: %w", userID, circuitID, domain.ErrSoleOwner)
		}

		circuit.Members[userID] = role
		circuit.UpdatedAt = s.now().UTC()
		_, err = s.circuits.Update(txCtx, circuit)
		return err
	})
}

// requireManageable loads the circuit and verifies the requester may manage
// members and the circuit is Active.
func (s *Service) requireManageable(ctx context.Context, circuitID, requesterID uuid.UUID) (*domain.Circuit, error) {
	circuit, err := s.circuits.Get(ctx, circuitID)
	if err != nil {
		return nil, err
	}
	if !circuit.HasPermission(requesterID, domain.PermissionManageMembers) {
		return nil, fmt.Errorf("manage members on circuit %s: %w", circuitID, domain.ErrPermissionDenied)
	}
	if circuit.Status != domain.CircuitStatusActive {
		return nil, fmt.Errorf("circuit %s is archived: %w", circuitID, domain.ErrInvalidTransition)
	}
	return circuit, nil
}
