// Package circuits implements the circuits engine: circuit lifecycle,
// role-based membership, and the push/pull protocol that deduplicates and
// tokenizes items entering a circuit.
package circuits

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/adapter/storage"
	"github.com/defarm/defarm-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type circuitRepo interface {
	Create(ctx context.Context, circuit *domain.Circuit) (*domain.Circuit, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Circuit, error)
	Update(ctx context.Context, circuit *domain.Circuit) (*domain.Circuit, error)
	List(ctx context.Context) ([]domain.Circuit, error)

	// Item registrations: the per-circuit dedup index.
	FindDFIDByIdentityKey(ctx context.Context, circuitID uuid.UUID, identityKey string) (string, error)
	RegisterItem(ctx context.Context, circuitID uuid.UUID, dfid, identityKey string) error
	IsItemRegistered(ctx context.Context, circuitID uuid.UUID, dfid string) (bool, error)
}

type itemRepo interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	GetByDFID(ctx context.Context, dfid string) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) (*domain.Item, error)
}

type mappingRepo interface {
	Store(ctx context.Context, localID uuid.UUID, dfid string) error
	GetDFID(ctx context.Context, localID uuid.UUID) (string, error)
}

type accountRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.UserAccount, error)
}

type dfidGenerator interface {
	Generate() string
}

type eventRecorder interface {
	Record(ctx context.Context, dfid string, t domain.EventType, source string, vis domain.Visibility) (*domain.Event, error)
}

type historyRecorder interface {
	AddRecord(ctx context.Context, record domain.StorageRecord) (*domain.StorageRecord, error)
	AppendTimeline(ctx context.Context, entry domain.TimelineEntry) error
}

type adapterRegistry interface {
	Get(t domain.AdapterType) (storage.Adapter, bool)
}

type keyLocker interface {
	Lock(key string)
	Unlock(key string)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the circuits engine.
type Service struct {
	log      *slog.Logger
	circuits circuitRepo
	items    itemRepo
	mappings mappingRepo
	accounts accountRepo
	dfids    dfidGenerator
	events   eventRecorder
	history  historyRecorder
	adapters adapterRegistry
	locks    keyLocker
	tx       txManager
	now      func() time.Time
}

// NewService creates a new Circuits service.
func NewService(
	logger *slog.Logger,
	circuits circuitRepo,
	items itemRepo,
	mappings mappingRepo,
	accounts accountRepo,
	dfids dfidGenerator,
	events eventRecorder,
	history historyRecorder,
	adapters adapterRegistry,
	locks keyLocker,
	tx txManager,
) *Service {
	return &Service{
		log:      logger.With("service", "circuits"),
		circuits: circuits,
		items:    items,
		mappings: mappings,
		accounts: accounts,
		dfids:    dfids,
		events:   events,
		history:  history,
		adapters: adapters,
		locks:    locks,
		tx:       tx,
		now:      time.Now,
	}
}

// Create registers a new circuit. The owner becomes a member with the owner
// role and full permissions.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Circuit, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.accounts.Get(ctx, input.OwnerID); err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	now := s.now().UTC()
	circuit := &domain.Circuit{
		ID:            uuid.New(),
		Name:          input.Name,
		Description:   input.Description,
		OwnerID:       input.OwnerID,
		Members:       map[uuid.UUID]domain.MemberRole{input.OwnerID: domain.RoleOwner},
		AliasConfig:   input.AliasConfig,
		AdapterConfig: input.AdapterConfig,
		Status:        domain.CircuitStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.circuits.Create(ctx, circuit)
	if err != nil {
		return nil, fmt.Errorf("create circuit: %w", err)
	}

	s.log.InfoContext(ctx, "circuit created",
		slog.String("circuit_id", created.ID.String()),
		slog.String("owner_id", input.OwnerID.String()),
	)
	return created, nil
}

// Get returns a circuit by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Circuit, error) {
	return s.circuits.Get(ctx, id)
}

// List returns all circuits.
func (s *Service) List(ctx context.Context) ([]domain.Circuit, error) {
	return s.circuits.List(ctx)
}

// Archive moves a circuit to Archived. Owner only; reversible via Unarchive.
func (s *Service) Archive(ctx context.Context, circuitID, requesterID uuid.UUID) error {
	return s.setStatus(ctx, circuitID, requesterID, domain.CircuitStatusArchived)
}

// Unarchive moves an archived circuit back to Active. Owner only.
func (s *Service) Unarchive(ctx context.Context, circuitID, requesterID uuid.UUID) error {
	return s.setStatus(ctx, circuitID, requesterID, domain.CircuitStatusActive)
}

func (s *Service) setStatus(ctx context.Context, circuitID, requesterID uuid.UUID, status domain.CircuitStatus) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		circuit, err := s.circuits.Get(txCtx, circuitID)
		if err != nil {
			return err
		}
		if role, _ := circuit.RoleOf(requesterID); role != domain.RoleOwner {
			return fmt.Errorf("archival is owner-only: %w", domain.ErrPermissionDenied)
		}
		if circuit.Status == status {
			return nil
		}

		circuit.Status = status
		circuit.UpdatedAt = s.now().UTC()
		_, err = s.circuits.Update(txCtx, circuit)
		return err
	})
}

// UpdateAdapterConfig replaces the circuit's adapter configuration.
// Requires ManageAdapter; the circuit must be Active.
func (s *Service) UpdateAdapterConfig(ctx context.Context, circuitID, requesterID uuid.UUID, cfg *domain.AdapterConfig) error {
	if cfg != nil && !cfg.AdapterType.Valid() {
		return domain.NewValidationError("adapter_type", "unknown value")
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		circuit, err := s.circuits.Get(txCtx, circuitID)
		if err != nil {
			return err
		}
		if !circuit.HasPermission(requesterID, domain.PermissionManageAdapter) {
			return fmt.Errorf("manage adapter on circuit %s: %w", circuitID, domain.ErrPermissionDenied)
		}
		if circuit.Status != domain.CircuitStatusActive {
			return fmt.Errorf("circuit %s is archived: %w", circuitID, domain.ErrInvalidTransition)
		}

		circuit.AdapterConfig = cfg
		circuit.UpdatedAt = s.now().UTC()
		_, err = s.circuits.Update(txCtx, circuit)
		return err
	})
}
