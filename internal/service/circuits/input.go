package circuits

import (
	"time"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/domain"
)

// CreateInput is the input for Service.Create.
type CreateInput struct {
	Name          string
	Description   string
	OwnerID       uuid.UUID
	AliasConfig   *domain.AliasConfig
	AdapterConfig *domain.AdapterConfig
}

// Validate checks required fields.
func (in CreateInput) Validate() error {
	var errs []domain.FieldError
	if in.Name == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "is required"})
	}
	if in.OwnerID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "owner_id", Message: "is required"})
	}
	if in.AdapterConfig != nil && !in.AdapterConfig.AdapterType.Valid() {
		errs = append(errs, domain.FieldError{Field: "adapter_type", Message: "unknown value"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// PushInput is the input for Service.Push.
type PushInput struct {
	LocalID      uuid.UUID
	Identifiers  []domain.Identifier
	EnrichedData map[string]any
	CircuitID    uuid.UUID
	RequesterID  uuid.UUID
	SourceEntry  uuid.UUID
}

// Validate checks required fields.
func (in PushInput) Validate() error {
	var errs []domain.FieldError
	if in.LocalID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "local_id", Message: "is required"})
	}
	if in.CircuitID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "circuit_id", Message: "is required"})
	}
	if in.RequesterID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "requester_id", Message: "is required"})
	}
	if len(in.Identifiers) == 0 {
		errs = append(errs, domain.FieldError{Field: "identifiers", Message: "at least one is required"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// PushStatus tells whether a push minted a DFID or resolved to an existing one.
type PushStatus string

const (
	PushCreated      PushStatus = "created"
	PushDeduplicated PushStatus = "deduplicated"
)

// StorageStatus reports the outcome of the best-effort adapter mirroring.
type StorageStatus string

const (
	// StorageMirrored: the adapter confirmed the write.
	StorageMirrored StorageStatus = "mirrored"
	// StorageSkipped: the circuit has no adapter configured.
	StorageSkipped StorageStatus = "skipped"
	// StorageFailed: the adapter call failed; the DFID and mapping are
	// committed regardless and mirroring may be retried keyed by DFID.
	StorageFailed StorageStatus = "failed"
)

// PushResult is the outcome of a push.
type PushResult struct {
	DFID            string
	Status          PushStatus
	StorageStatus   StorageStatus
	StorageLocation string
	AdapterType     domain.AdapterType
	AdapterErr      error
}

// PullOperation is the audit record returned alongside a pulled item.
type PullOperation struct {
	OperationID uuid.UUID
	DFID        string
	RequesterID uuid.UUID
	Timestamp   time.Time
}
