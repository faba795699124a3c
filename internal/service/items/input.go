package items

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/domain"
)

// CreateInput is the input for Service.Create (legacy, caller-supplied DFID).
type CreateInput struct {
	DFID        string
	Identifiers []domain.Identifier
	SourceEntry uuid.UUID
	Source      string
}

// Validate checks required fields.
func (in CreateInput) Validate() error {
	var errs []domain.FieldError
	if in.DFID == "" {
		errs = append(errs, domain.FieldError{Field: "dfid", Message: "is required"})
	}
	if in.SourceEntry == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "source_entry", Message: "is required"})
	}
	errs = append(errs, validateIdentifiers(in.Identifiers)...)
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// CreateLocalInput is the input for Service.CreateLocal.
type CreateLocalInput struct {
	Identifiers         []domain.Identifier
	EnhancedIdentifiers []domain.Identifier
	SourceEntry         uuid.UUID
}

// Validate checks required fields.
func (in CreateLocalInput) Validate() error {
	var errs []domain.FieldError
	if in.SourceEntry == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "source_entry", Message: "is required"})
	}
	if len(in.Identifiers) == 0 && len(in.EnhancedIdentifiers) == 0 {
		errs = append(errs, domain.FieldError{Field: "identifiers", Message: "at least one is required"})
	}
	errs = append(errs, validateIdentifiers(in.Identifiers)...)
	errs = append(errs, validateIdentifiers(in.EnhancedIdentifiers)...)
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// EnrichInput is the input for Service.Enrich.
type EnrichInput struct {
	DFID        string
	Data        map[string]any
	SourceEntry uuid.UUID
	Source      string
}

// Validate checks required fields.
func (in EnrichInput) Validate() error {
	var errs []domain.FieldError
	if in.DFID == "" {
		errs = append(errs, domain.FieldError{Field: "dfid", Message: "is required"})
	}
	if len(in.Data) == 0 {
		errs = append(errs, domain.FieldError{Field: "data", Message: "must not be empty"})
	}
	if in.SourceEntry == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "source_entry", Message: "is required"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateIdentifiers(ids []domain.Identifier) []domain.FieldError {
	var errs []domain.FieldError
	for i, id := range ids {
		if id.Key == "" || id.Value == "" {
			errs = append(errs, domain.FieldError{
				Field:   "identifiers",
				Message: "key and value are required",
			})
			continue
		}
		if !id.Kind.Valid() {
			errs = append(errs, domain.FieldError{
				Field:   "identifiers",
				Message: "unknown kind at index " + strconv.Itoa(i),
			})
		}
	}
	return errs
}
