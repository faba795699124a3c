package circuit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/defarm/defarm-backend/internal/domain"
)

// circuitRow mirrors the circuits table layout. The members map and the two
// optional configs travel as JSONB; nil config pointers map to SQL NULL.
type circuitRow struct {
	id            uuid.UUID
	name          string
	description   string
	ownerID       uuid.UUID
	members       []byte
	aliasConfig   []byte
	adapterConfig []byte
	status        string
	createdAt     time.Time
	updatedAt     time.Time
}

func toRow(c *domain.Circuit) (*circuitRow, error) {
	members, err := json.Marshal(c.Members)
	if err != nil {
		return nil, fmt.Errorf("marshal members: %w", err)
	}

	var aliasConfig []byte
	if c.AliasConfig != nil {
		aliasConfig, err = json.Marshal(c.AliasConfig)
		if err != nil {
			return nil, fmt.Errorf("marshal alias config: %w", err)
		}
	}

	var adapterConfig []byte
	if c.AdapterConfig != nil {
		adapterConfig, err = json.Marshal(c.AdapterConfig)
		if err != nil {
			return nil, fmt.Errorf("marshal adapter config: %w", err)
		}
	}

	return &circuitRow{
		id:            c.ID,
		name:          c.Name,
		description:   c.Description,
		ownerID:       c.OwnerID,
		members:       members,
		aliasConfig:   aliasConfig,
		adapterConfig: adapterConfig,
		status:        string(c.Status),
		createdAt:     c.CreatedAt,
		updatedAt:     c.UpdatedAt,
	}, nil
}

func (r *circuitRow) toDomain() (*domain.Circuit, error) {
	c := &domain.Circuit{
		ID:          r.id,
		Name:        r.name,
		Description: r.description,
		OwnerID:     r.ownerID,
		Status:      domain.CircuitStatus(r.status),
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}

	if err := json.Unmarshal(r.members, &c.Members); err != nil {
		return nil, fmt.Errorf("unmarshal members for %s: %w", r.id, err)
	}
	if len(r.aliasConfig) > 0 {
		c.AliasConfig = &domain.AliasConfig{}
		if err := json.Unmarshal(r.aliasConfig, c.AliasConfig); err != nil {
			return nil, fmt.Errorf("unmarshal alias config for %s: %w", r.id, err)
		}
	}
	if len(r.adapterConfig) > 0 {
		c.AdapterConfig = &domain.AdapterConfig{}
		if err := json.Unmarshal(r.adapterConfig, c.AdapterConfig); err != nil {
			return nil, fmt.Errorf("unmarshal adapter config for %s: %w", r.id, err)
		}
	}

	return c, nil
}
