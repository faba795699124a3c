package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserAccount is the minimal account record membership checks resolve
// against. Authentication is handled outside this system.
type UserAccount struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}
