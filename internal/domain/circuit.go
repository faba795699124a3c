package domain

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole is a closed enum of circuit roles.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
	RoleViewer MemberRole = "viewer"
)

// Valid reports whether the role is a known value.
func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Permission is a capability on a circuit.
type Permission string

const (
	PermissionPush          Permission = "push"
	PermissionPull          Permission = "pull"
	PermissionManageMembers Permission = "manage_members"
	PermissionManageAdapter Permission = "manage_adapter"
)

// PermissionsFor maps a role to its permission set. This is the only place
// roles are interpreted; callers never compare role strings directly.
func PermissionsFor(role MemberRole) map[Permission]bool {
	switch role {
	case RoleOwner:
		return map[Permission]bool{
			PermissionPush:          true,
			PermissionPull:          true,
			PermissionManageMembers: true,
			PermissionManageAdapter: true,
		}
	case RoleMember:
		return map[Permission]bool{
			PermissionPush: true,
			PermissionPull: true,
		}
	case RoleViewer:
		return map[Permission]bool{
			PermissionPull: true,
		}
	}
	return nil
}

// CircuitStatus is the lifecycle state of a circuit.
type CircuitStatus string

const (
	CircuitStatusActive   CircuitStatus = "active"
	CircuitStatusArchived CircuitStatus = "archived"
)

// Valid reports whether the status is a known value.
func (s CircuitStatus) Valid() bool {
	return s == CircuitStatusActive || s == CircuitStatusArchived
}

// AliasConfig declares which canonical identifier keys are mandatory for
// items pushed into the circuit and scope dedup within its namespace.
type AliasConfig struct {
	RequiredCanonical []string
}

// AdapterConfig selects the external storage adapter mirroring the circuit.
type AdapterConfig struct {
	AdapterType          AdapterType
	SponsorAdapterAccess bool
	RequiresApproval     bool
	AutoMigrateExisting  bool
}

// Circuit is a permissioned sharing group.
//
// The owner is always a member and implicitly holds every permission,
// regardless of the explicit role entry.
type Circuit struct {
	ID            uuid.UUID
	Name          string
	Description   string
	OwnerID       uuid.UUID
	Members       map[uuid.UUID]MemberRole
	AliasConfig   *AliasConfig
	AdapterConfig *AdapterConfig
	Status        CircuitStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RoleOf resolves a user's role. The owner resolves to RoleOwner even if
// the members map says otherwise.
func (c *Circuit) RoleOf(userID uuid.UUID) (MemberRole, bool) {
	if userID == c.OwnerID {
		return RoleOwner, true
	}
	role, ok := c.Members[userID]
	return role, ok
}

// HasPermission reports whether the user holds the permission in this circuit.
func (c *Circuit) HasPermission(userID uuid.UUID, p Permission) bool {
	role, ok := c.RoleOf(userID)
	if !ok {
		return false
	}
	return PermissionsFor(role)[p]
}

// IsSoleOwner reports whether userID is the only member holding the owner
// role. The sole owner can be neither removed nor demoted.
func (c *Circuit) IsSoleOwner(userID uuid.UUID) bool {
	if userID != c.OwnerID {
		return false
	}
	for id, role := range c.Members {
		if id != userID && role == RoleOwner {
			return false
		}
	}
	return true
}

// RequiredCanonicalKeys returns the mandatory canonical keys, if configured.
func (c *Circuit) RequiredCanonicalKeys() []string {
	if c.AliasConfig == nil {
		return nil
	}
	return c.AliasConfig.RequiredCanonical
}

// Namespace is the dedup scope for canonical identity within this circuit.
func (c *Circuit) Namespace() string {
	return c.ID.String()
}
