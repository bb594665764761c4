package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role assigned to a user
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleManager    UserRole = "manager"
	RoleAccountant UserRole = "accountant"
	RoleAuditor    UserRole = "auditor"
	RoleDataEntry  UserRole = "data_entry"
	RoleClient     UserRole = "client"
)

// UserStatus represents the lifecycle state of a user account
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusPending   UserStatus = "pending"
)

// User represents a platform user (staff or client login)
type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FullName       string     `json:"full_name"`
	HashedPassword string     `json:"-"`
	Role           UserRole   `json:"role"`
	Status         UserStatus `json:"status"`
	Phone          *string    `json:"phone,omitempty"`
	Department     *string    `json:"department,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty"`
}

// CanLogin reports whether the account is in a state that allows authentication.
// Pending accounts are allowed in so a fresh registration can use the API
// immediately; suspended and inactive accounts are locked out.
func (u *User) CanLogin() bool {
	return u.Status == UserStatusActive || u.Status == UserStatusPending
}

// Permission represents a named capability over a resource
type Permission struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	CreatedAt   time.Time `json:"created_at"`
}

// RolePermission maps a role to a permission
type RolePermission struct {
	ID           uuid.UUID `json:"id"`
	Role         UserRole  `json:"role"`
	PermissionID uuid.UUID `json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditLog records a mutation performed by a user
type AuditLog struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Action     string     `json:"action"`
	Resource   string     `json:"resource"`
	ResourceID *uuid.UUID `json:"resource_id,omitempty"`
	OldValues  *string    `json:"old_values,omitempty"`
	NewValues  *string    `json:"new_values,omitempty"`
	IPAddress  *string    `json:"ip_address,omitempty"`
	UserAgent  *string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ValidRole reports whether the given string is a known role
func ValidRole(role string) bool {
	switch UserRole(role) {
	case RoleAdmin, RoleManager, RoleAccountant, RoleAuditor, RoleDataEntry, RoleClient:
		return true
	default:
		return false
	}
}

// ValidUserStatus reports whether the given string is a known user status
func ValidUserStatus(status string) bool {
	switch UserStatus(status) {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended, UserStatusPending:
		return true
	default:
		return false
	}
}
