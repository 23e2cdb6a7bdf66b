package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	// OrganizationID is nil only while registration is linking the founding
	// admin to their organization, and for invite placeholders it points at
	// the inviting organization.
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`
	Role           Role       `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at"`

	// Pending invites live on the placeholder user record until accepted.
	InviteToken     *string    `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	InviteExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

// PendingInvite reports whether the user is an unaccepted invite placeholder.
func (u *User) PendingInvite() bool {
	return !u.IsActive && u.InviteToken != nil
}
