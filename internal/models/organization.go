package models

import (
	"time"

	"github.com/google/uuid"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// ValidTheme reports whether t is one of the known themes.
func ValidTheme(t Theme) bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return true
	}
	return false
}

// OrganizationSettings is embedded into Organization; partial updates merge
// field-by-field so unspecified keys are preserved.
type OrganizationSettings struct {
	Theme             Theme `gorm:"type:varchar(10);not null;default:'light'" json:"theme"`
	AllowPublicSignup bool  `gorm:"not null;default:false" json:"allow_public_signup"`
	DefaultRole       Role  `gorm:"type:varchar(20);not null;default:'member'" json:"default_role"`
}

type Organization struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string               `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string               `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Description string               `gorm:"type:text" json:"description"`
	Settings    OrganizationSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	IsActive    bool                 `gorm:"not null;default:true" json:"is_active"`
	CreatedByID uuid.UUID            `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`

	CreatedBy *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}
