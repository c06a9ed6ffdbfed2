package model

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a named bundle of permissions assignable to users
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission is the persisted copy of a catalog entry. Rows are reconciled
// against the static catalog at startup; the catalog is the source of truth.
type Permission struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "orders:approve"
	Label       string    `gorm:"type:varchar(255);not null" json:"label"`
	Description string    `gorm:"type:text" json:"description"`
	Area        string    `gorm:"type:varchar(50);not null;index" json:"area"` // "orders", "users", "hr"...
}
