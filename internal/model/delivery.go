package model

import (
	"time"

	"github.com/google/uuid"
)

// Delivery records the client's acceptance of the executed work. At most one
// per service order; creating one forces the order to COMPLETED, deleting one
// reverts it to IN_PROGRESS.
type Delivery struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ServiceOrderID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex" json:"service_order_id"`
	ServiceOrder   *ServiceOrder `gorm:"foreignKey:ServiceOrderID" json:"-"`
	DeliveryDate   time.Time     `gorm:"not null" json:"delivery_date"`
	ReceivedBy     string        `gorm:"type:varchar(255);not null" json:"received_by"`
	Checklist      Checklist     `gorm:"type:jsonb" json:"checklist"` // Every item must be checked at creation
	Evidences      StringList    `gorm:"type:jsonb" json:"evidences"` // Opaque file references
	SignatureRef   string        `gorm:"type:text" json:"signature_ref"`
	Notes          string        `gorm:"type:text" json:"notes"`
	CreatedBy      *uuid.UUID    `gorm:"type:uuid" json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
