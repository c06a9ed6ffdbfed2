package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder status constants
const (
	POApproved = "APPROVED"
	POExpired  = "EXPIRED"
)

// PurchaseOrder is a client-issued authorization to spend, required before
// execution begins. At most one non-expired purchase order may exist per
// service order; a partial unique index backs the in-transaction check.
type PurchaseOrder struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ServiceOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"service_order_id"`
	ServiceOrder   *ServiceOrder   `gorm:"foreignKey:ServiceOrderID" json:"-"`
	ClientID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"` // Must equal the order's client
	Client         *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Number         string          `gorm:"type:varchar(50);not null" json:"number"`
	Value          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"value"`
	IssueDate      time.Time       `gorm:"not null" json:"issue_date"`
	ExpiryDate     time.Time       `gorm:"not null" json:"expiry_date"` // Must be after IssueDate
	Status         string          `gorm:"type:varchar(20);not null;index" json:"status"` // APPROVED, EXPIRED
	FileRef        string          `gorm:"type:text" json:"file_ref"`                     // Opaque storage reference
	CreatedBy      *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
