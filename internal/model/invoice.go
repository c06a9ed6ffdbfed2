package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice status constants. PAID and CANCELLED are terminal.
const (
	InvoiceIssued    = "ISSUED"
	InvoiceOverdue   = "OVERDUE"
	InvoicePaid      = "PAID"
	InvoiceCancelled = "CANCELLED"
)

// Invoice is issued against a non-expired purchase order of the same service
// order. (Number, Series) is unique across the system.
type Invoice struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ServiceOrderID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"service_order_id"`
	ServiceOrder    *ServiceOrder   `gorm:"foreignKey:ServiceOrderID" json:"-"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	PurchaseOrder   *PurchaseOrder  `gorm:"foreignKey:PurchaseOrderID" json:"purchase_order,omitempty"`
	Number          string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_invoice_number_series" json:"number"`
	Series          string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_invoice_number_series" json:"series"`
	Value           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"value"`
	IssueDate       time.Time       `gorm:"not null" json:"issue_date"`
	DueDate         time.Time       `gorm:"not null" json:"due_date"` // Must be after IssueDate
	Status          string          `gorm:"type:varchar(20);not null;index" json:"status"`
	FileRefs        StringList      `gorm:"type:jsonb" json:"file_refs"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
