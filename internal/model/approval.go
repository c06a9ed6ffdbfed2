package model

import (
	"time"

	"github.com/google/uuid"
)

// Approval outcome constants
const (
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// Approval is an append-only record of a manager's accept/reject decision on a
// service order. History is retained; the most recent row reflects the
// order's approval outcome.
type Approval struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ServiceOrderID uuid.UUID     `gorm:"type:uuid;not null;index" json:"service_order_id"`
	ServiceOrder   *ServiceOrder `gorm:"foreignKey:ServiceOrderID" json:"-"`
	ApproverID     uuid.UUID     `gorm:"type:uuid;not null" json:"approver_id"`
	Approver       *User         `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Status         string        `gorm:"type:varchar(20);not null;index" json:"status"` // APPROVED, REJECTED
	Comments       string        `gorm:"type:text" json:"comments"`
	CreatedAt      time.Time     `gorm:"index" json:"created_at"`
}
