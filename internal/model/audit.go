package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateOrder    = "CREATE_ORDER"
	ActionUpdateOrder    = "UPDATE_ORDER"
	ActionSubmitOrder    = "SUBMIT_ORDER"
	ActionApproveOrder   = "APPROVE_ORDER"
	ActionRejectOrder    = "REJECT_ORDER"
	ActionCancelOrder    = "CANCEL_ORDER"
	ActionUpdateProgress = "UPDATE_PROGRESS"

	ActionIssuePurchaseOrder = "ISSUE_PURCHASE_ORDER"
	ActionIssueInvoice       = "ISSUE_INVOICE"
	ActionUpdateInvoice      = "UPDATE_INVOICE_STATUS"
	ActionRegisterDelivery   = "REGISTER_DELIVERY"
	ActionSignDelivery       = "SIGN_DELIVERY"
	ActionDeleteDelivery     = "DELETE_DELIVERY"

	ActionSweepPurchaseOrders = "SWEEP_PURCHASE_ORDERS"
	ActionSweepInvoices       = "SWEEP_INVOICES"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for sweep/system actions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/order number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
