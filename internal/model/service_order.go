package model

import (
	"time"

	"fieldops/internal/workflow"

	"github.com/google/uuid"
)

// ServiceOrder is the central work-order record tracking a client engagement
// from intake to completion. Status and Progress are owned by the workflow
// engine in internal/service; nothing else writes them.
type ServiceOrder struct {
	ID               uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number           string             `gorm:"type:varchar(20);uniqueIndex;not null" json:"number"` // OS-<year>-<seq>
	Type             workflow.OrderType `gorm:"type:varchar(20);not null;index" json:"type"`         // VISIT_REPORT, EXECUTION
	Status           workflow.Status    `gorm:"type:varchar(20);not null;index" json:"status"`
	Progress         int                `gorm:"not null;default:0" json:"progress"` // 0..100
	ClientID         uuid.UUID          `gorm:"type:uuid;not null;index" json:"client_id"`
	Client           *Client            `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	TechnicalVisitID *uuid.UUID         `gorm:"type:uuid;index" json:"technical_visit_id"`
	TechnicalVisit   *TechnicalVisit    `gorm:"foreignKey:TechnicalVisitID" json:"technical_visit,omitempty"`
	Scope            string             `gorm:"type:text" json:"scope"`
	Assignees        []User             `gorm:"many2many:service_order_assignees;" json:"assignees"`
	Checklist        Checklist          `gorm:"type:jsonb" json:"checklist"`
	Deadline         *time.Time         `json:"deadline"`
	CreatedBy        uuid.UUID          `gorm:"type:uuid;not null;index" json:"created_by"`
	Creator          *User              `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// OrderSequence backs the yearly-reset order number counter. The row is locked
// for update while a number is taken.
type OrderSequence struct {
	Year    int `gorm:"primaryKey" json:"year"`
	Counter int `gorm:"not null;default:0" json:"counter"`
}
