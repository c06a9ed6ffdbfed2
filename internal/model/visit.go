package model

import (
	"time"

	"github.com/google/uuid"
)

// TechnicalVisit status constants
const (
	VisitScheduled = "SCHEDULED"
	VisitDone      = "DONE"
	VisitCancelled = "CANCELLED"
)

// TechnicalVisit is a pre-sales visit to a client site. A visit report can
// originate a service order, which then starts in PENDING_APPROVAL.
type TechnicalVisit struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	Client      *Client    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ScheduledAt time.Time  `gorm:"not null" json:"scheduled_at"`
	Report      string     `gorm:"type:text" json:"report"`
	Status      string     `gorm:"type:varchar(20);not null;default:'SCHEDULED';index" json:"status"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid;index" json:"created_by"`
	Creator     *User      `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
