package database

import (
	"log"

	"fieldops/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Client{},
		&model.TechnicalVisit{},
		&model.ServiceOrder{},
		&model.OrderSequence{},
		&model.Approval{},
		&model.PurchaseOrder{},
		&model.Invoice{},
		&model.Delivery{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	// AutoMigrate cannot express partial indexes. The storage layer is the
	// final arbiter of "one active purchase order per service order"; the
	// service treats a violation at write time as a Conflict.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_active_purchase_order
		 ON purchase_orders (service_order_id) WHERE status <> 'EXPIRED'`,
	).Error; err != nil {
		log.Println("WARNING: Failed to create active purchase order index:", err)
	}

	return db, nil
}
