package repository

import (
	"context"
	"fmt"
	"time"

	"fieldops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows service order listings. Statuses is an explicit set; an
// empty set means no status filtering.
type OrderFilter struct {
	Statuses []string
	Type     string
	ClientID *uuid.UUID
	Page     int
	Limit    int
}

// OrderRepository concentrates the service order queries the workflow engine
// depends on.
type OrderRepository interface {
	Create(ctx context.Context, order *model.ServiceOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error)
	Save(ctx context.Context, order *model.ServiceOrder) error
	List(ctx context.Context, filter OrderFilter) ([]model.ServiceOrder, int64, error)
	NextNumber(ctx context.Context, at time.Time) (string, error)
	HasApprovedApproval(ctx context.Context, orderID uuid.UUID) (bool, error)
	CountActivePurchaseOrders(ctx context.Context, orderID uuid.UUID) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.ServiceOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error) {
	var order model.ServiceOrder
	if err := GetDB(ctx, r.db).
		Preload("Client").
		Preload("Assignees").
		Preload("Creator").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the order row for the remainder of the surrounding
// transaction. Every status mutation goes through this so concurrent
// transitions serialize on the row.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error) {
	var order model.ServiceOrder
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Save(ctx context.Context, order *model.ServiceOrder) error {
	return GetDB(ctx, r.db).Save(order).Error
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.ServiceOrder, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.ServiceOrder{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	var orders []model.ServiceOrder
	if err := query.
		Preload("Client").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// NextNumber takes the next value of the yearly-reset counter and formats it
// as OS-<year>-<5-digit sequence>. Must run inside a transaction; the counter
// row is locked until commit.
func (r *orderRepository) NextNumber(ctx context.Context, at time.Time) (string, error) {
	db := GetDB(ctx, r.db)
	year := at.Year()

	var seq model.OrderSequence
	if err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(model.OrderSequence{Year: year}).
		FirstOrCreate(&seq).Error; err != nil {
		return "", err
	}

	seq.Counter++
	if err := db.Save(&seq).Error; err != nil {
		return "", err
	}

	return FormatOrderNumber(year, seq.Counter), nil
}

// FormatOrderNumber renders the human-readable order number.
func FormatOrderNumber(year, counter int) string {
	return fmt.Sprintf("OS-%d-%05d", year, counter)
}

func (r *orderRepository) HasApprovedApproval(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Approval{}).
		Where("service_order_id = ? AND status = ?", orderID, model.ApprovalApproved).
		Count(&count).Error
	return count > 0, err
}

func (r *orderRepository) CountActivePurchaseOrders(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.PurchaseOrder{}).
		Where("service_order_id = ? AND status <> ?", orderID, model.POExpired).
		Count(&count).Error
	return count, err
}
