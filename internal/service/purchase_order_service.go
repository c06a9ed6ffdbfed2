package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fieldops/internal/model"
	"fieldops/internal/repository"
	"fieldops/internal/workflow"
	"fieldops/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type IssuePurchaseOrderRequest struct {
	ClientID   string          `json:"client_id" binding:"required"`
	Number     string          `json:"number" binding:"required"`
	Value      decimal.Decimal `json:"value" binding:"required"`
	IssueDate  time.Time       `json:"issue_date" binding:"required"`
	ExpiryDate time.Time       `json:"expiry_date" binding:"required"`
	FileRef    string          `json:"file_ref"`
}

type PurchaseOrderResponse struct {
	ID             string          `json:"id"`
	ServiceOrderID string          `json:"service_order_id"`
	ClientID       string          `json:"client_id"`
	Number         string          `json:"number"`
	Value          decimal.Decimal `json:"value"`
	IssueDate      time.Time       `json:"issue_date"`
	ExpiryDate     time.Time       `json:"expiry_date"`
	Status         string          `json:"status"`
	FileRef        string          `json:"file_ref"`
	CreatedAt      string          `json:"created_at"`
}

// --- Interface ---

// PurchaseOrderService issues client purchase orders against approved service
// orders and owns the expiry sweep. Issuing a non-expired purchase order
// advances the service order to IN_PROGRESS in the same transaction.
type PurchaseOrderService interface {
	Issue(ctx context.Context, orderID string, actorID string, req IssuePurchaseOrderRequest) (*PurchaseOrderResponse, error)
	ListByOrder(ctx context.Context, orderID string) ([]PurchaseOrderResponse, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type purchaseOrderService struct {
	db     *gorm.DB
	txm    repository.TransactionManager
	orders repository.OrderRepository
	audit  repository.AuditRepository
	engine OrderService
}

func NewPurchaseOrderService(db *gorm.DB, txm repository.TransactionManager, orders repository.OrderRepository, audit repository.AuditRepository, engine OrderService) PurchaseOrderService {
	return &purchaseOrderService{db: db, txm: txm, orders: orders, audit: audit, engine: engine}
}

// --- Implementation ---

// validatePurchaseOrderIssue holds every precondition that does not need the
// database: client match and date ordering. Kept separate so it can be
// exercised without a store.
func validatePurchaseOrderIssue(orderClientID, reqClientID uuid.UUID, issueDate, expiryDate time.Time) error {
	if reqClientID != orderClientID {
		return apperr.Validation("purchase order client must match the service order's client")
	}
	if !expiryDate.After(issueDate) {
		return apperr.Validation("purchase order expiry date must be after the issue date")
	}
	return nil
}

// initialPurchaseOrderStatus stores an already-expired purchase order as
// EXPIRED instead of rejecting it; only non-expired ones drive the cascade.
func initialPurchaseOrderStatus(expiryDate, now time.Time) string {
	if expiryDate.Before(now) {
		return model.POExpired
	}
	return model.POApproved
}

func (s *purchaseOrderService) Issue(ctx context.Context, orderID string, actorID string, req IssuePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Validation("invalid order id: %v", err)
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apperr.Validation("invalid client id: %v", err)
	}
	var creatorID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		creatorID = &parsed
	}

	var po model.PurchaseOrder
	var order *model.ServiceOrder
	cascaded := false
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		order, txErr = s.orders.FindByIDForUpdate(txCtx, oid)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("service order %s not found", orderID)
			}
			return txErr
		}

		if order.Status != workflow.StatusApproved {
			return apperr.InvalidTransition("purchase orders may only be issued against an APPROVED order; order %s is %s", order.Number, order.Status)
		}

		if vErr := validatePurchaseOrderIssue(order.ClientID, clientID, req.IssueDate, req.ExpiryDate); vErr != nil {
			return vErr
		}

		// Re-check under the order row lock; the partial unique index is the
		// final arbiter if a concurrent writer slipped through anyway.
		active, countErr := s.orders.CountActivePurchaseOrders(txCtx, order.ID)
		if countErr != nil {
			return countErr
		}
		if active > 0 {
			return apperr.Conflict("service order %s already has an active purchase order", order.Number)
		}

		po = model.PurchaseOrder{
			ServiceOrderID: order.ID,
			ClientID:       clientID,
			Number:         req.Number,
			Value:          req.Value,
			IssueDate:      req.IssueDate,
			ExpiryDate:     req.ExpiryDate,
			Status:         initialPurchaseOrderStatus(req.ExpiryDate, time.Now()),
			FileRef:        req.FileRef,
			CreatedBy:      creatorID,
		}
		if createErr := repository.GetDB(txCtx, s.db).Create(&po).Error; createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("service order %s already has an active purchase order", order.Number)
			}
			return fmt.Errorf("failed to create purchase order: %w", createErr)
		}

		if po.Status == model.POApproved {
			if cascadeErr := s.engine.CascadeTransition(txCtx, order, workflow.StatusInProgress); cascadeErr != nil {
				return cascadeErr
			}
			cascaded = true
		}

		details, _ := json.Marshal(map[string]interface{}{
			"number":       po.Number,
			"status":       po.Status,
			"order_status": string(order.Status),
		})
		entry := model.AuditLog{
			UserID:     creatorID,
			Action:     model.ActionIssuePurchaseOrder,
			EntityID:   po.ID.String(),
			EntityName: order.Number,
			Details:    string(details),
		}
		if auditErr := s.audit.Record(txCtx, &entry); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// The status change is durable now; broadcasting earlier would leak an
	// event for a transaction that might roll back.
	if cascaded {
		s.engine.PublishEvent(workflow.EventPurchaseOrderIssued, order)
	}

	resp := toPurchaseOrderResponse(po)
	return &resp, nil
}

func (s *purchaseOrderService) ListByOrder(ctx context.Context, orderID string) ([]PurchaseOrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Validation("invalid order id: %v", err)
	}

	var pos []model.PurchaseOrder
	if err := s.db.WithContext(ctx).
		Where("service_order_id = ?", oid).
		Order("created_at DESC").
		Find(&pos).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch purchase orders: %w", err)
	}

	res := make([]PurchaseOrderResponse, 0, len(pos))
	for _, po := range pos {
		res = append(res, toPurchaseOrderResponse(po))
	}
	return res, nil
}

// SweepExpired flips past-expiry purchase orders to EXPIRED. Pure data
// maintenance: a single bulk update, idempotent, no service order side
// effects.
func (s *purchaseOrderService) SweepExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.PurchaseOrder{}).
		Where("status = ? AND expiry_date < ?", model.POApproved, time.Now()).
		Update("status", model.POExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep purchase orders: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		details, _ := json.Marshal(map[string]interface{}{"expired": result.RowsAffected})
		entry := model.AuditLog{
			Action:  model.ActionSweepPurchaseOrders,
			Details: string(details),
		}
		_ = s.audit.Record(ctx, &entry)
	}

	return result.RowsAffected, nil
}

func toPurchaseOrderResponse(po model.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:             po.ID.String(),
		ServiceOrderID: po.ServiceOrderID.String(),
		ClientID:       po.ClientID.String(),
		Number:         po.Number,
		Value:          po.Value,
		IssueDate:      po.IssueDate,
		ExpiryDate:     po.ExpiryDate,
		Status:         po.Status,
		FileRef:        po.FileRef,
		CreatedAt:      po.CreatedAt.Format(time.RFC3339),
	}
}
