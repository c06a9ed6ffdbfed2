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
	"gorm.io/gorm"
)

// --- DTOs ---

type RegisterDeliveryRequest struct {
	DeliveryDate time.Time             `json:"delivery_date" binding:"required"`
	ReceivedBy   string                `json:"received_by" binding:"required"`
	Checklist    []model.ChecklistItem `json:"checklist" binding:"required"`
	Evidences    []string              `json:"evidences"`
	Notes        string                `json:"notes"`
}

type AttachSignatureRequest struct {
	SignatureRef string `json:"signature_ref" binding:"required"`
}

type DeliveryResponse struct {
	ID             string                `json:"id"`
	ServiceOrderID string                `json:"service_order_id"`
	DeliveryDate   time.Time             `json:"delivery_date"`
	ReceivedBy     string                `json:"received_by"`
	Checklist      []model.ChecklistItem `json:"checklist"`
	Evidences      []string              `json:"evidences"`
	SignatureRef   string                `json:"signature_ref"`
	Notes          string                `json:"notes"`
	CreatedAt      string                `json:"created_at"`
}

// --- Interface ---

// DeliveryService registers delivery acceptance. Registration forces the
// order to COMPLETED with progress 100; deletion is an admin-only
// compensating action that reverts the order to IN_PROGRESS outside the
// normal transition table.
type DeliveryService interface {
	Register(ctx context.Context, orderID string, actorID string, req RegisterDeliveryRequest) (*DeliveryResponse, error)
	GetByOrder(ctx context.Context, orderID string) (*DeliveryResponse, error)
	AttachSignature(ctx context.Context, id string, actorID string, req AttachSignatureRequest) (*DeliveryResponse, error)
	Delete(ctx context.Context, id string, actorID string) error
}

type deliveryService struct {
	db     *gorm.DB
	txm    repository.TransactionManager
	orders repository.OrderRepository
	audit  repository.AuditRepository
	engine OrderService
	hub    Broadcaster
}

func NewDeliveryService(db *gorm.DB, txm repository.TransactionManager, orders repository.OrderRepository, audit repository.AuditRepository, engine OrderService, hub Broadcaster) DeliveryService {
	return &deliveryService{db: db, txm: txm, orders: orders, audit: audit, engine: engine, hub: hub}
}

// --- Implementation ---

// validateDeliveryChecklist rejects a partial checklist as a whole; nothing
// is accepted item by item.
func validateDeliveryChecklist(checklist model.Checklist) error {
	if len(checklist) == 0 {
		return apperr.Validation("delivery checklist must have at least one item")
	}
	if !checklist.AllCompleted() {
		return apperr.Validation("every delivery checklist item must be checked")
	}
	return nil
}

// deliveryAllowedFor gates registration on the order status.
func deliveryAllowedFor(status workflow.Status) error {
	if status != workflow.StatusInProgress && status != workflow.StatusCompleted {
		return apperr.InvalidTransition("deliveries may only be registered for IN_PROGRESS or COMPLETED orders; order is %s", status)
	}
	return nil
}

func (s *deliveryService) Register(ctx context.Context, orderID string, actorID string, req RegisterDeliveryRequest) (*DeliveryResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Validation("invalid order id: %v", err)
	}
	var creatorID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		creatorID = &parsed
	}

	if err := validateDeliveryChecklist(model.Checklist(req.Checklist)); err != nil {
		return nil, err
	}

	var delivery model.Delivery
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

		if gateErr := deliveryAllowedFor(order.Status); gateErr != nil {
			return gateErr
		}

		db := repository.GetDB(txCtx, s.db)
		var existing model.Delivery
		if findErr := db.Where("service_order_id = ?", order.ID).First(&existing).Error; findErr == nil {
			return apperr.Conflict("service order %s already has a delivery", order.Number)
		}

		delivery = model.Delivery{
			ServiceOrderID: order.ID,
			DeliveryDate:   req.DeliveryDate,
			ReceivedBy:     req.ReceivedBy,
			Checklist:      model.Checklist(req.Checklist),
			Evidences:      model.StringList(req.Evidences),
			Notes:          req.Notes,
			CreatedBy:      creatorID,
		}
		if createErr := db.Create(&delivery).Error; createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("service order %s already has a delivery", order.Number)
			}
			return fmt.Errorf("failed to create delivery: %w", createErr)
		}

		// Registration always completes the order; a COMPLETED order just
		// keeps its status with progress forced to 100.
		if order.Status == workflow.StatusInProgress {
			if cascadeErr := s.engine.CascadeTransition(txCtx, order, workflow.StatusCompleted); cascadeErr != nil {
				return cascadeErr
			}
			cascaded = true
		} else if order.Progress != 100 {
			order.Progress = 100
			if saveErr := s.orders.Save(txCtx, order); saveErr != nil {
				return fmt.Errorf("failed to update order progress: %w", saveErr)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"received_by": req.ReceivedBy,
			"items":       len(req.Checklist),
		})
		entry := model.AuditLog{
			UserID:     creatorID,
			Action:     model.ActionRegisterDelivery,
			EntityID:   delivery.ID.String(),
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

	if cascaded {
		s.engine.PublishEvent(workflow.EventDeliveryRegistered, order)
	}

	resp := toDeliveryResponse(delivery)
	return &resp, nil
}

func (s *deliveryService) GetByOrder(ctx context.Context, orderID string) (*DeliveryResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Validation("invalid order id: %v", err)
	}

	var delivery model.Delivery
	if err := s.db.WithContext(ctx).Where("service_order_id = ?", oid).First(&delivery).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("service order %s has no delivery", orderID)
		}
		return nil, err
	}

	resp := toDeliveryResponse(delivery)
	return &resp, nil
}

// AttachSignature is one-time; a second attempt is a Conflict.
func (s *deliveryService) AttachSignature(ctx context.Context, id string, actorID string, req AttachSignatureRequest) (*DeliveryResponse, error) {
	deliveryID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid delivery id: %v", err)
	}
	var actorUUID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actorUUID = &parsed
	}

	var delivery model.Delivery
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		if findErr := db.First(&delivery, "id = ?", deliveryID).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("delivery %s not found", id)
			}
			return findErr
		}

		if delivery.SignatureRef != "" {
			return apperr.Conflict("delivery already has a signature")
		}

		delivery.SignatureRef = req.SignatureRef
		if saveErr := db.Save(&delivery).Error; saveErr != nil {
			return fmt.Errorf("failed to attach signature: %w", saveErr)
		}

		entry := model.AuditLog{
			UserID:   actorUUID,
			Action:   model.ActionSignDelivery,
			EntityID: delivery.ID.String(),
		}
		if auditErr := s.audit.Record(txCtx, &entry); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toDeliveryResponse(delivery)
	return &resp, nil
}

// Delete removes the delivery and reverts the order to IN_PROGRESS regardless
// of its current status. This is a compensating action, deliberately not
// routed through the transition table.
func (s *deliveryService) Delete(ctx context.Context, id string, actorID string) error {
	deliveryID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid delivery id: %v", err)
	}
	var actorUUID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actorUUID = &parsed
	}

	var order *model.ServiceOrder
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		var delivery model.Delivery
		if findErr := db.First(&delivery, "id = ?", deliveryID).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("delivery %s not found", id)
			}
			return findErr
		}

		var txErr error
		order, txErr = s.orders.FindByIDForUpdate(txCtx, delivery.ServiceOrderID)
		if txErr != nil {
			return txErr
		}

		if delErr := db.Delete(&delivery).Error; delErr != nil {
			return fmt.Errorf("failed to delete delivery: %w", delErr)
		}

		order.Status = workflow.StatusInProgress
		if saveErr := s.orders.Save(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to revert order status: %w", saveErr)
		}

		entry := model.AuditLog{
			UserID:     actorUUID,
			Action:     model.ActionDeleteDelivery,
			EntityID:   delivery.ID.String(),
			EntityName: order.Number,
		}
		if auditErr := s.audit.Record(txCtx, &entry); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.broadcastRemoved(order)
	return nil
}

func (s *deliveryService) broadcastRemoved(order *model.ServiceOrder) {
	if s.hub == nil || order == nil {
		return
	}
	env := workflow.Envelope{
		Event:       workflow.EventDeliveryRemoved,
		OrderID:     order.ID.String(),
		OrderNumber: order.Number,
		Status:      order.Status,
		Progress:    order.Progress,
		At:          time.Now(),
	}
	select {
	case s.hub.GetBroadcast() <- env.Marshal():
	default:
	}
}

func toDeliveryResponse(d model.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:             d.ID.String(),
		ServiceOrderID: d.ServiceOrderID.String(),
		DeliveryDate:   d.DeliveryDate,
		ReceivedBy:     d.ReceivedBy,
		Checklist:      d.Checklist,
		Evidences:      d.Evidences,
		SignatureRef:   d.SignatureRef,
		Notes:          d.Notes,
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
	}
}
