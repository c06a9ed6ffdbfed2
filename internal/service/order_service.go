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

// Broadcaster is the websocket hub surface services publish lifecycle events
// to. Nil is allowed; events are then dropped.
type Broadcaster interface {
	GetBroadcast() chan []byte
}

// --- DTOs ---

type CreateOrderRequest struct {
	Type      string                `json:"type" binding:"required,oneof=VISIT_REPORT EXECUTION"`
	ClientID  string                `json:"client_id" binding:"required"`
	VisitID   string                `json:"visit_id"` // Optional originating technical visit
	Scope     string                `json:"scope" binding:"required"`
	Assignees []string              `json:"assignees"`
	Checklist []model.ChecklistItem `json:"checklist"`
	Deadline  *time.Time            `json:"deadline"`
}

type UpdateOrderRequest struct {
	Scope     string                `json:"scope"`
	Assignees []string              `json:"assignees"`
	Checklist []model.ChecklistItem `json:"checklist"`
	Deadline  *time.Time            `json:"deadline"`
}

type TransitionRequest struct {
	Status   string `json:"status" binding:"required"`
	Comments string `json:"comments"`
}

type UpdateProgressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

type OrderResponse struct {
	ID        string                `json:"id"`
	Number    string                `json:"number"`
	Type      string                `json:"type"`
	Status    string                `json:"status"`
	Progress  int                   `json:"progress"`
	ClientID  string                `json:"client_id"`
	VisitID   *string               `json:"visit_id"`
	Scope     string                `json:"scope"`
	Checklist []model.ChecklistItem `json:"checklist"`
	Deadline  *time.Time            `json:"deadline"`
	CreatedBy string                `json:"created_by"`
	CreatedAt string                `json:"created_at"`
}

type ApprovalResponse struct {
	ID           string `json:"id"`
	ApproverID   string `json:"approver_id"`
	ApproverName string `json:"approver_name"`
	Status       string `json:"status"`
	Comments     string `json:"comments"`
	CreatedAt    string `json:"created_at"`
}

// --- Interface ---

// OrderService owns the service order lifecycle. Status and progress move
// only through TransitionStatus, UpdateProgress and the document cascades in
// the purchase order and delivery services; plain edits never touch them.
type OrderService interface {
	CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*OrderResponse, error)
	GetOrder(ctx context.Context, id string) (*OrderResponse, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]OrderResponse, int64, error)
	UpdateOrder(ctx context.Context, id string, actorID string, req UpdateOrderRequest) (*OrderResponse, error)
	TransitionStatus(ctx context.Context, id string, actorID string, req TransitionRequest) (*OrderResponse, error)
	UpdateProgress(ctx context.Context, id string, actorID string, progress int) (*OrderResponse, error)
	ListApprovals(ctx context.Context, orderID string) ([]ApprovalResponse, error)

	// CascadeTransition applies an engine-driven status change inside the
	// caller's transaction. Used by the purchase order and delivery services.
	// It does not broadcast; the caller publishes the event after its
	// transaction commits.
	CascadeTransition(ctx context.Context, order *model.ServiceOrder, to workflow.Status) error

	// PublishEvent broadcasts a lifecycle event to the order feed. Safe to
	// call with a nil hub; the send is non-blocking.
	PublishEvent(event workflow.Event, order *model.ServiceOrder)
}

type orderService struct {
	db     *gorm.DB
	txm    repository.TransactionManager
	orders repository.OrderRepository
	audit  repository.AuditRepository
	authz  AuthzService
	hub    Broadcaster
}

func NewOrderService(db *gorm.DB, txm repository.TransactionManager, orders repository.OrderRepository, audit repository.AuditRepository, authz AuthzService, hub Broadcaster) OrderService {
	return &orderService{db: db, txm: txm, orders: orders, audit: audit, authz: authz, hub: hub}
}

// --- Implementation ---

func (s *orderService) CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*OrderResponse, error) {
	orderType := workflow.OrderType(req.Type)
	if !workflow.ValidType(orderType) {
		return nil, apperr.Validation("unknown order type %q", req.Type)
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apperr.Validation("invalid client id: %v", err)
	}

	creatorID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, apperr.Validation("invalid actor id: %v", err)
	}

	var client model.Client
	if err := s.db.WithContext(ctx).First(&client, "id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("client %s not found", req.ClientID)
		}
		return nil, err
	}

	var visitID *uuid.UUID
	if req.VisitID != "" {
		parsed, parseErr := uuid.Parse(req.VisitID)
		if parseErr != nil {
			return nil, apperr.Validation("invalid visit id: %v", parseErr)
		}
		var visit model.TechnicalVisit
		if err := s.db.WithContext(ctx).First(&visit, "id = ?", parsed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("technical visit %s not found", req.VisitID)
			}
			return nil, err
		}
		if visit.ClientID != clientID {
			return nil, apperr.Validation("technical visit belongs to a different client")
		}
		visitID = &parsed
	}

	order := model.ServiceOrder{
		Type:             orderType,
		Status:           workflow.InitialStatus(orderType),
		Progress:         0,
		ClientID:         clientID,
		TechnicalVisitID: visitID,
		Scope:            req.Scope,
		Checklist:        model.Checklist(req.Checklist),
		Deadline:         req.Deadline,
		CreatedBy:        creatorID,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		number, numErr := s.orders.NextNumber(txCtx, time.Now())
		if numErr != nil {
			return fmt.Errorf("failed to take order number: %w", numErr)
		}
		order.Number = number

		if createErr := s.orders.Create(txCtx, &order); createErr != nil {
			return fmt.Errorf("failed to create service order: %w", createErr)
		}

		if len(req.Assignees) > 0 {
			if assignErr := s.replaceAssignees(txCtx, &order, req.Assignees); assignErr != nil {
				return assignErr
			}
		}

		return s.recordAudit(txCtx, &creatorID, model.ActionCreateOrder, &order, map[string]interface{}{
			"type":   string(order.Type),
			"status": string(order.Status),
		})
	})
	if err != nil {
		return nil, err
	}

	s.PublishEvent(workflow.EventOrderCreated, &order)
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*OrderResponse, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(*order)
	return &resp, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]OrderResponse, int64, error) {
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch service orders: %w", err)
	}
	res := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, toOrderResponse(o))
	}
	return res, total, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id string, actorID string, req UpdateOrderRequest) (*OrderResponse, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	actor, err := s.workflowActor(ctx, actorID, order)
	if err != nil {
		return nil, err
	}

	if err := workflow.CanEditFields(order.Status, actor); err != nil {
		return nil, err
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Scope != "" {
			order.Scope = req.Scope
		}
		if req.Checklist != nil {
			order.Checklist = model.Checklist(req.Checklist)
		}
		if req.Deadline != nil {
			order.Deadline = req.Deadline
		}
		if saveErr := s.orders.Save(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update service order: %w", saveErr)
		}
		if req.Assignees != nil {
			if assignErr := s.replaceAssignees(txCtx, order, req.Assignees); assignErr != nil {
				return assignErr
			}
		}
		return s.recordAudit(txCtx, &actor.ID, model.ActionUpdateOrder, order, nil)
	})
	if err != nil {
		return nil, err
	}

	resp := toOrderResponse(*order)
	return &resp, nil
}

// TransitionStatus validates and applies a manually requested status change.
// Approval and rejection write their append-only Approval rows in the same
// transaction as the status update.
func (s *orderService) TransitionStatus(ctx context.Context, id string, actorID string, req TransitionRequest) (*OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid order id: %v", err)
	}

	target := workflow.Status(req.Status)

	var order *model.ServiceOrder
	event := workflow.EventOrderSubmitted
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		order, txErr = s.orders.FindByIDForUpdate(txCtx, orderID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("service order %s not found", id)
			}
			return txErr
		}

		actor, actorErr := s.workflowActor(txCtx, actorID, order)
		if actorErr != nil {
			return actorErr
		}

		view := workflow.OrderView{Status: order.Status, Progress: order.Progress}
		if vErr := workflow.Validate(view, target, actor, req.Comments); vErr != nil {
			return vErr
		}

		action := model.ActionSubmitOrder

		switch target {
		case workflow.StatusApproved:
			already, checkErr := s.orders.HasApprovedApproval(txCtx, order.ID)
			if checkErr != nil {
				return checkErr
			}
			if already {
				return apperr.Conflict("service order %s has already been approved", order.Number)
			}
			if appErr := s.recordApproval(txCtx, order, actor.ID, model.ApprovalApproved, req.Comments); appErr != nil {
				return appErr
			}
			action = model.ActionApproveOrder
			event = workflow.EventOrderApproved
		case workflow.StatusRejected:
			if appErr := s.recordApproval(txCtx, order, actor.ID, model.ApprovalRejected, req.Comments); appErr != nil {
				return appErr
			}
			action = model.ActionRejectOrder
			event = workflow.EventOrderRejected
		case workflow.StatusCancelled:
			action = model.ActionCancelOrder
			event = workflow.EventOrderCancelled
		case workflow.StatusCompleted:
			action = model.ActionUpdateOrder
			event = workflow.EventOrderCompleted
		}

		order.Status = target
		if saveErr := s.orders.Save(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update order status: %w", saveErr)
		}

		if auditErr := s.recordAudit(txCtx, &actor.ID, action, order, map[string]interface{}{
			"status":   string(target),
			"comments": req.Comments,
		}); auditErr != nil {
			return auditErr
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.PublishEvent(event, order)
	resp := toOrderResponse(*order)
	return &resp, nil
}

// UpdateProgress stores a 0-100 progress value. Reaching exactly 100 while
// the order is IN_PROGRESS completes it, with or without a delivery.
func (s *orderService) UpdateProgress(ctx context.Context, id string, actorID string, progress int) (*OrderResponse, error) {
	if progress < 0 || progress > 100 {
		return nil, apperr.Validation("progress must be between 0 and 100")
	}

	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid order id: %v", err)
	}

	var order *model.ServiceOrder
	event := workflow.EventOrderProgressUpdated
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		order, txErr = s.orders.FindByIDForUpdate(txCtx, orderID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("service order %s not found", id)
			}
			return txErr
		}

		actor, actorErr := s.workflowActor(txCtx, actorID, order)
		if actorErr != nil {
			return actorErr
		}
		if !actor.IsOwner && actor.Role != workflow.RoleManager && actor.Role != workflow.RoleAdmin && actor.Role != workflow.RoleTechnician {
			return apperr.Forbidden("actor may not update order progress")
		}

		if workflow.IsTerminal(order.Status) {
			return apperr.InvalidTransition("order is %s; progress can no longer change", order.Status)
		}

		order.Progress = progress
		if progress == 100 && order.Status == workflow.StatusInProgress {
			order.Status = workflow.StatusCompleted
			event = workflow.EventOrderCompleted
		}

		if saveErr := s.orders.Save(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update order progress: %w", saveErr)
		}

		if auditErr := s.recordAudit(txCtx, &actor.ID, model.ActionUpdateProgress, order, map[string]interface{}{
			"progress": progress,
			"status":   string(order.Status),
		}); auditErr != nil {
			return auditErr
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.PublishEvent(event, order)
	resp := toOrderResponse(*order)
	return &resp, nil
}

func (s *orderService) ListApprovals(ctx context.Context, orderID string) ([]ApprovalResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Validation("invalid order id: %v", err)
	}

	var approvals []model.Approval
	if err := s.db.WithContext(ctx).
		Preload("Approver").
		Where("service_order_id = ?", id).
		Order("created_at DESC").
		Find(&approvals).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch approvals: %w", err)
	}

	res := make([]ApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		name := ""
		if a.Approver != nil {
			name = a.Approver.Name
		}
		res = append(res, ApprovalResponse{
			ID:           a.ID.String(),
			ApproverID:   a.ApproverID.String(),
			ApproverName: name,
			Status:       a.Status,
			Comments:     a.Comments,
			CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, nil
}

// CascadeTransition applies an engine-driven status change. The caller holds
// the order row lock and the surrounding transaction; the machine is still
// consulted so cascades cannot produce unreachable statuses. No event is
// published here: the transaction may still roll back, so the caller
// broadcasts after commit.
func (s *orderService) CascadeTransition(ctx context.Context, order *model.ServiceOrder, to workflow.Status) error {
	view := workflow.OrderView{Status: order.Status, Progress: order.Progress}
	if err := workflow.Validate(view, to, workflow.SystemActor, ""); err != nil {
		return err
	}

	order.Status = to
	if to == workflow.StatusCompleted {
		order.Progress = 100
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return fmt.Errorf("failed to cascade order status: %w", err)
	}

	return nil
}

// --- Helpers ---

func (s *orderService) findOrder(ctx context.Context, id string) (*model.ServiceOrder, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid order id: %v", err)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("service order %s not found", id)
		}
		return nil, err
	}
	return order, nil
}

// workflowActor builds the machine's actor view: role from the directory,
// ownership from the order. Inactive users are rejected outright.
func (s *orderService) workflowActor(ctx context.Context, actorID string, order *model.ServiceOrder) (workflow.Actor, error) {
	view, err := s.authz.Actor(ctx, actorID)
	if err != nil {
		return workflow.Actor{}, err
	}
	if !view.Active {
		return workflow.Actor{}, apperr.Forbidden("user account is deactivated")
	}
	return workflow.Actor{
		ID:      view.ID,
		Role:    view.Role,
		IsOwner: order.CreatedBy == view.ID,
	}, nil
}

func (s *orderService) recordApproval(ctx context.Context, order *model.ServiceOrder, approverID uuid.UUID, status, comments string) error {
	approval := model.Approval{
		ServiceOrderID: order.ID,
		ApproverID:     approverID,
		Status:         status,
		Comments:       comments,
	}
	if err := repository.GetDB(ctx, s.db).Create(&approval).Error; err != nil {
		return fmt.Errorf("failed to record approval: %w", err)
	}
	return nil
}

func (s *orderService) replaceAssignees(ctx context.Context, order *model.ServiceOrder, ids []string) error {
	users := make([]model.User, 0, len(ids))
	for _, raw := range ids {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("invalid assignee id %q: %v", raw, err)
		}
		var user model.User
		if err := repository.GetDB(ctx, s.db).First(&user, "id = ?", parsed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("assignee %s not found", raw)
			}
			return err
		}
		users = append(users, user)
	}
	if err := repository.GetDB(ctx, s.db).Model(order).Association("Assignees").Replace(users); err != nil {
		return fmt.Errorf("failed to assign users: %w", err)
	}
	return nil
}

func (s *orderService) recordAudit(ctx context.Context, userID *uuid.UUID, action string, order *model.ServiceOrder, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   order.ID.String(),
		EntityName: order.Number,
		Details:    string(payload),
	}
	if err := s.audit.Record(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// PublishEvent publishes a lifecycle event; sends are non-blocking so a
// stalled hub never holds a request.
func (s *orderService) PublishEvent(event workflow.Event, order *model.ServiceOrder) {
	if s.hub == nil {
		return
	}
	env := workflow.Envelope{
		Event:       event,
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

func toOrderResponse(o model.ServiceOrder) OrderResponse {
	var visitID *string
	if o.TechnicalVisitID != nil {
		v := o.TechnicalVisitID.String()
		visitID = &v
	}
	return OrderResponse{
		ID:        o.ID.String(),
		Number:    o.Number,
		Type:      string(o.Type),
		Status:    string(o.Status),
		Progress:  o.Progress,
		ClientID:  o.ClientID.String(),
		VisitID:   visitID,
		Scope:     o.Scope,
		Checklist: o.Checklist,
		Deadline:  o.Deadline,
		CreatedBy: o.CreatedBy.String(),
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
}
