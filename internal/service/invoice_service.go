package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fieldops/internal/model"
	"fieldops/internal/repository"
	"fieldops/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type IssueInvoiceRequest struct {
	PurchaseOrderID string          `json:"purchase_order_id" binding:"required"`
	Number          string          `json:"number" binding:"required"`
	Series          string          `json:"series" binding:"required"`
	Value           decimal.Decimal `json:"value" binding:"required"`
	IssueDate       time.Time       `json:"issue_date" binding:"required"`
	DueDate         time.Time       `json:"due_date" binding:"required"`
	FileRefs        []string        `json:"file_refs"`
	Notes           string          `json:"notes"`
}

type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type InvoiceResponse struct {
	ID              string          `json:"id"`
	ServiceOrderID  string          `json:"service_order_id"`
	PurchaseOrderID string          `json:"purchase_order_id"`
	Number          string          `json:"number"`
	Series          string          `json:"series"`
	Value           decimal.Decimal `json:"value"`
	IssueDate       time.Time       `json:"issue_date"`
	DueDate         time.Time       `json:"due_date"`
	Status          string          `json:"status"`
	FileRefs        []string        `json:"file_refs"`
	Notes           string          `json:"notes"`
	CreatedAt       string          `json:"created_at"`
}

// --- Interface ---

// InvoiceService issues invoices against non-expired purchase orders and owns
// the overdue sweep.
type InvoiceService interface {
	Issue(ctx context.Context, orderID string, actorID string, req IssueInvoiceRequest) (*InvoiceResponse, error)
	ListByOrder(ctx context.Context, orderID string) ([]InvoiceResponse, error)
	UpdateStatus(ctx context.Context, id string, actorID string, status string) (*InvoiceResponse, error)
	SweepOverdue(ctx context.Context) (int64, error)
}

type invoiceService struct {
	db    *gorm.DB
	txm   repository.TransactionManager
	audit repository.AuditRepository
}

func NewInvoiceService(db *gorm.DB, txm repository.TransactionManager, audit repository.AuditRepository) InvoiceService {
	return &invoiceService{db: db, txm: txm, audit: audit}
}

// --- Implementation ---

func validInvoiceStatus(status string) bool {
	switch status {
	case model.InvoiceIssued, model.InvoiceOverdue, model.InvoicePaid, model.InvoiceCancelled:
		return true
	}
	return false
}

// invoiceStatusChangeAllowed enforces the terminal rules: PAID and CANCELLED
// accept no further change, which also blocks cancelling a paid invoice.
// Everything else moves freely for an authorized actor.
func invoiceStatusChangeAllowed(current, next string) error {
	if !validInvoiceStatus(next) {
		return apperr.Validation("unknown invoice status %q", next)
	}
	if current == next {
		return apperr.InvalidTransition("invoice is already %s", current)
	}
	switch current {
	case model.InvoicePaid:
		return apperr.InvalidTransition("invoice is PAID; no further status change is accepted")
	case model.InvoiceCancelled:
		return apperr.InvalidTransition("invoice is CANCELLED; no further status change is accepted")
	}
	return nil
}

// initialInvoiceStatus marks an invoice OVERDUE at creation when the due date
// has already passed.
func initialInvoiceStatus(dueDate, now time.Time) string {
	if dueDate.Before(now) {
		return model.InvoiceOverdue
	}
	return model.InvoiceIssued
}

func (s *invoiceService) Issue(ctx context.Context, orderID string, actorID string, req IssueInvoiceRequest) (*InvoiceResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Validation("invalid order id: %v", err)
	}
	poID, err := uuid.Parse(req.PurchaseOrderID)
	if err != nil {
		return nil, apperr.Validation("invalid purchase order id: %v", err)
	}
	var creatorID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		creatorID = &parsed
	}

	if !req.DueDate.After(req.IssueDate) {
		return nil, apperr.Validation("invoice due date must be after the issue date")
	}

	var invoice model.Invoice
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		var order model.ServiceOrder
		if findErr := db.First(&order, "id = ?", oid).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("service order %s not found", orderID)
			}
			return findErr
		}

		var po model.PurchaseOrder
		if findErr := db.First(&po, "id = ?", poID).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("purchase order %s not found", req.PurchaseOrderID)
			}
			return findErr
		}

		if po.ServiceOrderID != order.ID {
			return apperr.Validation("purchase order %s belongs to a different service order", po.Number)
		}
		if po.Status == model.POExpired {
			return apperr.Conflict("purchase order %s is expired; invoices may only be issued against active purchase orders", po.Number)
		}

		var clash model.Invoice
		if findErr := db.Where("number = ? AND series = ?", req.Number, req.Series).First(&clash).Error; findErr == nil {
			return apperr.Conflict("invoice %s/%s already exists", req.Number, req.Series)
		}

		invoice = model.Invoice{
			ServiceOrderID:  order.ID,
			PurchaseOrderID: po.ID,
			Number:          req.Number,
			Series:          req.Series,
			Value:           req.Value,
			IssueDate:       req.IssueDate,
			DueDate:         req.DueDate,
			Status:          initialInvoiceStatus(req.DueDate, time.Now()),
			FileRefs:        model.StringList(req.FileRefs),
			Notes:           req.Notes,
			CreatedBy:       creatorID,
		}
		if createErr := db.Create(&invoice).Error; createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("invoice %s/%s already exists", req.Number, req.Series)
			}
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"number": invoice.Number,
			"series": invoice.Series,
			"status": invoice.Status,
		})
		entry := model.AuditLog{
			UserID:     creatorID,
			Action:     model.ActionIssueInvoice,
			EntityID:   invoice.ID.String(),
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

	resp := toInvoiceResponse(invoice)
	return &resp, nil
}

func (s *invoiceService) ListByOrder(ctx context.Context, orderID string) ([]InvoiceResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Validation("invalid order id: %v", err)
	}

	var invoices []model.Invoice
	if err := s.db.WithContext(ctx).
		Where("service_order_id = ?", oid).
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		res = append(res, toInvoiceResponse(inv))
	}
	return res, nil
}

func (s *invoiceService) UpdateStatus(ctx context.Context, id string, actorID string, status string) (*InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid invoice id: %v", err)
	}
	var actorUUID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actorUUID = &parsed
	}

	var invoice model.Invoice
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		db := repository.GetDB(txCtx, s.db)

		if findErr := db.First(&invoice, "id = ?", invoiceID).Error; findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("invoice %s not found", id)
			}
			return findErr
		}

		if chgErr := invoiceStatusChangeAllowed(invoice.Status, status); chgErr != nil {
			return chgErr
		}

		previous := invoice.Status
		invoice.Status = status
		if saveErr := db.Save(&invoice).Error; saveErr != nil {
			return fmt.Errorf("failed to update invoice status: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"from": previous, "to": status})
		entry := model.AuditLog{
			UserID:   actorUUID,
			Action:   model.ActionUpdateInvoice,
			EntityID: invoice.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.audit.Record(txCtx, &entry); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toInvoiceResponse(invoice)
	return &resp, nil
}

// SweepOverdue marks ISSUED invoices past their due date as OVERDUE.
// Idempotent bulk update.
func (s *invoiceService) SweepOverdue(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("status = ? AND due_date < ?", model.InvoiceIssued, time.Now()).
		Update("status", model.InvoiceOverdue)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep invoices: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		details, _ := json.Marshal(map[string]interface{}{"overdue": result.RowsAffected})
		entry := model.AuditLog{
			Action:  model.ActionSweepInvoices,
			Details: string(details),
		}
		_ = s.audit.Record(ctx, &entry)
	}

	return result.RowsAffected, nil
}

func toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:              inv.ID.String(),
		ServiceOrderID:  inv.ServiceOrderID.String(),
		PurchaseOrderID: inv.PurchaseOrderID.String(),
		Number:          inv.Number,
		Series:          inv.Series,
		Value:           inv.Value,
		IssueDate:       inv.IssueDate,
		DueDate:         inv.DueDate,
		Status:          inv.Status,
		FileRefs:        inv.FileRefs,
		Notes:           inv.Notes,
		CreatedAt:       inv.CreatedAt.Format(time.RFC3339),
	}
}
