package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops/internal/model"
	"fieldops/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateVisitRequest struct {
	ClientID    string    `json:"client_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Report      string    `json:"report"`
}

type UpdateVisitRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Report      string     `json:"report"`
	Status      string     `json:"status" binding:"omitempty,oneof=SCHEDULED DONE CANCELLED"`
}

type VisitResponse struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Report      string    `json:"report"`
	Status      string    `json:"status"`
	CreatedAt   string    `json:"created_at"`
}

// --- Interface ---

type VisitService interface {
	CreateVisit(ctx context.Context, actorID string, req CreateVisitRequest) (*VisitResponse, error)
	GetVisit(ctx context.Context, id string) (*VisitResponse, error)
	ListVisits(ctx context.Context, page, limit int) ([]VisitResponse, int64, error)
	UpdateVisit(ctx context.Context, id string, req UpdateVisitRequest) (*VisitResponse, error)
}

type visitService struct {
	db *gorm.DB
}

func NewVisitService(db *gorm.DB) VisitService {
	return &visitService{db: db}
}

// --- Implementation ---

func (s *visitService) CreateVisit(ctx context.Context, actorID string, req CreateVisitRequest) (*VisitResponse, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apperr.Validation("invalid client id: %v", err)
	}

	var client model.Client
	if err := s.db.WithContext(ctx).First(&client, "id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("client %s not found", req.ClientID)
		}
		return nil, err
	}

	var creatorID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		creatorID = &parsed
	}

	visit := model.TechnicalVisit{
		ClientID:    clientID,
		ScheduledAt: req.ScheduledAt,
		Report:      req.Report,
		Status:      model.VisitScheduled,
		CreatedBy:   creatorID,
	}
	if err := s.db.WithContext(ctx).Create(&visit).Error; err != nil {
		return nil, fmt.Errorf("failed to create technical visit: %w", err)
	}

	resp := toVisitResponse(visit)
	return &resp, nil
}

func (s *visitService) GetVisit(ctx context.Context, id string) (*VisitResponse, error) {
	visitID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid visit id: %v", err)
	}

	var visit model.TechnicalVisit
	if err := s.db.WithContext(ctx).First(&visit, "id = ?", visitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("technical visit %s not found", id)
		}
		return nil, err
	}

	resp := toVisitResponse(visit)
	return &resp, nil
}

func (s *visitService) ListVisits(ctx context.Context, page, limit int) ([]VisitResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.TechnicalVisit{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var visits []model.TechnicalVisit
	if err := s.db.WithContext(ctx).
		Order("scheduled_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&visits).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch technical visits: %w", err)
	}

	res := make([]VisitResponse, 0, len(visits))
	for _, v := range visits {
		res = append(res, toVisitResponse(v))
	}
	return res, total, nil
}

func (s *visitService) UpdateVisit(ctx context.Context, id string, req UpdateVisitRequest) (*VisitResponse, error) {
	visitID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid visit id: %v", err)
	}

	var visit model.TechnicalVisit
	if err := s.db.WithContext(ctx).First(&visit, "id = ?", visitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("technical visit %s not found", id)
		}
		return nil, err
	}

	if req.ScheduledAt != nil {
		visit.ScheduledAt = *req.ScheduledAt
	}
	if req.Report != "" {
		visit.Report = req.Report
	}
	if req.Status != "" {
		visit.Status = req.Status
	}

	if err := s.db.WithContext(ctx).Save(&visit).Error; err != nil {
		return nil, fmt.Errorf("failed to update technical visit: %w", err)
	}

	resp := toVisitResponse(visit)
	return &resp, nil
}

func toVisitResponse(v model.TechnicalVisit) VisitResponse {
	return VisitResponse{
		ID:          v.ID.String(),
		ClientID:    v.ClientID.String(),
		ScheduledAt: v.ScheduledAt,
		Report:      v.Report,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
}
