package service

import (
	"context"
	"fmt"
	"time"

	"fieldops/internal/model"
	"fieldops/internal/repository"
)

type AuditEntryResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	List(ctx context.Context, filter repository.AuditFilter) ([]AuditEntryResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, filter repository.AuditFilter) ([]AuditEntryResponse, int64, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit log: %w", err)
	}

	res := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toAuditResponse(e))
	}
	return res, total, nil
}

func toAuditResponse(e model.AuditLog) AuditEntryResponse {
	userID := ""
	if e.UserID != nil {
		userID = e.UserID.String()
	}
	userName := ""
	if e.User != nil {
		userName = e.User.Name
	}
	return AuditEntryResponse{
		ID:         e.ID.String(),
		UserID:     userID,
		UserName:   userName,
		Action:     e.Action,
		EntityID:   e.EntityID,
		EntityName: e.EntityName,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
}
