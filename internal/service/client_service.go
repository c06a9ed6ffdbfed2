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

type CreateClientRequest struct {
	Name     string `json:"name" binding:"required"`
	Document string `json:"document" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type UpdateClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Active  *bool  `json:"active"`
}

type ClientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Document  string `json:"document"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

// ClientService is the flat client record keeping the workflow core looks
// clients up against.
type ClientService interface {
	CreateClient(ctx context.Context, req CreateClientRequest) (*ClientResponse, error)
	GetClient(ctx context.Context, id string) (*ClientResponse, error)
	ListClients(ctx context.Context, page, limit int) ([]ClientResponse, int64, error)
	UpdateClient(ctx context.Context, id string, req UpdateClientRequest) (*ClientResponse, error)
	DeleteClient(ctx context.Context, id string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

// --- Implementation ---

func (s *clientService) CreateClient(ctx context.Context, req CreateClientRequest) (*ClientResponse, error) {
	var clash model.Client
	if err := s.db.WithContext(ctx).Where("document = ?", req.Document).First(&clash).Error; err == nil {
		return nil, apperr.Conflict("a client with document %s already exists", req.Document)
	}

	client := model.Client{
		Name:     req.Name,
		Document: req.Document,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Active:   true,
	}
	if err := s.db.WithContext(ctx).Create(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("a client with document %s already exists", req.Document)
		}
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	resp := toClientResponse(client)
	return &resp, nil
}

func (s *clientService) GetClient(ctx context.Context, id string) (*ClientResponse, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toClientResponse(*client)
	return &resp, nil
}

func (s *clientService) ListClients(ctx context.Context, page, limit int) ([]ClientResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Client{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clients []model.Client
	if err := s.db.WithContext(ctx).
		Order("name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&clients).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch clients: %w", err)
	}

	res := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		res = append(res, toClientResponse(c))
	}
	return res, total, nil
}

func (s *clientService) UpdateClient(ctx context.Context, id string, req UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		client.Name = req.Name
	}
	if req.Email != "" {
		client.Email = req.Email
	}
	if req.Phone != "" {
		client.Phone = req.Phone
	}
	if req.Address != "" {
		client.Address = req.Address
	}
	if req.Active != nil {
		client.Active = *req.Active
	}

	if err := s.db.WithContext(ctx).Save(client).Error; err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	resp := toClientResponse(*client)
	return &resp, nil
}

func (s *clientService) DeleteClient(ctx context.Context, id string) error {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return err
	}

	var orders int64
	if err := s.db.WithContext(ctx).Model(&model.ServiceOrder{}).Where("client_id = ?", client.ID).Count(&orders).Error; err != nil {
		return err
	}
	if orders > 0 {
		return apperr.Conflict("client %s has %d service order(s) and cannot be deleted", client.Name, orders)
	}

	return s.db.WithContext(ctx).Delete(client).Error
}

func (s *clientService) findClient(ctx context.Context, id string) (*model.Client, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid client id: %v", err)
	}
	var client model.Client
	if err := s.db.WithContext(ctx).First(&client, "id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("client %s not found", id)
		}
		return nil, err
	}
	return &client, nil
}

func toClientResponse(c model.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Document:  c.Document,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Active:    c.Active,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}
