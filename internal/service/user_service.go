package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"fieldops/internal/model"
	"fieldops/internal/permission"
	"fieldops/internal/repository"
	"fieldops/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=6"`
	RoleID   string   `json:"role_id"`
	Grants   []string `json:"grants"` // Individual permission codes on top of the role
}

type UpdateUserRequest struct {
	Name   string    `json:"name"`
	Email  string    `json:"email" binding:"omitempty,email"`
	RoleID string    `json:"role_id"`
	Active *bool     `json:"active"`
	Grants *[]string `json:"grants"` // Nil leaves grants untouched; empty slice clears them
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	RoleID    *string   `json:"role_id"`
	Grants    []string  `json:"grants"`
	Active    bool      `json:"active"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenPairResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	db   *gorm.DB
	repo repository.UserRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(db *gorm.DB, repo repository.UserRepository) UserService {
	return &userService{db: db, repo: repo}
}

const refreshTokenTTL = 7 * 24 * time.Hour

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only, DO NOT use in production
	}
	return []byte(secret)
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	var roleID *string
	if user.RoleID != nil {
		v := user.RoleID.String()
		roleID = &v
	}
	grants := make([]string, 0, len(user.Permissions))
	for _, p := range user.Permissions {
		grants = append(grants, p.Code)
	}
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.RoleName(),
		RoleID:    roleID,
		Grants:    grants,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Conflict("email already exists")
	}

	if len(req.Grants) > 0 && !permission.Valid(req.Grants...) {
		return nil, apperr.Validation("request contains permission codes not present in the catalog")
	}

	var roleID *uuid.UUID
	if req.RoleID != "" {
		parsed, parseErr := uuid.Parse(req.RoleID)
		if parseErr != nil {
			return nil, apperr.Validation("invalid role id: %v", parseErr)
		}
		var role model.Role
		if err := s.db.WithContext(ctx).First(&role, "id = ?", parsed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("role %s not found", req.RoleID)
			}
			return nil, err
		}
		roleID = &parsed
	}

	// Hash password automatically
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		RoleID:   roleID,
		Active:   true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if createErr := tx.Create(user).Error; createErr != nil {
			return fmt.Errorf("failed to create user: %w", createErr)
		}
		if len(req.Grants) > 0 {
			var perms []model.Permission
			if findErr := tx.Where("code IN ?", req.Grants).Find(&perms).Error; findErr != nil {
				return findErr
			}
			if assocErr := tx.Model(user).Association("Permissions").Replace(perms); assocErr != nil {
				return fmt.Errorf("failed to assign grants: %w", assocErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, user.ID.String())
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenPairResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Forbidden("invalid email or password")
	}

	if !user.Active {
		return nil, apperr.Forbidden("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Forbidden("invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token and issues a new access token.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error) {
	var stored model.RefreshToken
	if err := s.db.WithContext(ctx).First(&stored, "token = ?", refreshToken).Error; err != nil {
		return nil, apperr.Forbidden("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.db.WithContext(ctx).Delete(&stored).Error
		return nil, apperr.Forbidden("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID.String())
	if err != nil {
		return nil, apperr.Forbidden("invalid refresh token")
	}
	if !user.Active {
		return nil, apperr.Forbidden("account is deactivated")
	}

	if err := s.db.WithContext(ctx).Delete(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenPairResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.RoleName(),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})

	accessToken, err := token.SignedString(jwtSecret())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refresh := model.RefreshToken{
		UserID:    user.ID,
		Token:     hex.EncodeToString(raw),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := s.db.WithContext(ctx).Create(&refresh).Error; err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPairResponse{AccessToken: accessToken, RefreshToken: refresh.Token}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByIDWithGrants(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", id)
		}
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *mapToResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", id)
		}
		return nil, err
	}

	if req.Grants != nil && !permission.Valid(*req.Grants...) {
		return nil, apperr.Validation("request contains permission codes not present in the catalog")
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		if _, clashErr := s.repo.GetByEmail(ctx, req.Email); clashErr == nil {
			return nil, apperr.Conflict("email already exists")
		}
		user.Email = req.Email
	}
	if req.RoleID != "" {
		parsed, parseErr := uuid.Parse(req.RoleID)
		if parseErr != nil {
			return nil, apperr.Validation("invalid role id: %v", parseErr)
		}
		var role model.Role
		if err := s.db.WithContext(ctx).First(&role, "id = ?", parsed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("role %s not found", req.RoleID)
			}
			return nil, err
		}
		user.RoleID = &parsed
		user.Role = nil
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if saveErr := tx.Save(user).Error; saveErr != nil {
			return fmt.Errorf("failed to update user: %w", saveErr)
		}
		if req.Grants != nil {
			var perms []model.Permission
			if len(*req.Grants) > 0 {
				if findErr := tx.Where("code IN ?", *req.Grants).Find(&perms).Error; findErr != nil {
					return findErr
				}
			}
			if assocErr := tx.Model(user).Association("Permissions").Replace(perms); assocErr != nil {
				return fmt.Errorf("failed to update grants: %w", assocErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user %s not found", id)
		}
		return err
	}
	return s.repo.Delete(ctx, id)
}
