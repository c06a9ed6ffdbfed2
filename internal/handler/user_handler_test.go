package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fieldops/internal/service"
	"fieldops/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubUserService struct {
	user *service.UserResponse
}

func (s *stubUserService) CreateUser(ctx context.Context, req service.CreateUserRequest) (*service.UserResponse, error) {
	return nil, nil
}
func (s *stubUserService) Login(ctx context.Context, req service.LoginUserRequest) (*service.TokenPairResponse, error) {
	return nil, nil
}
func (s *stubUserService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPairResponse, error) {
	return nil, nil
}
func (s *stubUserService) GetUserByID(ctx context.Context, id string) (*service.UserResponse, error) {
	return s.user, nil
}
func (s *stubUserService) ListUsers(ctx context.Context, page, limit int) ([]service.UserResponse, int64, error) {
	return nil, 0, nil
}
func (s *stubUserService) UpdateUser(ctx context.Context, id string, req service.UpdateUserRequest) (*service.UserResponse, error) {
	return nil, nil
}
func (s *stubUserService) DeleteUser(ctx context.Context, id string) error { return nil }

type stubAuthzService struct {
	perms []string
}

func (s *stubAuthzService) Resolve(ctx context.Context, userID string) ([]string, error) {
	return s.perms, nil
}
func (s *stubAuthzService) HasAnyPermission(ctx context.Context, userID string, codes ...string) (bool, error) {
	return true, nil
}
func (s *stubAuthzService) HasRole(ctx context.Context, userID string, roles ...string) (bool, error) {
	return false, nil
}
func (s *stubAuthzService) Actor(ctx context.Context, userID string) (*service.ActorView, error) {
	return nil, nil
}

func TestGetMeIncludesResolvedPermissions(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	users := &stubUserService{user: &service.UserResponse{ID: userID, Name: "Dana", Role: workflow.RoleTechnician}}
	authz := &stubAuthzService{perms: []string{"orders:read", "visits:write"}}
	h := NewUserHandler(users, authz)

	router := gin.New()
	h.RegisterRoutes(router.Group("/api"))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, userID.String(), workflow.RoleTechnician))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var body struct {
		Data struct {
			User struct {
				Name string `json:"name"`
			} `json:"user"`
			Permissions []string `json:"permissions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if body.Data.User.Name != "Dana" {
		t.Errorf("user name = %q, want %q", body.Data.User.Name, "Dana")
	}
	want := []string{"orders:read", "visits:write"}
	if len(body.Data.Permissions) != len(want) || body.Data.Permissions[0] != want[0] || body.Data.Permissions[1] != want[1] {
		t.Errorf("permissions = %v, want %v", body.Data.Permissions, want)
	}
}
