package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fieldops/internal/service"
	"fieldops/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testJWTSecret = "handler_test_secret"

func signTestToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

type stubPOService struct {
	expired int64
}

func (s *stubPOService) Issue(ctx context.Context, orderID string, actorID string, req service.IssuePurchaseOrderRequest) (*service.PurchaseOrderResponse, error) {
	return nil, nil
}
func (s *stubPOService) ListByOrder(ctx context.Context, orderID string) ([]service.PurchaseOrderResponse, error) {
	return nil, nil
}
func (s *stubPOService) SweepExpired(ctx context.Context) (int64, error) {
	return s.expired, nil
}

type stubInvoiceService struct{}

func (s *stubInvoiceService) Issue(ctx context.Context, orderID string, actorID string, req service.IssueInvoiceRequest) (*service.InvoiceResponse, error) {
	return nil, nil
}
func (s *stubInvoiceService) ListByOrder(ctx context.Context, orderID string) ([]service.InvoiceResponse, error) {
	return nil, nil
}
func (s *stubInvoiceService) UpdateStatus(ctx context.Context, id string, actorID string, status string) (*service.InvoiceResponse, error) {
	return nil, nil
}
func (s *stubInvoiceService) SweepOverdue(ctx context.Context) (int64, error) {
	return 0, nil
}

type stubRoleChecker struct {
	allow      bool
	askedRoles []string
}

func (s *stubRoleChecker) HasRole(ctx context.Context, userID string, roles ...string) (bool, error) {
	s.askedRoles = roles
	return s.allow, nil
}

func TestSweepGateAllowsManagerRejectsTechnician(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		role     string
		allow    bool
		wantCode int
	}{
		{name: "manager may trigger a sweep", role: workflow.RoleManager, allow: true, wantCode: http.StatusOK},
		{name: "admin may trigger a sweep", role: workflow.RoleAdmin, allow: true, wantCode: http.StatusOK},
		{name: "technician is rejected", role: workflow.RoleTechnician, allow: false, wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &stubRoleChecker{allow: tt.allow}
			h := NewMaintenanceHandler(&stubPOService{expired: 3}, &stubInvoiceService{}, checker)

			router := gin.New()
			h.RegisterRoutes(router.Group("/api"))

			req := httptest.NewRequest(http.MethodPost, "/api/maintenance/sweep/purchase-orders", nil)
			req.Header.Set("Authorization", "Bearer "+signTestToken(t, uuid.NewString(), tt.role))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body: %s)", w.Code, tt.wantCode, w.Body.String())
			}

			// The gate asks for the stored role, manager or admin.
			want := []string{workflow.RoleManager, workflow.RoleAdmin}
			if len(checker.askedRoles) != len(want) || checker.askedRoles[0] != want[0] || checker.askedRoles[1] != want[1] {
				t.Errorf("checked roles = %v, want %v", checker.askedRoles, want)
			}
		})
	}
}
