package service

import (
	"testing"
	"time"

	"fieldops/internal/model"
	"fieldops/pkg/apperr"

	"github.com/google/uuid"
)

func TestValidatePurchaseOrderIssue(t *testing.T) {
	orderClient := uuid.New()
	issue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	expiry := issue.AddDate(0, 1, 0)

	if err := validatePurchaseOrderIssue(orderClient, orderClient, issue, expiry); err != nil {
		t.Fatalf("valid issue = %v, want nil", err)
	}

	err := validatePurchaseOrderIssue(orderClient, uuid.New(), issue, expiry)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("client mismatch = %v, want VALIDATION", err)
	}

	err = validatePurchaseOrderIssue(orderClient, orderClient, issue, issue)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expiry equal to issue date = %v, want VALIDATION", err)
	}

	err = validatePurchaseOrderIssue(orderClient, orderClient, expiry, issue)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expiry before issue date = %v, want VALIDATION", err)
	}
}

func TestInitialPurchaseOrderStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	if got := initialPurchaseOrderStatus(now.AddDate(0, 0, 30), now); got != model.POApproved {
		t.Errorf("future expiry = %s, want %s", got, model.POApproved)
	}
	if got := initialPurchaseOrderStatus(now.AddDate(0, 0, -1), now); got != model.POExpired {
		t.Errorf("past expiry = %s, want %s", got, model.POExpired)
	}
	// Expiring exactly now is not yet expired.
	if got := initialPurchaseOrderStatus(now, now); got != model.POApproved {
		t.Errorf("expiry at now = %s, want %s", got, model.POApproved)
	}
}
