package service

import (
	"testing"
	"time"

	"fieldops/internal/model"
	"fieldops/pkg/apperr"
)

func TestInvoiceStatusChangeAllowed(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		next     string
		wantKind apperr.Kind
	}{
		{name: "issued to paid", current: model.InvoiceIssued, next: model.InvoicePaid},
		{name: "issued to overdue", current: model.InvoiceIssued, next: model.InvoiceOverdue},
		{name: "issued to cancelled", current: model.InvoiceIssued, next: model.InvoiceCancelled},
		{name: "overdue to paid", current: model.InvoiceOverdue, next: model.InvoicePaid},
		{name: "overdue back to issued", current: model.InvoiceOverdue, next: model.InvoiceIssued},
		{name: "paid is terminal", current: model.InvoicePaid, next: model.InvoiceCancelled, wantKind: apperr.KindInvalidTransition},
		{name: "cancelled is terminal", current: model.InvoiceCancelled, next: model.InvoiceIssued, wantKind: apperr.KindInvalidTransition},
		{name: "same status is rejected", current: model.InvoiceIssued, next: model.InvoiceIssued, wantKind: apperr.KindInvalidTransition},
		{name: "unknown status is rejected", current: model.InvoiceIssued, next: "SHREDDED", wantKind: apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := invoiceStatusChangeAllowed(tt.current, tt.next)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("invoiceStatusChangeAllowed(%s, %s) = %v, want nil", tt.current, tt.next, err)
				}
				return
			}
			if got := apperr.KindOf(err); got != tt.wantKind {
				t.Errorf("invoiceStatusChangeAllowed(%s, %s) kind = %s, want %s", tt.current, tt.next, got, tt.wantKind)
			}
		})
	}
}

func TestInitialInvoiceStatus(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	if got := initialInvoiceStatus(now.AddDate(0, 0, 15), now); got != model.InvoiceIssued {
		t.Errorf("future due date = %s, want %s", got, model.InvoiceIssued)
	}
	if got := initialInvoiceStatus(now.AddDate(0, 0, -1), now); got != model.InvoiceOverdue {
		t.Errorf("past due date = %s, want %s", got, model.InvoiceOverdue)
	}
}
