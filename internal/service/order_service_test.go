package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"fieldops/internal/model"
	"fieldops/internal/repository"
	"fieldops/internal/workflow"

	"github.com/google/uuid"
)

// stubOrderRepo records Save calls; everything else is unused by the code
// under test.
type stubOrderRepo struct {
	saved *model.ServiceOrder
}

func (r *stubOrderRepo) Create(ctx context.Context, order *model.ServiceOrder) error { return nil }
func (r *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error) {
	return nil, nil
}
func (r *stubOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error) {
	return nil, nil
}
func (r *stubOrderRepo) Save(ctx context.Context, order *model.ServiceOrder) error {
	r.saved = order
	return nil
}
func (r *stubOrderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]model.ServiceOrder, int64, error) {
	return nil, 0, nil
}
func (r *stubOrderRepo) NextNumber(ctx context.Context, at time.Time) (string, error) {
	return "", nil
}
func (r *stubOrderRepo) HasApprovedApproval(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return false, nil
}
func (r *stubOrderRepo) CountActivePurchaseOrders(ctx context.Context, orderID uuid.UUID) (int64, error) {
	return 0, nil
}

type captureHub struct {
	ch chan []byte
}

func (h *captureHub) GetBroadcast() chan []byte { return h.ch }

func TestCascadeCompletesBelowFullProgress(t *testing.T) {
	repo := &stubOrderRepo{}
	hub := &captureHub{ch: make(chan []byte, 4)}
	svc := NewOrderService(nil, nil, repo, nil, nil, hub)

	// Right after purchase-order issuance an order sits at progress 0; a
	// delivery registration must still complete it.
	order := &model.ServiceOrder{
		ID:       uuid.New(),
		Number:   "OS-2026-00001",
		Status:   workflow.StatusInProgress,
		Progress: 0,
	}
	if err := svc.CascadeTransition(context.Background(), order, workflow.StatusCompleted); err != nil {
		t.Fatalf("CascadeTransition() = %v, want nil", err)
	}
	if order.Status != workflow.StatusCompleted {
		t.Errorf("status = %s, want %s", order.Status, workflow.StatusCompleted)
	}
	if order.Progress != 100 {
		t.Errorf("progress = %d, want 100", order.Progress)
	}
	if repo.saved != order {
		t.Error("cascade did not save the order")
	}
}

func TestCascadeDoesNotBroadcast(t *testing.T) {
	repo := &stubOrderRepo{}
	hub := &captureHub{ch: make(chan []byte, 4)}
	svc := NewOrderService(nil, nil, repo, nil, nil, hub)

	order := &model.ServiceOrder{
		ID:     uuid.New(),
		Status: workflow.StatusApproved,
	}
	if err := svc.CascadeTransition(context.Background(), order, workflow.StatusInProgress); err != nil {
		t.Fatalf("CascadeTransition() = %v, want nil", err)
	}

	// The caller's transaction may still roll back, so nothing may have been
	// published yet.
	if got := len(hub.ch); got != 0 {
		t.Fatalf("cascade published %d events before commit, want 0", got)
	}

	svc.PublishEvent(workflow.EventPurchaseOrderIssued, order)
	select {
	case raw := <-hub.ch:
		var env workflow.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		if env.Event != workflow.EventPurchaseOrderIssued {
			t.Errorf("event = %s, want %s", env.Event, workflow.EventPurchaseOrderIssued)
		}
		if env.Status != workflow.StatusInProgress {
			t.Errorf("status = %s, want %s", env.Status, workflow.StatusInProgress)
		}
	default:
		t.Fatal("PublishEvent did not deliver an envelope")
	}
}
