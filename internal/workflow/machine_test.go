package workflow

import (
	"testing"

	"fieldops/pkg/apperr"

	"github.com/google/uuid"
)

var (
	owner      = Actor{ID: uuid.New(), Role: RoleTechnician, IsOwner: true}
	technician = Actor{ID: uuid.New(), Role: RoleTechnician}
	manager    = Actor{ID: uuid.New(), Role: RoleManager}
	admin      = Actor{ID: uuid.New(), Role: RoleAdmin}
)

func TestInitialStatus(t *testing.T) {
	if got := InitialStatus(TypeExecution); got != StatusDraft {
		t.Errorf("execution order initial status = %s, want %s", got, StatusDraft)
	}
	if got := InitialStatus(TypeVisitReport); got != StatusPendingApproval {
		t.Errorf("visit report initial status = %s, want %s", got, StatusPendingApproval)
	}
}

func TestValidateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		order    OrderView
		to       Status
		actor    Actor
		comments string
		wantKind apperr.Kind
	}{
		{
			name:  "owner submits draft",
			order: OrderView{Status: StatusDraft},
			to:    StatusPendingApproval,
			actor: owner,
		},
		{
			name:  "manager submits someone else's draft",
			order: OrderView{Status: StatusDraft},
			to:    StatusPendingApproval,
			actor: manager,
		},
		{
			name:     "non-owner technician cannot submit",
			order:    OrderView{Status: StatusDraft},
			to:       StatusPendingApproval,
			actor:    technician,
			wantKind: apperr.KindForbidden,
		},
		{
			name:  "manager approves",
			order: OrderView{Status: StatusPendingApproval},
			to:    StatusApproved,
			actor: manager,
		},
		{
			name:  "admin approves",
			order: OrderView{Status: StatusPendingApproval},
			to:    StatusApproved,
			actor: admin,
		},
		{
			name:     "owner cannot approve own order",
			order:    OrderView{Status: StatusPendingApproval},
			to:       StatusApproved,
			actor:    owner,
			wantKind: apperr.KindForbidden,
		},
		{
			name:     "manager rejects with comment",
			order:    OrderView{Status: StatusPendingApproval},
			to:       StatusRejected,
			actor:    manager,
			comments: "scope is incomplete",
		},
		{
			name:     "rejection comment of nine runes is too short",
			order:    OrderView{Status: StatusPendingApproval},
			to:       StatusRejected,
			actor:    manager,
			comments: "too short",
			wantKind: apperr.KindValidation,
		},
		{
			name:     "rejection comment of exactly ten runes passes",
			order:    OrderView{Status: StatusPendingApproval},
			to:       StatusRejected,
			actor:    manager,
			comments: "0123456789",
		},
		{
			name:     "approved to in-progress is cascade-only",
			order:    OrderView{Status: StatusApproved},
			to:       StatusInProgress,
			actor:    admin,
			wantKind: apperr.KindInvalidTransition,
		},
		{
			name:  "system actor drives approved to in-progress",
			order: OrderView{Status: StatusApproved},
			to:    StatusInProgress,
			actor: SystemActor,
		},
		{
			name:  "owner completes at full progress",
			order: OrderView{Status: StatusInProgress, Progress: 100},
			to:    StatusCompleted,
			actor: owner,
		},
		{
			name:  "system actor completes regardless of progress",
			order: OrderView{Status: StatusInProgress, Progress: 0},
			to:    StatusCompleted,
			actor: SystemActor,
		},
		{
			name:     "second approval is a conflict",
			order:    OrderView{Status: StatusApproved},
			to:       StatusApproved,
			actor:    manager,
			wantKind: apperr.KindConflict,
		},
		{
			name:     "completion blocked below full progress",
			order:    OrderView{Status: StatusInProgress, Progress: 99},
			to:       StatusCompleted,
			actor:    manager,
			wantKind: apperr.KindValidation,
		},
		{
			name:     "draft cannot jump to approved",
			order:    OrderView{Status: StatusDraft},
			to:       StatusApproved,
			actor:    manager,
			wantKind: apperr.KindInvalidTransition,
		},
		{
			name:     "draft cannot jump to completed",
			order:    OrderView{Status: StatusDraft},
			to:       StatusCompleted,
			actor:    admin,
			wantKind: apperr.KindInvalidTransition,
		},
		{
			name:     "no transition out of completed",
			order:    OrderView{Status: StatusCompleted, Progress: 100},
			to:       StatusInProgress,
			actor:    admin,
			wantKind: apperr.KindInvalidTransition,
		},
		{
			name:     "no transition out of rejected",
			order:    OrderView{Status: StatusRejected},
			to:       StatusPendingApproval,
			actor:    manager,
			wantKind: apperr.KindInvalidTransition,
		},
		{
			name:     "self transition is rejected",
			order:    OrderView{Status: StatusDraft},
			to:       StatusDraft,
			actor:    manager,
			wantKind: apperr.KindInvalidTransition,
		},
		{
			name:     "unknown status is rejected",
			order:    OrderView{Status: StatusDraft},
			to:       Status("SHIPPED"),
			actor:    manager,
			wantKind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.order, tt.to, tt.actor, tt.comments)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want kind %s", tt.wantKind)
			}
			if got := apperr.KindOf(err); got != tt.wantKind {
				t.Errorf("Validate() kind = %s, want %s (err: %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestValidateCancellation(t *testing.T) {
	nonTerminal := []Status{StatusDraft, StatusPendingApproval, StatusApproved, StatusInProgress}
	for _, from := range nonTerminal {
		if err := Validate(OrderView{Status: from}, StatusCancelled, manager, ""); err != nil {
			t.Errorf("manager cancel from %s = %v, want nil", from, err)
		}
		err := Validate(OrderView{Status: from}, StatusCancelled, owner, "")
		if !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("owner cancel from %s = %v, want FORBIDDEN", from, err)
		}
	}

	terminal := []Status{StatusCompleted, StatusCancelled, StatusRejected}
	for _, from := range terminal {
		err := Validate(OrderView{Status: from}, StatusCancelled, admin, "")
		if !apperr.IsKind(err, apperr.KindInvalidTransition) {
			t.Errorf("cancel from terminal %s = %v, want INVALID_TRANSITION", from, err)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusRejected} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = false, want true", s)
		}
	}
	for _, s := range []Status{StatusDraft, StatusPendingApproval, StatusApproved, StatusInProgress} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = true, want false", s)
		}
	}
}

func TestCanEditFields(t *testing.T) {
	// Draft: owner and manager may edit, other technicians may not.
	if err := CanEditFields(StatusDraft, owner); err != nil {
		t.Errorf("owner edit draft = %v, want nil", err)
	}
	if err := CanEditFields(StatusDraft, manager); err != nil {
		t.Errorf("manager edit draft = %v, want nil", err)
	}
	if err := CanEditFields(StatusDraft, technician); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("technician edit draft = %v, want FORBIDDEN", err)
	}

	// After approval the owner loses edit rights.
	for _, s := range []Status{StatusApproved, StatusInProgress} {
		if err := CanEditFields(s, owner); !apperr.IsKind(err, apperr.KindForbidden) {
			t.Errorf("owner edit %s = %v, want FORBIDDEN", s, err)
		}
		if err := CanEditFields(s, admin); err != nil {
			t.Errorf("admin edit %s = %v, want nil", s, err)
		}
	}

	// Terminal states accept no edits at all.
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusRejected} {
		if err := CanEditFields(s, admin); !apperr.IsKind(err, apperr.KindInvalidTransition) {
			t.Errorf("admin edit %s = %v, want INVALID_TRANSITION", s, err)
		}
	}
}
