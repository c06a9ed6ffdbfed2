package workflow

import (
	"fieldops/pkg/apperr"

	"github.com/google/uuid"
)

// ServiceOrder lifecycle statuses.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusInProgress      Status = "IN_PROGRESS"
	StatusCompleted       Status = "COMPLETED"
	StatusCancelled       Status = "CANCELLED"
)

// OrderType drives the initial status: execution orders start as drafts, visit
// reports need sign-off before work starts.
type OrderType string

const (
	TypeVisitReport OrderType = "VISIT_REPORT"
	TypeExecution   OrderType = "EXECUTION"
)

// Built-in role names. The admin role bypasses permission checks everywhere.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
)

// MinRejectionComment is the minimum length of the mandatory comment when an
// order is rejected.
const MinRejectionComment = 10

// Actor identifies who is requesting a transition. System is the engine itself
// applying a cascade (purchase-order issuance, delivery registration).
type Actor struct {
	ID      uuid.UUID
	Role    string
	IsOwner bool // actor created the order
	System  bool
}

// SystemActor is the actor used for engine-driven cascades.
var SystemActor = Actor{System: true}

func (a Actor) isManager() bool {
	return a.Role == RoleManager || a.Role == RoleAdmin
}

// OrderView is the slice of ServiceOrder state the machine needs.
type OrderView struct {
	Status   Status
	Progress int
}

type requirement int

const (
	requireOwnerOrManager requirement = iota
	requireManager
	requireSystem // cascade-only edge, never requested directly
)

type edge struct {
	from, to Status
	req      requirement
	guard    func(OrderView) error
}

var edges = []edge{
	{from: StatusDraft, to: StatusPendingApproval, req: requireOwnerOrManager},
	{from: StatusPendingApproval, to: StatusApproved, req: requireManager},
	{from: StatusPendingApproval, to: StatusRejected, req: requireManager},
	{from: StatusApproved, to: StatusInProgress, req: requireSystem},
	{from: StatusInProgress, to: StatusCompleted, req: requireOwnerOrManager, guard: func(o OrderView) error {
		if o.Progress < 100 {
			return apperr.Validation("order progress must reach 100 before manual completion")
		}
		return nil
	}},
}

// InitialStatus returns the status a newly created order of the given type
// starts in.
func InitialStatus(t OrderType) Status {
	if t == TypeVisitReport {
		return StatusPendingApproval
	}
	return StatusDraft
}

// IsTerminal reports whether no further transitions are accepted from s.
func IsTerminal(s Status) bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected,
		StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ValidType reports whether t is a known order type.
func ValidType(t OrderType) bool {
	return t == TypeVisitReport || t == TypeExecution
}

func findEdge(from, to Status) (edge, bool) {
	// Cancellation is legal from every non-terminal state and always requires
	// a manager; it is not enumerated per-state in the table.
	if to == StatusCancelled && !IsTerminal(from) {
		return edge{from: from, to: StatusCancelled, req: requireManager}, true
	}
	for _, e := range edges {
		if e.from == from && e.to == to {
			return e, true
		}
	}
	return edge{}, false
}

// Validate checks a requested transition against the edge table, the actor and
// the edge guard. Cascade-applied transitions pass SystemActor. Comments are
// only meaningful for rejections, where they are mandatory.
func Validate(order OrderView, to Status, actor Actor, comments string) error {
	if !ValidStatus(to) {
		return apperr.Validation("unknown status %q", to)
	}
	if IsTerminal(order.Status) {
		return apperr.InvalidTransition("order is %s; no further transitions are accepted", order.Status)
	}
	// A repeat approval is a duplicate, not an unreachable edge.
	if order.Status == StatusApproved && to == StatusApproved {
		return apperr.Conflict("order is already approved")
	}
	if order.Status == to {
		return apperr.InvalidTransition("order is already %s", to)
	}

	e, ok := findEdge(order.Status, to)
	if !ok {
		return apperr.InvalidTransition("cannot move order from %s to %s", order.Status, to)
	}

	switch e.req {
	case requireSystem:
		if !actor.System {
			return apperr.InvalidTransition("status moves to %s only through a purchase-order issuance", to)
		}
	case requireManager:
		if !actor.System && !actor.isManager() {
			return apperr.Forbidden("only a manager or admin may move an order to %s", to)
		}
	case requireOwnerOrManager:
		if !actor.System && !actor.IsOwner && !actor.isManager() {
			return apperr.Forbidden("only the order owner, a manager or an admin may move an order to %s", to)
		}
	}

	// Guards constrain manual requests only. A cascade establishes the guarded
	// state itself (delivery registration forces progress to 100), so it must
	// not be blocked by the state it is about to write.
	if e.guard != nil && !actor.System {
		if err := e.guard(order); err != nil {
			return err
		}
	}

	if to == StatusRejected && len([]rune(comments)) < MinRejectionComment {
		return apperr.Validation("rejection comments must have at least %d characters", MinRejectionComment)
	}

	return nil
}

// CanEditFields reports whether the actor may edit non-status fields of an
// order in the given status. Status and progress are excluded; those move only
// through the engine.
func CanEditFields(status Status, actor Actor) error {
	if IsTerminal(status) {
		return apperr.InvalidTransition("order is %s and can no longer be edited", status)
	}
	switch status {
	case StatusApproved, StatusInProgress:
		if !actor.isManager() {
			return apperr.Forbidden("only a manager or admin may edit an order after approval")
		}
	default:
		if !actor.IsOwner && !actor.isManager() {
			return apperr.Forbidden("only the order owner, a manager or an admin may edit this order")
		}
	}
	return nil
}
