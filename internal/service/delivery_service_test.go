package service

import (
	"testing"

	"fieldops/internal/model"
	"fieldops/internal/workflow"
	"fieldops/pkg/apperr"
)

func TestValidateDeliveryChecklist(t *testing.T) {
	err := validateDeliveryChecklist(nil)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("empty checklist = %v, want VALIDATION", err)
	}

	partial := model.Checklist{
		{Item: "equipment installed", Completed: true},
		{Item: "site cleaned", Completed: false},
	}
	err = validateDeliveryChecklist(partial)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("partial checklist = %v, want VALIDATION", err)
	}

	complete := model.Checklist{
		{Item: "equipment installed", Completed: true},
		{Item: "site cleaned", Completed: true},
	}
	if err := validateDeliveryChecklist(complete); err != nil {
		t.Errorf("complete checklist = %v, want nil", err)
	}
}

func TestDeliveryAllowedFor(t *testing.T) {
	for _, s := range []workflow.Status{workflow.StatusInProgress, workflow.StatusCompleted} {
		if err := deliveryAllowedFor(s); err != nil {
			t.Errorf("deliveryAllowedFor(%s) = %v, want nil", s, err)
		}
	}
	for _, s := range []workflow.Status{
		workflow.StatusDraft, workflow.StatusPendingApproval, workflow.StatusApproved,
		workflow.StatusRejected, workflow.StatusCancelled,
	} {
		err := deliveryAllowedFor(s)
		if !apperr.IsKind(err, apperr.KindInvalidTransition) {
			t.Errorf("deliveryAllowedFor(%s) = %v, want INVALID_TRANSITION", s, err)
		}
	}
}
