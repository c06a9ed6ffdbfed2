package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound("missing")); got != KindNotFound {
		t.Errorf("KindOf(NotFound) = %s", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain error) = %s, want %s", got, KindInternal)
	}
	if got := KindOf(nil); got != KindInternal {
		t.Errorf("KindOf(nil) = %s, want %s", got, KindInternal)
	}

	// Kind survives wrapping.
	wrapped := fmt.Errorf("saving order: %w", Conflict("duplicate number"))
	if got := KindOf(wrapped); got != KindConflict {
		t.Errorf("KindOf(wrapped) = %s, want %s", got, KindConflict)
	}
}

func TestIsKind(t *testing.T) {
	err := Forbidden("no access")
	if !IsKind(err, KindForbidden) {
		t.Error("IsKind(Forbidden, FORBIDDEN) = false")
	}
	if IsKind(err, KindNotFound) {
		t.Error("IsKind(Forbidden, NOT_FOUND) = true")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause, "storage unavailable")
	if !errors.Is(err, cause) {
		t.Error("Internal must wrap its cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{InvalidTransition("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Validation("x"), http.StatusBadRequest},
		{Internal(nil, "x"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
