package workflow

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelopeMarshalRoundTrip(t *testing.T) {
	env := Envelope{
		Event:       EventOrderApproved,
		OrderID:     "8c9a4a1e-0000-0000-0000-000000000001",
		OrderNumber: "OS-2026-00042",
		Status:      StatusApproved,
		Progress:    0,
		At:          time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}

	var decoded Envelope
	if err := json.Unmarshal(env.Marshal(), &decoded); err != nil {
		t.Fatalf("unmarshal broadcast payload: %v", err)
	}
	if decoded.Event != EventOrderApproved {
		t.Errorf("event = %s, want %s", decoded.Event, EventOrderApproved)
	}
	if decoded.OrderNumber != "OS-2026-00042" {
		t.Errorf("order_number = %s", decoded.OrderNumber)
	}
	if decoded.Status != StatusApproved {
		t.Errorf("status = %s, want %s", decoded.Status, StatusApproved)
	}
}
