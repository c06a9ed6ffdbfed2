package workflow

import (
	"encoding/json"
	"time"
)

// Event names for lifecycle changes. Cascades are applied by the order service
// in response to these, and the same envelopes are broadcast to connected
// portal clients over the websocket hub.
type Event string

const (
	EventOrderCreated         Event = "order.created"
	EventOrderSubmitted       Event = "order.submitted"
	EventOrderApproved        Event = "order.approved"
	EventOrderRejected        Event = "order.rejected"
	EventOrderCancelled       Event = "order.cancelled"
	EventOrderCompleted       Event = "order.completed"
	EventPurchaseOrderIssued  Event = "order.purchase_order_issued"
	EventInvoiceIssued        Event = "order.invoice_issued"
	EventDeliveryRegistered   Event = "order.delivery_registered"
	EventDeliveryRemoved      Event = "order.delivery_removed"
	EventOrderProgressUpdated Event = "order.progress_updated"
)

// Envelope is the wire form of a lifecycle event.
type Envelope struct {
	Event       Event     `json:"event"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      Status    `json:"status"`
	Progress    int       `json:"progress"`
	At          time.Time `json:"at"`
}

// Marshal serializes the envelope for broadcast. Marshal of this struct cannot
// fail; errors are swallowed.
func (e Envelope) Marshal() []byte {
	b, _ := json.Marshal(e)
	return b
}
