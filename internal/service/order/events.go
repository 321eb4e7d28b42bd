package order

import "time"

// Event types published on the order topic.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderDeleted = "order.deleted"
)

// HeaderEventType names the message header carrying the event type.
const HeaderEventType = "event-type"

// Event notifies consumers that an order changed. Deleted events only carry the id.
type Event struct {
	Type       string    `json:"type"`
	ID         int64     `json:"id"`
	Reference  string    `json:"reference,omitempty"`
	Company    string    `json:"company,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
