package contracts

import "time"

type Event struct {
	EventID   string         `json:"event_id"`
	InvoiceID string         `json:"invoice_id,omitempty"`
	ItemID    string         `json:"item_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
}

const (
	EventInvoiceCreated = "invoice.created"
	EventItemCreated    = "item.created"
	EventItemUpdated    = "item.updated"
	EventItemDeleted    = "item.deleted"
)
