package domain

import "time"

// ActivityKind captures what a journal entry records.
type ActivityKind string

const (
	ActivityTicketCreated       ActivityKind = "ticket_created"
	ActivityTicketUpdated       ActivityKind = "ticket_updated"
	ActivityTicketStatusChanged ActivityKind = "ticket_status_changed"
)

// ActivityEntry is an immutable journal entry for a server-confirmed change
// made through the desk.
type ActivityEntry struct {
	ID        string
	TicketID  TicketID
	Kind      ActivityKind
	ViewID    *string
	OldValue  map[string]any
	NewValue  map[string]any
	CreatedAt time.Time
}
