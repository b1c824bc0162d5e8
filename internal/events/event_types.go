package events

import (
	"time"

	"github.com/deskops/ticket-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// Event represents a confirmed change observed by the desk.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	TicketID  domain.TicketID `json:"ticket_id"`
	ViewID    string          `json:"view_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   interface{}     `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title        string `json:"title"`
	ContactEmail string `json:"contact_email"`
}

// TicketUpdatedPayload lists the fields whose confirmed value changed.
type TicketUpdatedPayload struct {
	Changed map[string]FieldChange `json:"changed"`
}

// FieldChange holds a before/after pair.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// DiffTickets reports the user-editable fields that differ between two
// confirmed records.
func DiffTickets(before, after domain.Ticket) map[string]FieldChange {
	changed := map[string]FieldChange{}
	add := func(name, old, new string) {
		if old != new {
			changed[name] = FieldChange{Old: old, New: new}
		}
	}
	add("title", before.Title, after.Title)
	add("description", before.Description, after.Description)
	add("contact_name", before.Contact.Name, after.Contact.Name)
	add("contact_email", before.Contact.Email, after.Contact.Email)
	add("contact_phone", before.Contact.Phone, after.Contact.Phone)
	return changed
}
