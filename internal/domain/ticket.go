package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusAccepted TicketStatus = "accepted"
	TicketStatusResolved TicketStatus = "resolved"
	TicketStatusRejected TicketStatus = "rejected"
)

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusAccepted,
	TicketStatusResolved,
	TicketStatusRejected,
}

// Valid reports whether s is one of the fixed statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusAccepted, TicketStatusResolved, TicketStatusRejected:
		return true
	}
	return false
}

// ParseTicketStatus validates a raw status string.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	status := TicketStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("unknown ticket status %q", raw)
	}
	return status, nil
}

// TicketID is the backend-assigned identifier. The backend may encode it as
// a JSON number or a string; both decode to the same textual form.
type TicketID string

func (id *TicketID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TicketID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ticket id: %w", err)
	}
	*id = TicketID(n.String())
	return nil
}

func (id TicketID) String() string {
	return string(id)
}

// Contact is the requester's contact sub-record. It is embedded in Ticket so
// the wire shape stays flat.
type Contact struct {
	Name  string `json:"contact_name"`
	Email string `json:"contact_email"`
	Phone string `json:"contact_phone,omitempty"`
}

// Ticket is the aggregate for support requests. It holds only value fields,
// so assigning a Ticket yields a detached copy.
type Ticket struct {
	ID          TicketID     `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Contact
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewTicket is the creation payload. Status is never client-settable; the
// backend starts every ticket as pending.
type NewTicket struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Contact
}

// TicketUpdate is the replace-style update body sent for a saved draft.
type TicketUpdate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Contact
	Status TicketStatus `json:"status"`
}

// UpdateFrom builds the update body for a draft.
func UpdateFrom(draft Ticket) TicketUpdate {
	return TicketUpdate{
		Title:       draft.Title,
		Description: draft.Description,
		Contact:     draft.Contact,
		Status:      draft.Status,
	}
}
