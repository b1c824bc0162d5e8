package dto

import (
	"time"

	"github.com/deskops/ticket-desk/internal/domain"
)

// CreateTicketRequest payload. Status is not accepted; new tickets start
// pending.
type CreateTicketRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

// TicketResponse is the flat ticket shape.
type TicketResponse struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	ContactName  string              `json:"contact_name"`
	ContactEmail string              `json:"contact_email"`
	ContactPhone string              `json:"contact_phone,omitempty"`
	Status       domain.TicketStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ErrorBody mirrors the error envelope for errors reported inside a view.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewTicket converts the request into the creation payload.
func (r CreateTicketRequest) NewTicket() domain.NewTicket {
	return domain.NewTicket{
		Title:       r.Title,
		Description: r.Description,
		Contact: domain.Contact{
			Name:  r.ContactName,
			Email: r.ContactEmail,
			Phone: r.ContactPhone,
		},
	}
}

// Ticket maps a domain ticket to its response shape.
func Ticket(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID.String(),
		Title:        t.Title,
		Description:  t.Description,
		ContactName:  t.Contact.Name,
		ContactEmail: t.Contact.Email,
		ContactPhone: t.Contact.Phone,
		Status:       t.Status,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// Tickets maps a slice, never returning nil.
func Tickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, Ticket(t))
	}
	return out
}
