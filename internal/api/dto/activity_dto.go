package dto

import (
	"time"

	"github.com/deskops/ticket-desk/internal/domain"
)

// ActivityResponse is one journal entry.
type ActivityResponse struct {
	ID        string              `json:"id"`
	TicketID  string              `json:"ticket_id"`
	Kind      domain.ActivityKind `json:"kind"`
	ViewID    *string             `json:"view_id,omitempty"`
	OldValue  map[string]any      `json:"old_value,omitempty"`
	NewValue  map[string]any      `json:"new_value,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Activity maps journal entries.
func Activity(entries []domain.ActivityEntry) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ActivityResponse{
			ID:        entry.ID,
			TicketID:  entry.TicketID.String(),
			Kind:      entry.Kind,
			ViewID:    entry.ViewID,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			CreatedAt: entry.CreatedAt,
		})
	}
	return out
}
