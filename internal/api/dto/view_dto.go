package dto

import (
	"github.com/deskops/ticket-desk/internal/domain"
	"github.com/deskops/ticket-desk/internal/lifecycle"
	"github.com/deskops/ticket-desk/internal/listquery"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

// OpenListViewRequest payload.
type OpenListViewRequest struct {
	Status    string `json:"status"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

// FilterRequest payload.
type FilterRequest struct {
	Status string `json:"status"`
}

// SortRequest payload. An empty sort_order keeps the current order.
type SortRequest struct {
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

// PageRequest payload.
type PageRequest struct {
	Page int `json:"page"`
}

// ListViewResponse is a list view's page window.
type ListViewResponse struct {
	ViewID    string              `json:"view_id"`
	Items     []TicketResponse    `json:"items"`
	Page      int                 `json:"page"`
	PageCount int                 `json:"page_count"`
	PageSize  int                 `json:"page_size"`
	Total     int                 `json:"total"`
	Status    domain.StatusFilter `json:"status"`
	SortBy    domain.SortField    `json:"sort_by"`
	SortOrder domain.SortOrder    `json:"sort_order"`
	Loaded    bool                `json:"loaded"`
	Loading   bool                `json:"loading"`
	Error     *ErrorBody          `json:"error,omitempty"`
}

// OpenTicketViewRequest payload.
type OpenTicketViewRequest struct {
	TicketID string `json:"ticket_id"`
}

// DraftPatchRequest payload. Absent fields are left untouched.
type DraftPatchRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
}

// StatusRequest payload.
type StatusRequest struct {
	Status string `json:"status"`
}

// TicketViewResponse is a detail view: the confirmed record plus the draft
// while editing.
type TicketViewResponse struct {
	ViewID        string                `json:"view_id"`
	TicketID      string                `json:"ticket_id"`
	Mode          lifecycle.Mode        `json:"mode"`
	Record        *TicketResponse       `json:"record"`
	Draft         *TicketResponse       `json:"draft,omitempty"`
	Busy          bool                  `json:"busy"`
	StatusActions []domain.TicketStatus `json:"status_actions"`
	Error         *ErrorBody            `json:"error,omitempty"`
}

// ListView maps an engine page.
func ListView(viewID string, page listquery.Page) ListViewResponse {
	return ListViewResponse{
		ViewID:    viewID,
		Items:     Tickets(page.Items),
		Page:      page.Page,
		PageCount: page.PageCount,
		PageSize:  listquery.PageSize,
		Total:     page.Total,
		Status:    page.Status,
		SortBy:    page.Sort.Field,
		SortOrder: page.Sort.Order,
		Loaded:    page.Loaded,
		Loading:   page.Loading,
		Error:     errorBody(page.Err),
	}
}

// TicketView maps a controller view. Status actions list every status other
// than the current one.
func TicketView(viewID string, view lifecycle.View) TicketViewResponse {
	resp := TicketViewResponse{
		ViewID:        viewID,
		TicketID:      view.TicketID.String(),
		Mode:          view.Mode,
		Busy:          view.Busy,
		StatusActions: []domain.TicketStatus{},
		Error:         errorBody(view.Err),
	}
	if view.Record != nil {
		record := Ticket(*view.Record)
		resp.Record = &record
		for _, status := range domain.TicketStatuses {
			if view.CanSetStatus(status) {
				resp.StatusActions = append(resp.StatusActions, status)
			}
		}
	}
	if view.Draft != nil {
		draft := Ticket(*view.Draft)
		resp.Draft = &draft
	}
	return resp
}

func errorBody(err error) *ErrorBody {
	if err == nil {
		return nil
	}
	domainErr := apperrors.ToDomainError(err)
	return &ErrorBody{Code: domainErr.Code, Message: domainErr.Message, Details: domainErr.Details}
}
