package domain

import "fmt"

// StatusFilter narrows a ticket list. StatusFilterAll disables filtering.
type StatusFilter string

const StatusFilterAll StatusFilter = "all"

// ParseStatusFilter accepts "all" or any ticket status. Empty means all.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	if raw == "" || raw == string(StatusFilterAll) {
		return StatusFilterAll, nil
	}
	status, err := ParseTicketStatus(raw)
	if err != nil {
		return "", err
	}
	return StatusFilter(status), nil
}

// Status returns the concrete status and false for StatusFilterAll.
func (f StatusFilter) Status() (TicketStatus, bool) {
	if f == StatusFilterAll || f == "" {
		return "", false
	}
	return TicketStatus(f), true
}

// SortField names the key a ticket list is ordered by.
type SortField string

const (
	SortByUpdatedAt SortField = "updated_at"
	SortByCreatedAt SortField = "created_at"
	SortByTitle     SortField = "title"
)

func ParseSortField(raw string) (SortField, error) {
	switch field := SortField(raw); field {
	case SortByUpdatedAt, SortByCreatedAt, SortByTitle:
		return field, nil
	}
	return "", fmt.Errorf("unknown sort field %q", raw)
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSortOrder(raw string) (SortOrder, error) {
	switch order := SortOrder(raw); order {
	case SortAsc, SortDesc:
		return order, nil
	}
	return "", fmt.Errorf("unknown sort order %q", raw)
}

// Reverse flips the order.
func (o SortOrder) Reverse() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// Sort pairs a field with an order.
type Sort struct {
	Field SortField `json:"sort_by"`
	Order SortOrder `json:"sort_order"`
}

// DefaultSort is the newest-update-first ordering of a fresh list.
var DefaultSort = Sort{Field: SortByUpdatedAt, Order: SortDesc}

// ListQuery is what a list fetch sends to the ticket API.
type ListQuery struct {
	Status StatusFilter
	Sort   Sort
}
