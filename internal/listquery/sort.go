package listquery

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/deskops/ticket-desk/internal/domain"
)

// PageSize is the fixed number of tickets in one page window.
const PageSize = 5

// NewCollator returns the collator used for title ordering. Collators keep
// internal buffers and must not be shared between goroutines.
func NewCollator(tag language.Tag) *collate.Collator {
	return collate.New(tag)
}

// SortTickets returns a sorted copy of tickets. The sort is stable: tickets
// that compare equal keep their relative input order.
func SortTickets(tickets []domain.Ticket, order domain.Sort, collator *collate.Collator) []domain.Ticket {
	sorted := slices.Clone(tickets)
	if sorted == nil {
		sorted = []domain.Ticket{}
	}
	if collator == nil {
		collator = NewCollator(language.Und)
	}

	var cmp func(a, b domain.Ticket) int
	switch order.Field {
	case domain.SortByCreatedAt:
		cmp = func(a, b domain.Ticket) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case domain.SortByTitle:
		cmp = func(a, b domain.Ticket) int { return collator.CompareString(a.Title, b.Title) }
	default:
		cmp = func(a, b domain.Ticket) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	}
	if order.Order == domain.SortDesc {
		asc := cmp
		cmp = func(a, b domain.Ticket) int { return asc(b, a) }
	}

	slices.SortStableFunc(sorted, cmp)
	return sorted
}

// PageCount is ceil(total/PageSize), never less than 1.
func PageCount(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PageSize - 1) / PageSize
}

// ClampPage bounds page to [1, PageCount(total)].
func ClampPage(page, total int) int {
	if page < 1 {
		return 1
	}
	if last := PageCount(total); page > last {
		return last
	}
	return page
}

// PageItems returns the window for a 1-based page of sorted.
func PageItems(sorted []domain.Ticket, page int) []domain.Ticket {
	page = ClampPage(page, len(sorted))
	start := (page - 1) * PageSize
	if start >= len(sorted) {
		return []domain.Ticket{}
	}
	end := min(start+PageSize, len(sorted))
	return slices.Clone(sorted[start:end])
}
