package listquery

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/deskops/ticket-desk/internal/domain"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

// Source fetches the ticket set for a query.
type Source interface {
	ListTickets(ctx context.Context, query domain.ListQuery) ([]domain.Ticket, error)
}

// State is the user-chosen part of a list view: enough to rebuild it.
type State struct {
	Status domain.StatusFilter `json:"status"`
	Sort   domain.Sort         `json:"sort"`
	Page   int                 `json:"page"`
}

// DefaultState is the state of a freshly opened list.
func DefaultState() State {
	return State{Status: domain.StatusFilterAll, Sort: domain.DefaultSort, Page: 1}
}

// Page is a rendered page window plus the view state around it.
type Page struct {
	Items     []domain.Ticket
	Page      int
	PageCount int
	Total     int
	Status    domain.StatusFilter
	Sort      domain.Sort
	Loaded    bool
	Loading   bool
	Err       error
}

// Engine holds one list view: the fetched ticket set, its local ordering and
// the page window. It is safe for concurrent use; the lock is never held
// across a fetch.
type Engine struct {
	source Source
	logger *zap.Logger

	mu       sync.Mutex
	collator *collate.Collator
	state    State
	fetched  []domain.Ticket
	sorted   []domain.Ticket
	loaded   bool
	lastErr  error
	issued   uint64
	inFlight bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLanguage sets the locale used to order titles.
func WithLanguage(tag language.Tag) Option {
	return func(e *Engine) { e.collator = NewCollator(tag) }
}

// WithState starts the engine from a previously saved state.
func WithState(state State) Option {
	return func(e *Engine) { e.state = normalizeState(state) }
}

// NewEngine builds an engine in its default state. Nothing is fetched until
// Refresh or SetStatusFilter is called.
func NewEngine(source Source, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		logger:   zap.NewNop(),
		collator: NewCollator(language.Und),
		state:    DefaultState(),
		fetched:  []domain.Ticket{},
		sorted:   []domain.Ticket{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func normalizeState(state State) State {
	if state.Status == "" {
		state.Status = domain.StatusFilterAll
	}
	if state.Sort.Field == "" {
		state.Sort.Field = domain.DefaultSort.Field
	}
	if state.Sort.Order == "" {
		state.Sort.Order = domain.DefaultSort.Order
	}
	if state.Page < 1 {
		state.Page = 1
	}
	return state
}

// Refresh re-fetches the ticket set for the current filter.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	e.issued++
	seq := e.issued
	query := domain.ListQuery{Status: e.state.Status, Sort: e.state.Sort}
	e.inFlight = true
	e.mu.Unlock()

	tickets, err := e.source.ListTickets(ctx, query)

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.issued {
		e.logger.Debug("discarding superseded ticket list",
			zap.Uint64("seq", seq), zap.Uint64("latest", e.issued))
		return nil
	}
	e.inFlight = false
	if err != nil {
		e.lastErr = err
		e.logger.Warn("ticket list fetch failed",
			zap.String("status", string(query.Status)), zap.Error(err))
		return err
	}
	e.lastErr = nil
	e.loaded = true
	e.fetched = tickets
	e.resortLocked()
	return nil
}

// SetStatusFilter changes the filter and re-fetches. On failure the filter
// stays changed while the previously loaded tickets remain on display.
func (e *Engine) SetStatusFilter(ctx context.Context, status domain.StatusFilter) error {
	if status == "" {
		status = domain.StatusFilterAll
	}
	if status != domain.StatusFilterAll && !domain.TicketStatus(status).Valid() {
		return apperrors.NewValidationError("unknown status filter", map[string]any{"status": string(status)})
	}
	e.mu.Lock()
	e.state.Status = status
	e.mu.Unlock()
	return e.Refresh(ctx)
}

// SetSort sets field and order together. Switching the field to created_at
// resets the order to asc; an empty order keeps the current one.
func (e *Engine) SetSort(field domain.SortField, order domain.SortOrder) error {
	if _, err := domain.ParseSortField(string(field)); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	if order != "" {
		if _, err := domain.ParseSortOrder(string(order)); err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switching := field != e.state.Sort.Field
	e.state.Sort.Field = field
	switch {
	case switching && field == domain.SortByCreatedAt:
		e.state.Sort.Order = domain.SortAsc
	case order != "":
		e.state.Sort.Order = order
	}
	e.resortLocked()
	return nil
}

// SetSortField changes only the field, applying the created_at default.
func (e *Engine) SetSortField(field domain.SortField) error {
	return e.SetSort(field, "")
}

// SetSortOrder changes only the order.
func (e *Engine) SetSortOrder(order domain.SortOrder) error {
	if _, err := domain.ParseSortOrder(string(order)); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Sort.Order = order
	e.resortLocked()
	return nil
}

// ToggleSortOrder flips between asc and desc.
func (e *Engine) ToggleSortOrder() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Sort.Order = e.state.Sort.Order.Reverse()
	e.resortLocked()
}

// GoToPage moves to page n, clamped to the available pages.
func (e *Engine) GoToPage(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Page = ClampPage(n, len(e.sorted))
}

// NextPage advances one page; a no-op on the last page.
func (e *Engine) NextPage() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Page = ClampPage(e.state.Page+1, len(e.sorted))
}

// PrevPage goes back one page; a no-op on page 1.
func (e *Engine) PrevPage() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Page = ClampPage(e.state.Page-1, len(e.sorted))
}

// State returns the user-chosen state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot renders the current page window.
func (e *Engine) Snapshot() Page {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Page{
		Items:     PageItems(e.sorted, e.state.Page),
		Page:      e.state.Page,
		PageCount: PageCount(len(e.sorted)),
		Total:     len(e.sorted),
		Status:    e.state.Status,
		Sort:      e.state.Sort,
		Loaded:    e.loaded,
		Loading:   e.inFlight,
		Err:       e.lastErr,
	}
}

// Sorted returns the full ordered ticket set.
func (e *Engine) Sorted() []domain.Ticket {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Ticket, len(e.sorted))
	copy(out, e.sorted)
	return out
}

// resortLocked reorders the fetched set and clamps the page to the new size.
func (e *Engine) resortLocked() {
	e.sorted = SortTickets(e.fetched, e.state.Sort, e.collator)
	e.state.Page = ClampPage(e.state.Page, len(e.sorted))
}
