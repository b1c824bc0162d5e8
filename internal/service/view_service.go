package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/deskops/ticket-desk/internal/domain"
	"github.com/deskops/ticket-desk/internal/events"
	"github.com/deskops/ticket-desk/internal/lifecycle"
	"github.com/deskops/ticket-desk/internal/listquery"
	"github.com/deskops/ticket-desk/internal/repository"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

// TicketAPI is the ticket API as seen by views.
type TicketAPI interface {
	listquery.Source
	lifecycle.API
}

// ViewService keeps one state container per open view. Views share nothing
// but the per-ticket mutation queue.
type ViewService struct {
	api       TicketAPI
	queue     *lifecycle.MutationQueue
	publisher lifecycle.Publisher
	snapshots repository.ViewSnapshotRepository
	language  language.Tag
	logger    *zap.Logger

	mu      sync.Mutex
	lists   map[string]*listquery.Engine
	tickets map[string]*lifecycle.Controller
}

// ViewDependencies bundles collaborators for the view service.
type ViewDependencies struct {
	API        TicketAPI
	Dispatcher events.Dispatcher
	Snapshots  repository.ViewSnapshotRepository
	Language   language.Tag
	Logger     *zap.Logger
}

// ListViewInput opens a list view. Empty fields take defaults.
type ListViewInput struct {
	Status    string
	SortBy    string
	SortOrder string
}

// DraftPatch carries draft edits. Nil fields are left alone.
type DraftPatch struct {
	Title        *string
	Description  *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
}

// NewViewService constructs the service.
func NewViewService(deps ViewDependencies) *ViewService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ViewService{
		api:       deps.API,
		queue:     lifecycle.NewMutationQueue(),
		snapshots: deps.Snapshots,
		language:  deps.Language,
		logger:    logger,
		lists:     make(map[string]*listquery.Engine),
		tickets:   make(map[string]*lifecycle.Controller),
	}
	if deps.Dispatcher != nil {
		s.publisher = deps.Dispatcher
	}
	return s
}

// OpenListView creates a list view and loads its first page. A failed fetch
// still opens the view; the failure is reported on the page.
func (s *ViewService) OpenListView(ctx context.Context, input ListViewInput) (string, listquery.Page, error) {
	state, err := parseListState(input)
	if err != nil {
		return "", listquery.Page{}, err
	}
	id := uuid.NewString()
	engine := s.newEngine(id, state)

	s.mu.Lock()
	s.lists[id] = engine
	s.mu.Unlock()

	if err := engine.Refresh(ctx); err != nil {
		s.logger.Warn("initial list fetch failed", zap.String("view_id", id), zap.Error(err))
	}
	s.saveList(ctx, id, engine)
	return id, engine.Snapshot(), nil
}

// ListView returns the current page window of a list view.
func (s *ViewService) ListView(ctx context.Context, id string) (listquery.Page, error) {
	engine, err := s.listEngine(ctx, id)
	if err != nil {
		return listquery.Page{}, err
	}
	return engine.Snapshot(), nil
}

// RefreshList re-fetches the ticket set of a list view.
func (s *ViewService) RefreshList(ctx context.Context, id string) (listquery.Page, error) {
	engine, err := s.listEngine(ctx, id)
	if err != nil {
		return listquery.Page{}, err
	}
	if err := engine.Refresh(ctx); err != nil {
		return listquery.Page{}, err
	}
	return engine.Snapshot(), nil
}

// SetListFilter changes the status filter and re-fetches.
func (s *ViewService) SetListFilter(ctx context.Context, id, status string) (listquery.Page, error) {
	filter, err := domain.ParseStatusFilter(strings.TrimSpace(status))
	if err != nil {
		return listquery.Page{}, apperrors.NewValidationError("invalid status filter", map[string]any{"status": status})
	}
	engine, err := s.listEngine(ctx, id)
	if err != nil {
		return listquery.Page{}, err
	}
	err = engine.SetStatusFilter(ctx, filter)
	s.saveList(ctx, id, engine)
	if err != nil {
		return listquery.Page{}, err
	}
	return engine.Snapshot(), nil
}

// SetListSort re-sorts the fetched set locally.
func (s *ViewService) SetListSort(ctx context.Context, id, sortBy, sortOrder string) (listquery.Page, error) {
	field, err := domain.ParseSortField(sortBy)
	if err != nil {
		return listquery.Page{}, apperrors.NewValidationError("invalid sort field", map[string]any{"sort_by": sortBy})
	}
	var order domain.SortOrder
	if sortOrder != "" {
		if order, err = domain.ParseSortOrder(sortOrder); err != nil {
			return listquery.Page{}, apperrors.NewValidationError("invalid sort order", map[string]any{"sort_order": sortOrder})
		}
	}
	engine, err := s.listEngine(ctx, id)
	if err != nil {
		return listquery.Page{}, err
	}
	if err := engine.SetSort(field, order); err != nil {
		return listquery.Page{}, err
	}
	s.saveList(ctx, id, engine)
	return engine.Snapshot(), nil
}

// ToggleListSortOrder flips asc and desc.
func (s *ViewService) ToggleListSortOrder(ctx context.Context, id string) (listquery.Page, error) {
	engine, err := s.listEngine(ctx, id)
	if err != nil {
		return listquery.Page{}, err
	}
	engine.ToggleSortOrder()
	s.saveList(ctx, id, engine)
	return engine.Snapshot(), nil
}

// GoToListPage moves the page window, clamped to the available pages.
func (s *ViewService) GoToListPage(ctx context.Context, id string, page int) (listquery.Page, error) {
	return s.movePage(ctx, id, func(e *listquery.Engine) { e.GoToPage(page) })
}

// NextListPage advances one page when possible.
func (s *ViewService) NextListPage(ctx context.Context, id string) (listquery.Page, error) {
	return s.movePage(ctx, id, (*listquery.Engine).NextPage)
}

// PrevListPage goes back one page when possible.
func (s *ViewService) PrevListPage(ctx context.Context, id string) (listquery.Page, error) {
	return s.movePage(ctx, id, (*listquery.Engine).PrevPage)
}

// CloseListView discards a list view.
func (s *ViewService) CloseListView(ctx context.Context, id string) error {
	if _, err := s.listEngine(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.lists, id)
	s.mu.Unlock()
	s.deleteSnapshot(ctx, id)
	return nil
}

// OpenTicketView loads a ticket into a new detail view. No view is created
// when the ticket cannot be loaded.
func (s *ViewService) OpenTicketView(ctx context.Context, ticketID string) (string, lifecycle.View, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return "", lifecycle.View{}, apperrors.NewValidationError("ticket_id required", nil)
	}
	id := uuid.NewString()
	controller := s.newController(id)
	if err := controller.Load(ctx, domain.TicketID(ticketID)); err != nil {
		return "", lifecycle.View{}, err
	}

	s.mu.Lock()
	s.tickets[id] = controller
	s.mu.Unlock()

	s.saveTicket(ctx, id, controller)
	return id, controller.View(), nil
}

// TicketView returns record, draft and mode of a detail view.
func (s *ViewService) TicketView(ctx context.Context, id string) (lifecycle.View, error) {
	controller, err := s.ticketController(ctx, id)
	if err != nil {
		return lifecycle.View{}, err
	}
	return controller.View(), nil
}

// ReloadTicket re-fetches the ticket of a detail view.
func (s *ViewService) ReloadTicket(ctx context.Context, id string) (lifecycle.View, error) {
	controller, err := s.ticketController(ctx, id)
	if err != nil {
		return lifecycle.View{}, err
	}
	if err := controller.Load(ctx, controller.View().TicketID); err != nil {
		return lifecycle.View{}, err
	}
	return controller.View(), nil
}

// BeginEdit enters editing mode with a fresh draft.
func (s *ViewService) BeginEdit(ctx context.Context, id string) (lifecycle.View, error) {
	return s.applyTicket(ctx, id, (*lifecycle.Controller).BeginEdit)
}

// CancelEdit drops the draft.
func (s *ViewService) CancelEdit(ctx context.Context, id string) (lifecycle.View, error) {
	return s.applyTicket(ctx, id, func(c *lifecycle.Controller) error {
		c.CancelEdit()
		return nil
	})
}

// UpdateDraft applies field edits to the draft in order.
func (s *ViewService) UpdateDraft(ctx context.Context, id string, patch DraftPatch) (lifecycle.View, error) {
	return s.applyTicket(ctx, id, func(c *lifecycle.Controller) error {
		edits := []struct {
			value *string
			apply func(string) error
		}{
			{patch.Title, func(v string) error { return c.UpdateDraftField(lifecycle.FieldTitle, v) }},
			{patch.Description, func(v string) error { return c.UpdateDraftField(lifecycle.FieldDescription, v) }},
			{patch.ContactName, func(v string) error { return c.UpdateDraftContactField(lifecycle.ContactName, v) }},
			{patch.ContactEmail, func(v string) error { return c.UpdateDraftContactField(lifecycle.ContactEmail, v) }},
			{patch.ContactPhone, func(v string) error { return c.UpdateDraftContactField(lifecycle.ContactPhone, v) }},
		}
		for _, edit := range edits {
			if edit.value == nil {
				continue
			}
			if err := edit.apply(*edit.value); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveTicket submits the draft.
func (s *ViewService) SaveTicket(ctx context.Context, id string) (lifecycle.View, error) {
	return s.applyTicket(ctx, id, func(c *lifecycle.Controller) error { return c.Save(ctx) })
}

// SetTicketStatus changes the ticket status through the status endpoint.
func (s *ViewService) SetTicketStatus(ctx context.Context, id, status string) (lifecycle.View, error) {
	parsed, err := domain.ParseTicketStatus(strings.TrimSpace(status))
	if err != nil {
		return lifecycle.View{}, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	return s.applyTicket(ctx, id, func(c *lifecycle.Controller) error { return c.SetStatus(ctx, parsed) })
}

// CloseTicketView discards a detail view and its draft.
func (s *ViewService) CloseTicketView(ctx context.Context, id string) error {
	if _, err := s.ticketController(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.tickets, id)
	s.mu.Unlock()
	s.deleteSnapshot(ctx, id)
	return nil
}

func (s *ViewService) movePage(ctx context.Context, id string, move func(*listquery.Engine)) (listquery.Page, error) {
	engine, err := s.listEngine(ctx, id)
	if err != nil {
		return listquery.Page{}, err
	}
	move(engine)
	s.saveList(ctx, id, engine)
	return engine.Snapshot(), nil
}

func (s *ViewService) applyTicket(ctx context.Context, id string, op func(*lifecycle.Controller) error) (lifecycle.View, error) {
	controller, err := s.ticketController(ctx, id)
	if err != nil {
		return lifecycle.View{}, err
	}
	err = op(controller)
	s.saveTicket(ctx, id, controller)
	if err != nil {
		return lifecycle.View{}, err
	}
	return controller.View(), nil
}

func (s *ViewService) newEngine(id string, state listquery.State) *listquery.Engine {
	return listquery.NewEngine(s.api,
		listquery.WithState(state),
		listquery.WithLanguage(s.language),
		listquery.WithLogger(s.logger.With(zap.String("view_id", id))),
	)
}

func (s *ViewService) newController(id string) *lifecycle.Controller {
	return lifecycle.NewController(s.api,
		lifecycle.WithQueue(s.queue),
		lifecycle.WithPublisher(s.publisher),
		lifecycle.WithLogger(s.logger.With(zap.String("view_id", id))),
		lifecycle.WithViewID(id),
	)
}

// listEngine finds a live list view, rebuilding it from its snapshot after a
// restart.
func (s *ViewService) listEngine(ctx context.Context, id string) (*listquery.Engine, error) {
	s.mu.Lock()
	engine, ok := s.lists[id]
	s.mu.Unlock()
	if ok {
		return engine, nil
	}

	snapshot, err := s.loadSnapshot(ctx, id, repository.ViewKindList)
	if err != nil {
		return nil, err
	}
	state := listquery.State{
		Status: snapshot.List.Status,
		Sort:   domain.Sort{Field: snapshot.List.SortBy, Order: snapshot.List.SortOrder},
		Page:   snapshot.List.Page,
	}
	engine = s.newEngine(id, state)
	if err := engine.Refresh(ctx); err != nil {
		s.logger.Warn("restored list fetch failed", zap.String("view_id", id), zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.lists[id]; ok {
		return existing, nil
	}
	s.lists[id] = engine
	return engine, nil
}

// ticketController finds a live detail view, rebuilding it from its snapshot
// after a restart. A saved draft is resumed over the freshly loaded record.
func (s *ViewService) ticketController(ctx context.Context, id string) (*lifecycle.Controller, error) {
	s.mu.Lock()
	controller, ok := s.tickets[id]
	s.mu.Unlock()
	if ok {
		return controller, nil
	}

	snapshot, err := s.loadSnapshot(ctx, id, repository.ViewKindTicket)
	if err != nil {
		return nil, err
	}
	controller = s.newController(id)
	if err := controller.Load(ctx, snapshot.Ticket.TicketID); err != nil {
		return nil, err
	}
	if snapshot.Ticket.Editing && snapshot.Ticket.Draft != nil {
		if err := controller.ResumeEdit(*snapshot.Ticket.Draft); err != nil {
			s.logger.Warn("saved draft not resumed", zap.String("view_id", id), zap.Error(err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tickets[id]; ok {
		return existing, nil
	}
	s.tickets[id] = controller
	return controller, nil
}

func (s *ViewService) loadSnapshot(ctx context.Context, id string, kind repository.ViewKind) (*repository.ViewSnapshot, error) {
	notFound := apperrors.NewNotFound("view", map[string]any{"view_id": id})
	if s.snapshots == nil {
		return nil, notFound
	}
	snapshot, err := s.snapshots.Get(ctx, id)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return nil, notFound
	}
	if err != nil {
		s.logger.Warn("view snapshot lookup failed", zap.String("view_id", id), zap.Error(err))
		return nil, notFound
	}
	if snapshot.Kind != kind {
		return nil, notFound
	}
	if (kind == repository.ViewKindList && snapshot.List == nil) || (kind == repository.ViewKindTicket && snapshot.Ticket == nil) {
		return nil, notFound
	}
	return snapshot, nil
}

func (s *ViewService) saveList(ctx context.Context, id string, engine *listquery.Engine) {
	state := engine.State()
	s.saveSnapshot(ctx, repository.ViewSnapshot{
		ID:   id,
		Kind: repository.ViewKindList,
		List: &repository.ListSnapshot{
			Status:    state.Status,
			SortBy:    state.Sort.Field,
			SortOrder: state.Sort.Order,
			Page:      state.Page,
		},
	})
}

func (s *ViewService) saveTicket(ctx context.Context, id string, controller *lifecycle.Controller) {
	view := controller.View()
	snapshot := &repository.TicketSnapshot{
		TicketID: view.TicketID,
		Editing:  view.Mode == lifecycle.ModeEditing,
		Draft:    view.Draft,
	}
	s.saveSnapshot(ctx, repository.ViewSnapshot{ID: id, Kind: repository.ViewKindTicket, Ticket: snapshot})
}

func (s *ViewService) saveSnapshot(ctx context.Context, snapshot repository.ViewSnapshot) {
	if s.snapshots == nil {
		return
	}
	snapshot.UpdatedAt = time.Now().UTC()
	if err := s.snapshots.Save(ctx, snapshot); err != nil {
		s.logger.Warn("view snapshot save failed", zap.String("view_id", snapshot.ID), zap.Error(err))
	}
}

func (s *ViewService) deleteSnapshot(ctx context.Context, id string) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Delete(ctx, id); err != nil {
		s.logger.Warn("view snapshot delete failed", zap.String("view_id", id), zap.Error(err))
	}
}

func parseListState(input ListViewInput) (listquery.State, error) {
	state := listquery.DefaultState()
	status, err := domain.ParseStatusFilter(strings.TrimSpace(input.Status))
	if err != nil {
		return state, apperrors.NewValidationError("invalid status filter", map[string]any{"status": input.Status})
	}
	state.Status = status
	if input.SortBy != "" {
		field, err := domain.ParseSortField(input.SortBy)
		if err != nil {
			return state, apperrors.NewValidationError("invalid sort field", map[string]any{"sort_by": input.SortBy})
		}
		state.Sort.Field = field
		if field == domain.SortByCreatedAt {
			state.Sort.Order = domain.SortAsc
		}
	}
	if input.SortOrder != "" {
		order, err := domain.ParseSortOrder(input.SortOrder)
		if err != nil {
			return state, apperrors.NewValidationError("invalid sort order", map[string]any{"sort_order": input.SortOrder})
		}
		state.Sort.Order = order
	}
	return state, nil
}
