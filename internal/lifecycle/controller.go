package lifecycle

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/deskops/ticket-desk/internal/domain"
	"github.com/deskops/ticket-desk/internal/events"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

// API is the part of the ticket API a controller needs.
type API interface {
	GetTicket(ctx context.Context, id domain.TicketID) (domain.Ticket, error)
	UpdateTicket(ctx context.Context, id domain.TicketID, update domain.TicketUpdate) (domain.Ticket, error)
	SetStatus(ctx context.Context, id domain.TicketID, status domain.TicketStatus) (domain.Ticket, error)
}

// Publisher receives events for confirmed changes.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Mode is viewing or editing, independent of the ticket's status.
type Mode string

const (
	ModeViewing Mode = "viewing"
	ModeEditing Mode = "editing"
)

// DraftField names a top-level editable field.
type DraftField string

const (
	FieldTitle       DraftField = "title"
	FieldDescription DraftField = "description"
)

// ContactField names a field of the contact sub-record.
type ContactField string

const (
	ContactName  ContactField = "name"
	ContactEmail ContactField = "email"
	ContactPhone ContactField = "phone"
)

// View is a consistent snapshot of a controller.
type View struct {
	TicketID domain.TicketID
	Record   *domain.Ticket
	Draft    *domain.Ticket
	Mode     Mode
	Busy     bool
	Err      error
}

// CanSetStatus reports whether a control requesting status should be enabled.
func (v View) CanSetStatus(status domain.TicketStatus) bool {
	return v.Record != nil && status.Valid() && v.Record.Status != status
}

// Controller owns one ticket's authoritative record and its edit draft.
// The record is only ever replaced by a server response.
type Controller struct {
	api       API
	queue     *MutationQueue
	publisher Publisher
	logger    *zap.Logger
	viewID    string

	mu      sync.Mutex
	id      domain.TicketID
	record  *domain.Ticket
	draft   domain.Ticket
	mode    Mode
	lastErr error
	issued  uint64
	applied uint64
	busy    int
}

// Option customizes a Controller.
type Option func(*Controller)

// WithQueue shares a mutation queue with other controllers.
func WithQueue(queue *MutationQueue) Option {
	return func(c *Controller) {
		if queue != nil {
			c.queue = queue
		}
	}
}

// WithPublisher publishes confirmed changes.
func WithPublisher(publisher Publisher) Option {
	return func(c *Controller) { c.publisher = publisher }
}

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithViewID tags published events with the owning view.
func WithViewID(viewID string) Option {
	return func(c *Controller) { c.viewID = viewID }
}

// NewController builds a controller with no ticket loaded.
func NewController(api API, opts ...Option) *Controller {
	c := &Controller{
		api:    api,
		queue:  NewMutationQueue(),
		logger: zap.NewNop(),
		mode:   ModeViewing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the ticket. On failure the ticket is absent and the error is
// kept for display.
func (c *Controller) Load(ctx context.Context, id domain.TicketID) error {
	c.mu.Lock()
	if c.id != id {
		c.record = nil
		c.draft = domain.Ticket{}
		c.mode = ModeViewing
	}
	c.id = id
	seq := c.beginLocked()
	c.mu.Unlock()

	ticket, err := c.api.GetTicket(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy--
	if err != nil {
		if c.supersededLocked(seq) {
			return nil
		}
		c.record = nil
		c.draft = domain.Ticket{}
		c.mode = ModeViewing
		c.lastErr = err
		c.logger.Warn("ticket load failed", zap.String("ticket_id", id.String()), zap.Error(err))
		return err
	}
	if !c.applyLocked(seq, ticket) {
		return nil
	}
	c.draft = ticket
	c.lastErr = nil
	return nil
}

// BeginEdit enters editing mode with a draft equal to the record.
func (c *Controller) BeginEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return apperrors.NewValidationError("no ticket loaded", nil)
	}
	c.draft = *c.record
	c.mode = ModeEditing
	return nil
}

// ResumeEdit enters editing mode with a previously saved draft of the same
// ticket. Identity and timestamps always come from the record.
func (c *Controller) ResumeEdit(draft domain.Ticket) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return apperrors.NewValidationError("no ticket loaded", nil)
	}
	if draft.ID != c.record.ID {
		return apperrors.NewValidationError("draft belongs to another ticket", map[string]any{"ticket_id": draft.ID.String()})
	}
	restored := *c.record
	restored.Title = draft.Title
	restored.Description = draft.Description
	restored.Contact = draft.Contact
	c.draft = restored
	c.mode = ModeEditing
	return nil
}

// UpdateDraftField sets title or description on the draft.
func (c *Controller) UpdateDraftField(field DraftField, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireEditingLocked(); err != nil {
		return err
	}
	switch field {
	case FieldTitle:
		c.draft.Title = value
	case FieldDescription:
		c.draft.Description = value
	default:
		return apperrors.NewValidationError("unknown draft field", map[string]any{"field": string(field)})
	}
	return nil
}

// UpdateDraftContactField sets one contact field, leaving its siblings alone.
func (c *Controller) UpdateDraftContactField(field ContactField, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireEditingLocked(); err != nil {
		return err
	}
	switch field {
	case ContactName:
		c.draft.Contact.Name = value
	case ContactEmail:
		c.draft.Contact.Email = value
	case ContactPhone:
		c.draft.Contact.Phone = value
	default:
		return apperrors.NewValidationError("unknown contact field", map[string]any{"field": string(field)})
	}
	return nil
}

// CancelEdit discards the draft and returns to viewing.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record != nil {
		c.draft = *c.record
	}
	c.mode = ModeViewing
}

// Save submits the draft as a full replacement. The edited fields are the
// draft's as of the call; status is taken from the record when the request
// leaves the queue, so an earlier status change is not reverted. On success
// record and draft both become the server's answer and the mode returns to
// viewing; on failure the draft and editing mode are kept.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireEditingLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	draft := c.draft
	if err := draft.Validate(); err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	id := c.id
	c.mu.Unlock()

	var before, after domain.Ticket
	var applied bool
	err := c.queue.Do(ctx, id, func(ctx context.Context) error {
		c.mu.Lock()
		update := domain.UpdateFrom(draft)
		if c.record != nil {
			update.Status = c.record.Status
		}
		seq := c.beginLocked()
		c.mu.Unlock()

		ticket, err := c.api.UpdateTicket(ctx, id, update)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.busy--
		if err != nil {
			c.lastErr = err
			return err
		}
		if c.record != nil {
			before = *c.record
		}
		if applied = c.applyLocked(seq, ticket); applied {
			c.draft = ticket
			c.mode = ModeViewing
			c.lastErr = nil
			after = ticket
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("ticket save failed", zap.String("ticket_id", id.String()), zap.Error(err))
		return err
	}
	if applied {
		if changed := events.DiffTickets(before, after); len(changed) > 0 {
			c.publish(ctx, events.Event{
				Type:     events.EventTicketUpdated,
				TicketID: id,
				Payload:  events.TicketUpdatedPayload{Changed: changed},
			})
		}
	}
	return nil
}

// SetStatus moves the ticket to status. Requesting the current status is
// refused without a network call, both when issued and when the request
// leaves the queue behind an earlier change. Works in either mode.
func (c *Controller) SetStatus(ctx context.Context, status domain.TicketStatus) error {
	if !status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": string(status)})
	}
	c.mu.Lock()
	if c.record == nil {
		c.mu.Unlock()
		return apperrors.NewValidationError("no ticket loaded", nil)
	}
	if c.record.Status == status {
		c.mu.Unlock()
		return errSameStatus(status)
	}
	id := c.id
	c.mu.Unlock()

	var oldStatus domain.TicketStatus
	var applied bool
	err := c.queue.Do(ctx, id, func(ctx context.Context) error {
		c.mu.Lock()
		if c.record != nil && c.record.Status == status {
			c.mu.Unlock()
			return errSameStatus(status)
		}
		seq := c.beginLocked()
		c.mu.Unlock()

		ticket, err := c.api.SetStatus(ctx, id, status)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.busy--
		if err != nil {
			c.lastErr = err
			return err
		}
		if c.record != nil {
			oldStatus = c.record.Status
		}
		if applied = c.applyLocked(seq, ticket); applied {
			c.draft = ticket
			c.lastErr = nil
		}
		return nil
	})
	if apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		return err
	}
	if err != nil {
		c.logger.Warn("ticket status change failed",
			zap.String("ticket_id", id.String()), zap.String("status", string(status)), zap.Error(err))
		return err
	}
	if applied && oldStatus != status {
		c.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: id,
			Payload:  events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: status},
		})
	}
	return nil
}

// View returns a snapshot. Draft is set only while editing.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := View{TicketID: c.id, Mode: c.mode, Busy: c.busy > 0, Err: c.lastErr}
	if c.record != nil {
		record := *c.record
		view.Record = &record
	}
	if c.mode == ModeEditing {
		draft := c.draft
		view.Draft = &draft
	}
	return view
}

// Record returns the authoritative record, if loaded.
func (c *Controller) Record() (domain.Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return domain.Ticket{}, false
	}
	return *c.record, true
}

// Draft returns a copy of the draft.
func (c *Controller) Draft() domain.Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func errSameStatus(status domain.TicketStatus) error {
	return apperrors.NewValidationError("ticket already has this status", map[string]any{"status": string(status)})
}

func (c *Controller) requireEditingLocked() error {
	if c.record == nil {
		return apperrors.NewValidationError("no ticket loaded", nil)
	}
	if c.mode != ModeEditing {
		return apperrors.NewValidationError("ticket is not being edited", nil)
	}
	return nil
}

func (c *Controller) beginLocked() uint64 {
	c.issued++
	c.busy++
	return c.issued
}

// supersededLocked reports whether a newer response has already been applied.
func (c *Controller) supersededLocked(seq uint64) bool {
	return seq < c.applied
}

// applyLocked replaces the record with a server response unless a newer one
// was applied first.
func (c *Controller) applyLocked(seq uint64, ticket domain.Ticket) bool {
	if c.supersededLocked(seq) {
		c.logger.Debug("discarding superseded ticket response",
			zap.String("ticket_id", c.id.String()), zap.Uint64("seq", seq), zap.Uint64("applied", c.applied))
		return false
	}
	c.applied = seq
	record := ticket
	c.record = &record
	return true
}

func (c *Controller) publish(ctx context.Context, event events.Event) {
	if c.publisher == nil {
		return
	}
	event.ViewID = c.viewID
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
