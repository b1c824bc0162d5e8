package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/deskops/ticket-desk/internal/domain"
	"github.com/deskops/ticket-desk/internal/events"
	"github.com/deskops/ticket-desk/internal/repository"
)

// ActivityService journals confirmed changes made through the desk.
type ActivityService struct {
	dispatcher events.Dispatcher
	repo       repository.ActivityRepository
	logger     *zap.Logger
}

// NewActivityService creates the service. A nil repository disables the
// journal.
func NewActivityService(dispatcher events.Dispatcher, repo repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{dispatcher: dispatcher, repo: repo, logger: logger}
}

// Enabled reports whether a journal store is configured.
func (s *ActivityService) Enabled() bool {
	return s.repo != nil
}

// RegisterHandlers subscribes to desk events.
func (s *ActivityService) RegisterHandlers() {
	if s.dispatcher == nil || s.repo == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventTicketCreated, s.record)
	s.dispatcher.Subscribe(events.EventTicketUpdated, s.record)
	s.dispatcher.Subscribe(events.EventTicketStatusChanged, s.record)
}

// ListActivity returns journal entries, newest first.
func (s *ActivityService) ListActivity(ctx context.Context, filter repository.ActivityFilter) ([]domain.ActivityEntry, error) {
	if s.repo == nil {
		return []domain.ActivityEntry{}, nil
	}
	return s.repo.ListWithFilter(ctx, filter)
}

func (s *ActivityService) record(ctx context.Context, event events.Event) error {
	entry, err := activityFromEvent(event)
	if err != nil {
		return err
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("record %s for ticket %s: %w", event.Type, event.TicketID, err)
	}
	s.logger.Debug("activity recorded",
		zap.String("ticket_id", event.TicketID.String()),
		zap.String("kind", string(entry.Kind)))
	return nil
}

func activityFromEvent(event events.Event) (*domain.ActivityEntry, error) {
	entry := &domain.ActivityEntry{TicketID: event.TicketID}
	if event.ViewID != "" {
		viewID := event.ViewID
		entry.ViewID = &viewID
	}
	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		entry.Kind = domain.ActivityTicketCreated
		entry.NewValue = map[string]any{
			"title":         payload.Title,
			"contact_email": payload.ContactEmail,
		}
	case events.TicketUpdatedPayload:
		entry.Kind = domain.ActivityTicketUpdated
		entry.OldValue = map[string]any{}
		entry.NewValue = map[string]any{}
		for field, change := range payload.Changed {
			entry.OldValue[field] = change.Old
			entry.NewValue[field] = change.New
		}
	case events.TicketStatusChangedPayload:
		entry.Kind = domain.ActivityTicketStatusChanged
		entry.OldValue = map[string]any{"status": payload.OldStatus}
		entry.NewValue = map[string]any{"status": payload.NewStatus}
	default:
		return nil, fmt.Errorf("unexpected payload %T for event %s", event.Payload, event.Type)
	}
	return entry, nil
}
