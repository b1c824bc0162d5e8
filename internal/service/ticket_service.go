package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/deskops/ticket-desk/internal/domain"
	"github.com/deskops/ticket-desk/internal/events"
)

// TicketCreator submits new tickets to the ticket API.
type TicketCreator interface {
	CreateTicket(ctx context.Context, input domain.NewTicket) (domain.Ticket, error)
}

// TicketService coordinates the ticket creation path.
type TicketService struct {
	creator    TicketCreator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(creator TicketCreator, dispatcher events.Dispatcher, logger *zap.Logger) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{creator: creator, dispatcher: dispatcher, logger: logger}
}

// CreateTicket validates and submits a new ticket. The backend assigns id,
// status and timestamps.
func (s *TicketService) CreateTicket(ctx context.Context, input domain.NewTicket) (domain.Ticket, error) {
	input = trimNewTicket(input)
	if err := input.Validate(); err != nil {
		return domain.Ticket{}, err
	}
	ticket, err := s.creator.CreateTicket(ctx, input)
	if err != nil {
		return domain.Ticket{}, err
	}
	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID.String()))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:        ticket.Title,
			ContactEmail: ticket.Contact.Email,
		},
	})
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func trimNewTicket(input domain.NewTicket) domain.NewTicket {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Contact.Name = strings.TrimSpace(input.Contact.Name)
	input.Contact.Email = strings.TrimSpace(input.Contact.Email)
	input.Contact.Phone = strings.TrimSpace(input.Contact.Phone)
	return input
}
