package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskops/ticket-desk/internal/api/dto"
	"github.com/deskops/ticket-desk/internal/service"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

// TicketsHandler serves the ticket creation form.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), req.NewTicket())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.Ticket(ticket)})
}
