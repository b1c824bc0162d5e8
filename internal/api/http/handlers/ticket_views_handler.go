package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskops/ticket-desk/internal/api/dto"
	"github.com/deskops/ticket-desk/internal/lifecycle"
	"github.com/deskops/ticket-desk/internal/service"
)

// TicketViewsHandler exposes ticket detail views and their edit lifecycle.
type TicketViewsHandler struct {
	views *service.ViewService
}

// NewTicketViewsHandler constructs handler.
func NewTicketViewsHandler(views *service.ViewService) *TicketViewsHandler {
	return &TicketViewsHandler{views: views}
}

// Open POST /views/tickets.
func (h *TicketViewsHandler) Open(c *fiber.Ctx) error {
	var req dto.OpenTicketViewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, view, err := h.views.OpenTicketView(c.UserContext(), req.TicketID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketView(id, view)})
}

// Get GET /views/tickets/:viewID.
func (h *TicketViewsHandler) Get(c *fiber.Ctx) error {
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.TicketView(c.UserContext(), id))
}

// Reload POST /views/tickets/:viewID/reload.
func (h *TicketViewsHandler) Reload(c *fiber.Ctx) error {
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.ReloadTicket(c.UserContext(), id))
}

// Edit POST /views/tickets/:viewID/edit.
func (h *TicketViewsHandler) Edit(c *fiber.Ctx) error {
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.BeginEdit(c.UserContext(), id))
}

// Cancel POST /views/tickets/:viewID/cancel.
func (h *TicketViewsHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.CancelEdit(c.UserContext(), id))
}

// UpdateDraft PATCH /views/tickets/:viewID/draft.
func (h *TicketViewsHandler) UpdateDraft(c *fiber.Ctx) error {
	var req dto.DraftPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.UpdateDraft(c.UserContext(), id, service.DraftPatch{
		Title:        req.Title,
		Description:  req.Description,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}))
}

// Save POST /views/tickets/:viewID/save.
func (h *TicketViewsHandler) Save(c *fiber.Ctx) error {
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.SaveTicket(c.UserContext(), id))
}

// SetStatus PUT /views/tickets/:viewID/status.
func (h *TicketViewsHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.StatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.SetTicketStatus(c.UserContext(), id, req.Status))
}

// Close DELETE /views/tickets/:viewID.
func (h *TicketViewsHandler) Close(c *fiber.Ctx) error {
	if err := h.views.CloseTicketView(c.UserContext(), c.Params("viewID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *TicketViewsHandler) respond(c *fiber.Ctx, id string) func(lifecycle.View, error) error {
	return func(view lifecycle.View, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.TicketView(id, view)})
	}
}
