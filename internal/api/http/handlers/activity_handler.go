package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskops/ticket-desk/internal/api/dto"
	"github.com/deskops/ticket-desk/internal/domain"
	"github.com/deskops/ticket-desk/internal/repository"
	"github.com/deskops/ticket-desk/internal/service"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

// ActivityHandler serves the activity journal.
type ActivityHandler struct {
	service *service.ActivityService
}

// NewActivityHandler constructs handler.
func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: activityService}
}

// List GET /activity.
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	filter, err := parseActivityQuery(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListActivity(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.Activity(entries)})
}

func parseActivityQuery(c *fiber.Ctx) (repository.ActivityFilter, error) {
	filter := repository.ActivityFilter{
		Limit:  parseInt(c.Query("limit"), 50),
		Offset: parseInt(c.Query("offset"), 0),
	}
	if ticketID := strings.TrimSpace(c.Query("ticket_id")); ticketID != "" {
		id := domain.TicketID(ticketID)
		filter.TicketID = &id
	}
	if kinds := c.Query("kind"); kinds != "" {
		for _, part := range strings.Split(kinds, ",") {
			kind := domain.ActivityKind(strings.TrimSpace(part))
			switch kind {
			case domain.ActivityTicketCreated, domain.ActivityTicketUpdated, domain.ActivityTicketStatusChanged:
				filter.Kinds = append(filter.Kinds, kind)
			default:
				return filter, apperrors.NewValidationError("unknown activity kind", map[string]any{"kind": part})
			}
		}
	}
	from, err := parseTime(c.Query("created_from"))
	if err != nil {
		return filter, apperrors.NewValidationError("created_from must be RFC3339", nil)
	}
	to, err := parseTime(c.Query("created_to"))
	if err != nil {
		return filter, apperrors.NewValidationError("created_to must be RFC3339", nil)
	}
	filter.CreatedFrom, filter.CreatedTo = from, to
	return filter, nil
}
