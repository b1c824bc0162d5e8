package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskops/ticket-desk/internal/api/dto"
	"github.com/deskops/ticket-desk/internal/listquery"
	"github.com/deskops/ticket-desk/internal/service"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

// ListViewsHandler exposes ticket list views.
type ListViewsHandler struct {
	views *service.ViewService
}

// NewListViewsHandler constructs handler.
func NewListViewsHandler(views *service.ViewService) *ListViewsHandler {
	return &ListViewsHandler{views: views}
}

// Open POST /views/lists.
func (h *ListViewsHandler) Open(c *fiber.Ctx) error {
	var req dto.OpenListViewRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	id, page, err := h.views.OpenListView(c.UserContext(), service.ListViewInput{
		Status:    req.Status,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ListView(id, page)})
}

// Get GET /views/lists/:viewID.
func (h *ListViewsHandler) Get(c *fiber.Ctx) error {
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.ListView(c.UserContext(), id))
}

// Refresh POST /views/lists/:viewID/refresh.
func (h *ListViewsHandler) Refresh(c *fiber.Ctx) error {
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.RefreshList(c.UserContext(), id))
}

// Filter PUT /views/lists/:viewID/filter.
func (h *ListViewsHandler) Filter(c *fiber.Ctx) error {
	var req dto.FilterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.SetListFilter(c.UserContext(), id, req.Status))
}

// Sort PUT /views/lists/:viewID/sort.
func (h *ListViewsHandler) Sort(c *fiber.Ctx) error {
	var req dto.SortRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.SortBy == "" {
		return apperrors.NewValidationError("sort_by required", nil)
	}
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.SetListSort(c.UserContext(), id, req.SortBy, req.SortOrder))
}

// ToggleOrder POST /views/lists/:viewID/sort/toggle.
func (h *ListViewsHandler) ToggleOrder(c *fiber.Ctx) error {
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.ToggleListSortOrder(c.UserContext(), id))
}

// Page PUT /views/lists/:viewID/page.
func (h *ListViewsHandler) Page(c *fiber.Ctx) error {
	var req dto.PageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.GoToListPage(c.UserContext(), id, req.Page))
}

// Next POST /views/lists/:viewID/next.
func (h *ListViewsHandler) Next(c *fiber.Ctx) error {
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.NextListPage(c.UserContext(), id))
}

// Prev POST /views/lists/:viewID/prev.
func (h *ListViewsHandler) Prev(c *fiber.Ctx) error {
	id := c.Params("viewID")
	return h.respond(c, id)(h.views.PrevListPage(c.UserContext(), id))
}

// Close DELETE /views/lists/:viewID.
func (h *ListViewsHandler) Close(c *fiber.Ctx) error {
	if err := h.views.CloseListView(c.UserContext(), c.Params("viewID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *ListViewsHandler) respond(c *fiber.Ctx, id string) func(listquery.Page, error) error {
	return func(page listquery.Page, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.ListView(id, page)})
	}
}
