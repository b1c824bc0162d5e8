package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskops/ticket-desk/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Tickets     *handlers.TicketsHandler
	ListViews   *handlers.ListViewsHandler
	TicketViews *handlers.TicketViewsHandler
	Activity    *handlers.ActivityHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/tickets", cfg.Tickets.CreateTicket)

	lists := app.Group("/views/lists")
	lists.Post("", cfg.ListViews.Open)
	lists.Get("/:viewID", cfg.ListViews.Get)
	lists.Post("/:viewID/refresh", cfg.ListViews.Refresh)
	lists.Put("/:viewID/filter", cfg.ListViews.Filter)
	lists.Put("/:viewID/sort", cfg.ListViews.Sort)
	lists.Post("/:viewID/sort/toggle", cfg.ListViews.ToggleOrder)
	lists.Put("/:viewID/page", cfg.ListViews.Page)
	lists.Post("/:viewID/next", cfg.ListViews.Next)
	lists.Post("/:viewID/prev", cfg.ListViews.Prev)
	lists.Delete("/:viewID", cfg.ListViews.Close)

	tickets := app.Group("/views/tickets")
	tickets.Post("", cfg.TicketViews.Open)
	tickets.Get("/:viewID", cfg.TicketViews.Get)
	tickets.Post("/:viewID/reload", cfg.TicketViews.Reload)
	tickets.Post("/:viewID/edit", cfg.TicketViews.Edit)
	tickets.Post("/:viewID/cancel", cfg.TicketViews.Cancel)
	tickets.Patch("/:viewID/draft", cfg.TicketViews.UpdateDraft)
	tickets.Post("/:viewID/save", cfg.TicketViews.Save)
	tickets.Put("/:viewID/status", cfg.TicketViews.SetStatus)
	tickets.Delete("/:viewID", cfg.TicketViews.Close)

	app.Get("/activity", cfg.Activity.List)
}
