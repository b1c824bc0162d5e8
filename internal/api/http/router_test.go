package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/deskops/ticket-desk/internal/api/http/handlers"
	"github.com/deskops/ticket-desk/internal/client"
	"github.com/deskops/ticket-desk/internal/events"
	"github.com/deskops/ticket-desk/internal/observability"
	"github.com/deskops/ticket-desk/internal/repository"
	"github.com/deskops/ticket-desk/internal/service"
)

// backend is a minimal stand-in for the ticket API.
type backend struct {
	mu           sync.Mutex
	tickets      map[string]map[string]any
	updateStatus int
}

func newBackend() *backend {
	mk := func(id int, title, status, updated string) map[string]any {
		return map[string]any{
			"id": id, "title": title, "description": "d",
			"contact_name": "Kim", "contact_email": "kim@example.com",
			"status": status, "created_at": "2024-01-01T00:00:00Z", "updated_at": updated,
		}
	}
	return &backend{tickets: map[string]map[string]any{
		"1": mk(1, "Wifi", "pending", "2024-01-03T00:00:00Z"),
		"2": mk(2, "Badge", "accepted", "2024-01-02T00:00:00Z"),
	}}
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/tickets")
	switch {
	case path == "" && r.Method == http.MethodGet:
		list := []any{}
		for _, t := range b.tickets {
			if s := r.URL.Query().Get("status"); s == "" || t["status"] == s {
				list = append(list, t)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"tickets": list})
	case path == "/create" && r.Method == http.MethodPost:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = 3
		body["status"] = "pending"
		body["created_at"] = "2024-02-01T00:00:00Z"
		body["updated_at"] = "2024-02-01T00:00:00Z"
		b.tickets["3"] = body
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)
	default:
		parts := strings.Split(strings.Trim(path, "/"), "/")
		t, ok := b.tickets[parts[0]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "ticket not found"})
			return
		}
		if r.Method == http.MethodPut {
			if b.updateStatus != 0 {
				w.WriteHeader(b.updateStatus)
				_ = json.NewEncoder(w).Encode(map[string]any{"message": "rejected by backend"})
				return
			}
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			for k, v := range body {
				t[k] = v
			}
		}
		_ = json.NewEncoder(w).Encode(t)
	}
}

func (b *backend) failUpdates(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateStatus = status
}

type harness struct {
	app     *fiber.App
	backend *backend
}

func newHarness(t *testing.T, deps ...handlers.Dependency) *harness {
	t.Helper()
	b := newBackend()
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)

	api, err := client.New(client.Config{BaseURL: server.URL + "/api/v1"})
	if err != nil {
		t.Fatal(err)
	}
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher(logger)
	views := service.NewViewService(service.ViewDependencies{
		API:        api,
		Dispatcher: dispatcher,
		Snapshots:  repository.NewMemoryViewSnapshotRepository(0),
	})
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:      handlers.NewHealthHandler("ticket-desk", "test", metrics, deps...),
		Tickets:     handlers.NewTicketsHandler(service.NewTicketService(api, dispatcher, logger)),
		ListViews:   handlers.NewListViewsHandler(views),
		TicketViews: handlers.NewTicketViewsHandler(views),
		Activity:    handlers.NewActivityHandler(service.NewActivityService(dispatcher, nil, logger)),
	})
	return &harness{app: app, backend: b}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (h *harness) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return out
}

type listView struct {
	ViewID string `json:"view_id"`
	Items  []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"items"`
	Total     int    `json:"total"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

type ticketView struct {
	ViewID string `json:"view_id"`
	Mode   string `json:"mode"`
	Record struct {
		Title  string `json:"title"`
		Status string `json:"status"`
	} `json:"record"`
	Draft *struct {
		Title string `json:"title"`
	} `json:"draft"`
	StatusActions []string `json:"status_actions"`
}

func TestCreateTicketValidation(t *testing.T) {
	h := newHarness(t)

	status, env := h.do(t, http.MethodPost, "/tickets", `{"title":"Chair","description":"broken","contact_name":"Kim","contact_email":"not-an-email"}`)
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("status = %d env = %+v", status, env.Error)
	}
	if _, ok := env.Error.Details["contact_email"]; !ok {
		t.Errorf("details = %v", env.Error.Details)
	}

	status, env = h.do(t, http.MethodPost, "/tickets", `{"title":"Chair","description":"broken","contact_name":"Kim","contact_email":"kim@example.com"}`)
	if status != http.StatusCreated {
		t.Fatalf("status = %d err = %+v", status, env.Error)
	}
	created := decode[struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}](t, env.Data)
	if created.ID != "3" || created.Status != "pending" {
		t.Errorf("created = %+v", created)
	}
}

func TestListViewRoutes(t *testing.T) {
	h := newHarness(t)

	status, env := h.do(t, http.MethodPost, "/views/lists", "")
	if status != http.StatusCreated {
		t.Fatalf("open status = %d err = %+v", status, env.Error)
	}
	view := decode[listView](t, env.Data)
	if view.Total != 2 || view.Items[0].Title != "Wifi" || view.SortBy != "updated_at" || view.SortOrder != "desc" {
		t.Fatalf("view = %+v", view)
	}

	status, env = h.do(t, http.MethodPut, "/views/lists/"+view.ViewID+"/sort", `{"sort_by":"title","sort_order":"asc"}`)
	if status != http.StatusOK {
		t.Fatalf("sort status = %d", status)
	}
	sorted := decode[listView](t, env.Data)
	if sorted.Items[0].Title != "Badge" {
		t.Errorf("sorted = %+v", sorted.Items)
	}

	status, env = h.do(t, http.MethodPut, "/views/lists/"+view.ViewID+"/filter", `{"status":"accepted"}`)
	if status != http.StatusOK || decode[listView](t, env.Data).Total != 1 {
		t.Errorf("filter status = %d data = %s", status, env.Data)
	}

	status, env = h.do(t, http.MethodPut, "/views/lists/"+view.ViewID+"/filter", `{"status":"closed"}`)
	if status != http.StatusBadRequest || env.Error.Code != "VALIDATION_FAILED" {
		t.Errorf("bad filter status = %d", status)
	}

	if status, _ = h.do(t, http.MethodDelete, "/views/lists/"+view.ViewID, ""); status != http.StatusNoContent {
		t.Errorf("close status = %d", status)
	}
	status, env = h.do(t, http.MethodGet, "/views/lists/"+view.ViewID, "")
	if status != http.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Errorf("closed view status = %d", status)
	}
}

func TestTicketViewRoutes(t *testing.T) {
	h := newHarness(t)

	status, env := h.do(t, http.MethodPost, "/views/tickets", `{"ticket_id":"99"}`)
	if status != http.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("missing ticket status = %d env = %+v", status, env.Error)
	}

	status, env = h.do(t, http.MethodPost, "/views/tickets", `{"ticket_id":"1"}`)
	if status != http.StatusCreated {
		t.Fatalf("open status = %d err = %+v", status, env.Error)
	}
	view := decode[ticketView](t, env.Data)
	if view.Mode != "viewing" || view.Draft != nil || len(view.StatusActions) != 3 {
		t.Fatalf("view = %+v", view)
	}
	base := "/views/tickets/" + view.ViewID

	if status, env = h.do(t, http.MethodPatch, base+"/draft", `{"title":"x"}`); status != http.StatusBadRequest {
		t.Errorf("draft edit outside editing: status = %d", status)
	}

	h.do(t, http.MethodPost, base+"/edit", "")
	status, env = h.do(t, http.MethodPatch, base+"/draft", `{"title":"Wifi down"}`)
	edited := decode[ticketView](t, env.Data)
	if status != http.StatusOK || edited.Draft == nil || edited.Draft.Title != "Wifi down" || edited.Record.Title != "Wifi" {
		t.Fatalf("edited = %+v", edited)
	}

	h.backend.failUpdates(http.StatusConflict)
	status, env = h.do(t, http.MethodPost, base+"/save", "")
	if status != http.StatusConflict || env.Error.Code != "CONFLICT" {
		t.Fatalf("conflict status = %d env = %+v", status, env.Error)
	}
	_, env = h.do(t, http.MethodGet, base, "")
	if kept := decode[ticketView](t, env.Data); kept.Mode != "editing" || kept.Draft.Title != "Wifi down" {
		t.Errorf("draft not kept after failed save: %+v", kept)
	}

	h.backend.failUpdates(0)
	status, env = h.do(t, http.MethodPost, base+"/save", "")
	saved := decode[ticketView](t, env.Data)
	if status != http.StatusOK || saved.Mode != "viewing" || saved.Record.Title != "Wifi down" {
		t.Fatalf("saved = %+v", saved)
	}

	status, env = h.do(t, http.MethodPut, base+"/status", `{"status":"pending"}`)
	if status != http.StatusBadRequest {
		t.Errorf("same status = %d", status)
	}
	status, env = h.do(t, http.MethodPut, base+"/status", `{"status":"resolved"}`)
	if status != http.StatusOK || decode[ticketView](t, env.Data).Record.Status != "resolved" {
		t.Errorf("set status = %d data = %s", status, env.Data)
	}
}

func TestBackendRejectionMapsToBadGateway(t *testing.T) {
	h := newHarness(t)
	_, env := h.do(t, http.MethodPost, "/views/tickets", `{"ticket_id":"2"}`)
	view := decode[ticketView](t, env.Data)

	h.backend.failUpdates(http.StatusInternalServerError)
	status, env := h.do(t, http.MethodPut, "/views/tickets/"+view.ViewID+"/status", `{"status":"rejected"}`)
	if status != http.StatusBadGateway || env.Error.Code != "SERVER_REJECTED" {
		t.Errorf("status = %d env = %+v", status, env.Error)
	}
}

func TestActivityWithoutJournal(t *testing.T) {
	h := newHarness(t)
	status, env := h.do(t, http.MethodGet, "/activity?ticket_id=1", "")
	if status != http.StatusOK || string(env.Data) != "[]" {
		t.Errorf("status = %d data = %s", status, env.Data)
	}
	if status, _ = h.do(t, http.MethodGet, "/activity?kind=deleted", ""); status != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d", status)
	}
}

func TestReadinessReportsDependencies(t *testing.T) {
	h := newHarness(t,
		handlers.Dependency{Name: "ticket_api", Ping: func(context.Context) error { return nil }},
		handlers.Dependency{Name: "redis", Ping: func(context.Context) error { return errors.New("down") }},
	)
	status, env := h.do(t, http.MethodGet, "/health/ready", "")
	if status != http.StatusServiceUnavailable || env.Error.Details["redis"] != "down" || env.Error.Details["ticket_api"] != "ok" {
		t.Errorf("status = %d env = %+v", status, env.Error)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	h := newHarness(t)
	status, env := h.do(t, http.MethodGet, "/nope", "")
	if status != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("status = %d env = %+v", status, env.Error)
	}
}
