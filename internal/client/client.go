package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/deskops/ticket-desk/internal/domain"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

// maxErrorBody bounds how much of a rejected response is read for its message.
const maxErrorBody = 64 << 10

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the ticket API root, e.g. "http://localhost:8080/api/v1".
	BaseURL string
	// HealthURL is probed by Health. Defaults to "/health" on BaseURL's host.
	HealthURL  string
	HTTPClient *http.Client
	// Limiter throttles outgoing requests when set.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// Client talks to the remote ticket API.
type Client struct {
	baseURL    string
	healthURL  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New validates the configuration and builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("client: invalid BaseURL %q", cfg.BaseURL)
	}

	healthURL := cfg.HealthURL
	if healthURL == "" {
		healthURL = parsed.Scheme + "://" + parsed.Host + "/health"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		healthURL:  healthURL,
		httpClient: httpClient,
		limiter:    cfg.Limiter,
		logger:     logger,
	}, nil
}

type listResponse struct {
	Tickets []domain.Ticket `json:"tickets"`
}

// ListTickets fetches every ticket matching the query. The sort is sent as a
// hint only; callers order the result themselves.
func (c *Client) ListTickets(ctx context.Context, query domain.ListQuery) ([]domain.Ticket, error) {
	params := url.Values{}
	if status, ok := query.Status.Status(); ok {
		params.Set("status", string(status))
	}
	if query.Sort.Field != "" {
		params.Set("sortBy", string(query.Sort.Field))
	}
	if query.Sort.Order != "" {
		params.Set("sortOrder", string(query.Sort.Order))
	}
	path := "/tickets"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Tickets == nil {
		resp.Tickets = []domain.Ticket{}
	}
	return resp.Tickets, nil
}

// GetTicket fetches one ticket.
func (c *Client) GetTicket(ctx context.Context, id domain.TicketID) (domain.Ticket, error) {
	var ticket domain.Ticket
	err := c.do(ctx, http.MethodGet, ticketPath(id), nil, &ticket)
	return ticket, err
}

// CreateTicket submits a new ticket and returns the backend's record.
func (c *Client) CreateTicket(ctx context.Context, input domain.NewTicket) (domain.Ticket, error) {
	var ticket domain.Ticket
	err := c.do(ctx, http.MethodPost, "/tickets/create", input, &ticket)
	return ticket, err
}

// UpdateTicket replaces the ticket's editable fields.
func (c *Client) UpdateTicket(ctx context.Context, id domain.TicketID, update domain.TicketUpdate) (domain.Ticket, error) {
	var ticket domain.Ticket
	err := c.do(ctx, http.MethodPut, ticketPath(id), update, &ticket)
	return ticket, err
}

// SetStatus moves the ticket to status.
func (c *Client) SetStatus(ctx context.Context, id domain.TicketID, status domain.TicketStatus) (domain.Ticket, error) {
	body := struct {
		Status domain.TicketStatus `json:"status"`
	}{Status: status}
	var ticket domain.Ticket
	err := c.do(ctx, http.MethodPut, ticketPath(id)+"/status", body, &ticket)
	return ticket, err
}

// Health probes the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.send(ctx, http.MethodGet, c.healthURL, nil, nil)
}

func ticketPath(id domain.TicketID) string {
	return "/tickets/" + url.PathEscape(id.String())
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, method, c.baseURL+path, body, out)
}

func (c *Client) send(ctx context.Context, method, target string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperrors.NewNetworkFailure(err)
		}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("ticket api request failed",
			zap.String("method", method), zap.String("url", target), zap.Error(err))
		return apperrors.NewNetworkFailure(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("ticket api request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rejection(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewServerRejected(resp.StatusCode, "malformed response from ticket api")
	}
	return nil
}

// rejection maps a non-2xx response to an error, whatever its body looks like.
func rejection(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := extractMessage(raw)

	switch resp.StatusCode {
	case http.StatusNotFound:
		details := map[string]any{}
		if message != "" {
			details["upstream_message"] = message
		}
		return apperrors.NewNotFound("ticket", details)
	case http.StatusConflict:
		if message == "" {
			message = "ticket was changed by someone else"
		}
		return apperrors.NewConflict(message, map[string]any{"upstream_status": resp.StatusCode})
	}
	return apperrors.NewServerRejected(resp.StatusCode, message)
}

func extractMessage(raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		switch v := body[key].(type) {
		case string:
			return v
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return msg
			}
		}
	}
	return ""
}
