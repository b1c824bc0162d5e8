package client

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/deskops/ticket-desk/internal/config"
)

// NewFromConfig builds a Client from the backend settings. A non-positive
// rate disables throttling.
func NewFromConfig(cfg config.BackendConfig, logger *zap.Logger) (*Client, error) {
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return New(Config{
		BaseURL:    cfg.BaseURL,
		HealthURL:  cfg.HealthURL,
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
		Limiter:    limiter,
		Logger:     logger,
	})
}
