// Package weather provides access to the OpenWeatherMap API for
// current conditions and reverse geocoding.
package weather

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.openweathermap.org"

// Client provides access to the OpenWeatherMap API.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
	apiKey      string
	baseURL     string
}

// NewClient creates a new OpenWeatherMap client.
// Rate limited to stay inside the free-tier 60 calls per minute.
func NewClient(apiKey string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 5),
		logger:      logger,
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
	}
}

// wait blocks until rate limiter allows a request.
func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}
