// Package spotify wraps the Spotify Web API: OAuth login, the
// currently-playing lookup, catalog search for recommendation
// validation, and the regional chart proxy.
package spotify

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/echomapapp/echomap-server/internal/config"
)

// Track is a catalog track in the shape the rest of the server uses.
type Track struct {
	ID          string
	URI         string
	Title       string
	Artist      string
	AlbumArt    string
	PreviewURL  string
	ExternalURL string
	EmbedURL    string
}

// NowPlaying is the user's current playback state.
type NowPlaying struct {
	Playing bool
	Track   *Track
}

// Client provides access to the Spotify Web API.
type Client struct {
	auth    *spotifyauth.Authenticator
	catalog *spotifyapi.Client

	httpClient   *http.Client
	rateLimiter  *rate.Limiter
	chartToken   string
	chartBaseURL string
	logger       *slog.Logger
}

// NewClient creates a new Spotify client. The catalog client uses the
// client-credentials grant; oauth2's TokenSource caches the app token
// and refreshes it on expiry.
func NewClient(cfg config.SpotifyConfig, logger *slog.Logger) *Client {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadCurrentlyPlaying,
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserReadRecentlyPlayed,
		),
	)

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	// Catalog calls are single-attempt: a rate-limited response surfaces
	// as an upstream error instead of sleeping on Retry-After.
	catalog := spotifyapi.New(creds.Client(context.Background()))

	return &Client{
		auth:    auth,
		catalog: catalog,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		// Stay well under Spotify's rolling request window.
		rateLimiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 10),
		chartToken:   cfg.ChartToken,
		chartBaseURL: chartBaseURL,
		logger:       logger,
	}
}

// wait blocks until rate limiter allows a request.
func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}
