package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/echomapapp/echomap-server/internal/domain"
	apperrors "github.com/echomapapp/echomap-server/internal/errors"
	"github.com/echomapapp/echomap-server/internal/spotify"
	"github.com/echomapapp/echomap-server/internal/store"
)

// SpotifyAuth is the OAuth surface the auth service needs.
type SpotifyAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Profile(ctx context.Context, token *oauth2.Token) (*spotify.UserProfile, error)
}

// AuthService runs the Spotify authorization-code flow and maintains
// user records.
type AuthService struct {
	store       *store.Store
	auth        SpotifyAuth
	frontendURL string
	logger      *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store *store.Store, auth SpotifyAuth, frontendURL string, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:       store,
		auth:        auth,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// LoginURL builds the Spotify authorize redirect target.
func (s *AuthService) LoginURL() string {
	state := uuid.NewString()
	return s.auth.AuthURL(state)
}

// HandleCallback exchanges the authorization code, upserts the user
// record, and returns the frontend redirect URL carrying the session
// parameters.
func (s *AuthService) HandleCallback(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", apperrors.MissingField("code")
	}

	token, err := s.auth.Exchange(ctx, code)
	if err != nil {
		return "", apperrors.Upstream("spotify", err)
	}

	profile, err := s.auth.Profile(ctx, token)
	if err != nil {
		return "", apperrors.Upstream("spotify", err)
	}

	user, err := s.upsertUser(ctx, profile, token)
	if err != nil {
		return "", apperrors.Storage(err)
	}

	if s.logger != nil {
		s.logger.Info("spotify login", "user_id", user.ID, "display_name", user.DisplayName)
	}

	params := url.Values{}
	params.Set("access_token", token.AccessToken)
	params.Set("user_id", user.ID)
	params.Set("display_name", user.Name())

	return fmt.Sprintf("%s/app?%s", s.frontendURL, params.Encode()), nil
}

// upsertUser refreshes profile and token state, preserving the survey
// flag and creation time on returning users.
func (s *AuthService) upsertUser(ctx context.Context, profile *spotify.UserProfile, token *oauth2.Token) (*domain.User, error) {
	now := time.Now().UTC()

	user, err := s.store.Users.Get(ctx, profile.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("get user: %w", err)
		}
		user = &domain.User{
			ID:        profile.ID,
			CreatedAt: now,
		}
	}

	user.DisplayName = profile.DisplayName
	user.Email = profile.Email
	user.AccessToken = token.AccessToken
	user.RefreshToken = token.RefreshToken
	user.TokenExpiresAt = token.Expiry
	user.UpdatedAt = now

	if err := s.store.Users.Upsert(ctx, user.ID, user); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}
