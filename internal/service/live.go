package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/echomapapp/echomap-server/internal/domain"
	apperrors "github.com/echomapapp/echomap-server/internal/errors"
	"github.com/echomapapp/echomap-server/internal/geo"
	"github.com/echomapapp/echomap-server/internal/id"
	"github.com/echomapapp/echomap-server/internal/spotify"
	"github.com/echomapapp/echomap-server/internal/store"
)

// Live feed query bounds.
const (
	liveRadiusDefault = 2.0
	liveRadiusMin     = 0.01
	liveRadiusMax     = 20.0

	liveWindowDefault = 120
	liveWindowMin     = 1
	liveWindowMax     = 600

	liveLimitDefault = 50
	liveLimitMin     = 1
	liveLimitMax     = 200
)

// NowPlayingSource resolves a user's current playback from their
// access token.
type NowPlayingSource interface {
	CurrentlyPlaying(ctx context.Context, accessToken string) (*spotify.NowPlaying, error)
}

// LiveService publishes live-presence beacons and answers the
// who-is-listening-nearby feed.
type LiveService struct {
	store  *store.Store
	player NowPlayingSource
	logger *slog.Logger
}

// NewLiveService creates a new live presence service.
func NewLiveService(store *store.Store, player NowPlayingSource, logger *slog.Logger) *LiveService {
	return &LiveService{
		store:  store,
		player: player,
		logger: logger,
	}
}

// CaptureNowRequest identifies the user and position for a playback
// capture.
type CaptureNowRequest struct {
	AccessToken string   `json:"accessToken" validate:"required"`
	UserID      string   `json:"userId"`
	UserName    string   `json:"userName"`
	Lat         *float64 `json:"lat" validate:"required"`
	Lng         *float64 `json:"lng" validate:"required"`
}

// CaptureNowResponse reports the capture outcome. Ok is false when the
// user has nothing playing - that is a normal state, not an error.
type CaptureNowResponse struct {
	Ok      bool              `json:"ok"`
	Message string            `json:"message,omitempty"`
	Log     *domain.PlayEvent `json:"log,omitempty"`
}

// CaptureNow resolves the user's currently playing track and records
// it as a play event on the given channel.
func (s *LiveService) CaptureNow(ctx context.Context, req CaptureNowRequest, channel domain.Channel) (*CaptureNowResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	loc := geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	if !loc.Valid() {
		return nil, apperrors.InvalidCoordinates("lat/lng must be finite numbers")
	}

	now, err := s.player.CurrentlyPlaying(ctx, req.AccessToken)
	if err != nil {
		return nil, apperrors.Upstream("spotify", err)
	}

	if now.Track == nil {
		return &CaptureNowResponse{Ok: false, Message: "nothing playing"}, nil
	}

	userID := req.UserID
	if userID == "" {
		userID = "unknown-user"
	}

	eventID, err := id.Generate("evt")
	if err != nil {
		return nil, fmt.Errorf("generate event ID: %w", err)
	}

	event := &domain.PlayEvent{
		ID:        eventID,
		UserID:    userID,
		UserName:  req.UserName,
		TrackID:   now.Track.URI,
		Title:     now.Track.Title,
		Artist:    now.Track.Artist,
		AlbumArt:  now.Track.AlbumArt,
		Channel:   channel,
		Loc:       loc,
		PlayedAt:  time.Now().UTC(),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreatePlayEvent(ctx, event); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("store event: %w", err))
	}

	return &CaptureNowResponse{Ok: true, Log: event}, nil
}

// LiveNearRequest is a live feed query. Zero bounds fall back to the
// defaults.
type LiveNearRequest struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	WindowS  int
	Limit    int
}

// LiveNearResponse carries the deduplicated nearby listeners.
type LiveNearResponse struct {
	Center LocInput              `json:"center"`
	Total  int                   `json:"total"`
	Items  []domain.LiveListener `json:"items"`
}

// LiveNear returns who is playing what within radiusKm of the center
// over the last WindowS seconds. Each user appears at most once, with
// their latest beacon.
func (s *LiveService) LiveNear(ctx context.Context, req LiveNearRequest) (*LiveNearResponse, error) {
	if !isFinite(req.Lat) || !isFinite(req.Lng) {
		return nil, apperrors.InvalidCoordinates("lat/lng required")
	}

	radiusKm := clampFloat(req.RadiusKm, liveRadiusDefault, liveRadiusMin, liveRadiusMax)
	windowS := clampInt(req.WindowS, liveWindowDefault, liveWindowMin, liveWindowMax)
	limit := clampInt(req.Limit, liveLimitDefault, liveLimitMin, liveLimitMax)

	center := geo.Point{Lat: req.Lat, Lng: req.Lng}
	since := time.Now().UTC().Add(-time.Duration(windowS) * time.Second)

	events, err := s.store.EventsSince(ctx, domain.ChannelLive, since)
	if err != nil {
		return nil, apperrors.QueryFailed(fmt.Errorf("scan events: %w", err))
	}

	// Latest beacon per user inside the circle.
	latest := make(map[string]*domain.PlayEvent)
	for _, e := range events {
		if geo.DistanceKm(center, e.Loc) > radiusKm {
			continue
		}
		if prev, ok := latest[e.UserID]; ok && prev.PlayedAt.After(e.PlayedAt) {
			continue
		}
		latest[e.UserID] = e
	}

	items := make([]domain.LiveListener, 0, len(latest))
	for _, e := range latest {
		items = append(items, domain.LiveListener{
			UserID:    e.UserID,
			UserName:  e.UserName,
			TrackID:   e.TrackID,
			Title:     e.Title,
			Artist:    e.Artist,
			AlbumArt:  e.AlbumArt,
			Loc:       e.Loc,
			PlayedAt:  e.PlayedAt,
			DistanceM: geo.DistanceM(center, e.Loc),
		})
	}

	slices.SortFunc(items, func(a, b domain.LiveListener) int {
		return b.PlayedAt.Compare(a.PlayedAt)
	})

	if len(items) > limit {
		items = items[:limit]
	}

	return &LiveNearResponse{
		Center: LocInput{Lat: req.Lat, Lng: req.Lng},
		Total:  len(items),
		Items:  items,
	}, nil
}
