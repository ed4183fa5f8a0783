package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/echomapapp/echomap-server/internal/domain"
	apperrors "github.com/echomapapp/echomap-server/internal/errors"
	"github.com/echomapapp/echomap-server/internal/geo"
	"github.com/echomapapp/echomap-server/internal/id"
	"github.com/echomapapp/echomap-server/internal/store"
)

// PlayLogService records play events.
type PlayLogService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPlayLogService creates a new play log service.
func NewPlayLogService(store *store.Store, logger *slog.Logger) *PlayLogService {
	return &PlayLogService{
		store:  store,
		logger: logger,
	}
}

// LocInput is the client-supplied coordinate pair. A pointer field lets
// validation distinguish an absent location from one at the origin.
type LocInput struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RecordRequest contains the data for recording a play event.
type RecordRequest struct {
	UserID   string     `json:"userId"`
	UserName string     `json:"userName"`
	TrackID  string     `json:"trackId" validate:"required"`
	Title    string     `json:"title"`
	Artist   string     `json:"artist"`
	AlbumArt string     `json:"albumArt"`
	Channel  string     `json:"channel"`
	PlayedAt *time.Time `json:"playedAt" validate:"required"`
	Loc      *LocInput  `json:"loc" validate:"required"`
}

// Record validates and stores a play event. Nothing is written when
// validation fails. Coordinates are not range-checked - the clients
// report what the device gives them.
func (s *PlayLogService) Record(ctx context.Context, req RecordRequest) (*domain.PlayEvent, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	loc := geo.Point{Lat: req.Loc.Lat, Lng: req.Loc.Lng}
	if !loc.Valid() {
		return nil, apperrors.InvalidCoordinates("lat/lng must be finite numbers")
	}

	// Logged-out clients may post play logs without an identity.
	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}

	eventID, err := id.Generate("evt")
	if err != nil {
		return nil, fmt.Errorf("generate event ID: %w", err)
	}

	event := &domain.PlayEvent{
		ID:        eventID,
		UserID:    userID,
		UserName:  req.UserName,
		TrackID:   req.TrackID,
		Title:     req.Title,
		Artist:    req.Artist,
		AlbumArt:  req.AlbumArt,
		Channel:   domain.ParseChannel(req.Channel),
		Loc:       loc,
		PlayedAt:  *req.PlayedAt,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreatePlayEvent(ctx, event); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("store event: %w", err))
	}

	if s.logger != nil {
		s.logger.Debug("play event recorded",
			"event_id", event.ID,
			"user_id", event.UserID,
			"track_id", event.TrackID,
			"channel", string(event.Channel),
		)
	}

	return event, nil
}

// History returns a user's play events, newest first.
func (s *PlayLogService) History(ctx context.Context, userID string, limit int) ([]*domain.PlayEvent, error) {
	if userID == "" {
		return nil, apperrors.MissingField("userId")
	}

	events, err := s.store.GetEventsForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.QueryFailed(fmt.Errorf("user events: %w", err))
	}

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
