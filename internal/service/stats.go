package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/echomapapp/echomap-server/internal/domain"
	apperrors "github.com/echomapapp/echomap-server/internal/errors"
	"github.com/echomapapp/echomap-server/internal/geo"
	"github.com/echomapapp/echomap-server/internal/store"
)

// Popularity query bounds. Requests outside these are clamped, not
// rejected.
const (
	popularRadiusDefault = 5.0
	popularRadiusMin     = 0.01
	popularRadiusMax     = 50.0

	popularWindowDefault = 1
	popularWindowMin     = 1
	popularWindowMax     = 90

	popularLimitDefault = 10
	popularLimitMin     = 1
	popularLimitMax     = 50
)

// StatsService answers the popular-nearby aggregation.
type StatsService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(store *store.Store, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger,
	}
}

// PopularNearRequest is a popularity query. Zero values for the bounds
// mean "not supplied" and fall back to the defaults.
type PopularNearRequest struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	WindowD  int
	Limit    int
}

// PopularNearResponse echoes the effective query and carries the
// ranked tracks.
type PopularNearResponse struct {
	Center   LocInput             `json:"center"`
	RadiusKm float64              `json:"radiusKm"`
	WindowD  int                  `json:"windowD"`
	Total    int                  `json:"total"`
	Items    []domain.NearbyTrack `json:"items"`
}

// PopularNear returns the most-played tracks within radiusKm of the
// center over the last WindowD days, ranked by play count.
func (s *StatsService) PopularNear(ctx context.Context, req PopularNearRequest) (*PopularNearResponse, error) {
	if !isFinite(req.Lat) || !isFinite(req.Lng) {
		return nil, apperrors.InvalidCoordinates("lat/lng required")
	}

	radiusKm := clampFloat(req.RadiusKm, popularRadiusDefault, popularRadiusMin, popularRadiusMax)
	windowD := clampInt(req.WindowD, popularWindowDefault, popularWindowMin, popularWindowMax)
	limit := clampInt(req.Limit, popularLimitDefault, popularLimitMin, popularLimitMax)

	center := geo.Point{Lat: req.Lat, Lng: req.Lng}
	since := time.Now().UTC().AddDate(0, 0, -windowD)

	events, err := s.store.EventsSince(ctx, domain.ChannelPopular, since)
	if err != nil {
		return nil, apperrors.QueryFailed(fmt.Errorf("scan events: %w", err))
	}

	// Group by track, keeping metadata from the first event seen.
	counts := make(map[string]*domain.NearbyTrack)
	for _, e := range events {
		if geo.DistanceKm(center, e.Loc) > radiusKm {
			continue
		}

		if t, ok := counts[e.TrackID]; ok {
			t.Count++
			continue
		}
		counts[e.TrackID] = &domain.NearbyTrack{
			TrackID:  e.TrackID,
			Title:    e.Title,
			Artist:   e.Artist,
			AlbumArt: e.AlbumArt,
			Count:    1,
		}
	}

	items := make([]domain.NearbyTrack, 0, len(counts))
	for _, t := range counts {
		items = append(items, *t)
	}

	// Rank by count, breaking ties by track ID for a stable order.
	slices.SortFunc(items, func(a, b domain.NearbyTrack) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.TrackID, b.TrackID)
	})

	if len(items) > limit {
		items = items[:limit]
	}

	return &PopularNearResponse{
		Center:   LocInput{Lat: req.Lat, Lng: req.Lng},
		RadiusKm: radiusKm,
		WindowD:  windowD,
		Total:    len(items),
		Items:    items,
	}, nil
}

// isFinite reports whether f is a usable coordinate value.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// clampFloat substitutes def for an unsupplied value and clamps the
// result into [lo, hi].
func clampFloat(v, def, lo, hi float64) float64 {
	if v == 0 || math.IsNaN(v) {
		v = def
	}
	return math.Min(math.Max(v, lo), hi)
}

// clampInt substitutes def for an unsupplied value and clamps the
// result into [lo, hi].
func clampInt(v, def, lo, hi int) int {
	if v == 0 {
		v = def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
