package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echomapapp/echomap-server/internal/domain"
	apperrors "github.com/echomapapp/echomap-server/internal/errors"
)

func TestPopularNearClamping(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	svc := NewStatsService(s, discardLogger())
	ctx := context.Background()

	tests := []struct {
		name       string
		req        PopularNearRequest
		wantRadius float64
		wantWindow int
	}{
		{"defaults", PopularNearRequest{Lat: 1, Lng: 1}, 5, 1},
		{"radius above max", PopularNearRequest{Lat: 1, Lng: 1, RadiusKm: 999}, 50, 1},
		{"radius below min", PopularNearRequest{Lat: 1, Lng: 1, RadiusKm: 0.001}, 0.01, 1},
		{"window above max", PopularNearRequest{Lat: 1, Lng: 1, WindowD: 365}, 5, 90},
		{"window below min", PopularNearRequest{Lat: 1, Lng: 1, WindowD: -3}, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.PopularNear(ctx, tt.req)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantRadius, resp.RadiusKm, 1e-9)
			assert.Equal(t, tt.wantWindow, resp.WindowD)
		})
	}
}

func TestPopularNearRequiresFiniteCenter(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	svc := NewStatsService(s, discardLogger())

	_, err := svc.PopularNear(context.Background(), PopularNearRequest{Lat: math.NaN(), Lng: 127})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCoordinates))

	_, err = svc.PopularNear(context.Background(), PopularNearRequest{Lat: 37, Lng: math.Inf(1)})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCoordinates))
}

func TestPopularNearGeoBoundary(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	svc := NewStatsService(s, discardLogger())
	now := time.Now().UTC()

	// About 2.2 km east of the origin - outside a 1 km radius.
	seedEvent(t, s, "u1", "far", domain.ChannelPopular, 0, 0.02, now)
	// About 0.56 km east - inside.
	seedEvent(t, s, "u2", "near", domain.ChannelPopular, 0, 0.005, now)

	resp, err := svc.PopularNear(context.Background(), PopularNearRequest{
		Lat: 0, Lng: 0, RadiusKm: 1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "near", resp.Items[0].TrackID)
}

func TestPopularNearWindowExcludesOldEvents(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	svc := NewStatsService(s, discardLogger())
	now := time.Now().UTC()

	seedEvent(t, s, "u1", "recent", domain.ChannelPopular, 37.5665, 126.9780, now.Add(-time.Hour))
	seedEvent(t, s, "u1", "stale", domain.ChannelPopular, 37.5665, 126.9780, now.Add(-48*time.Hour))

	resp, err := svc.PopularNear(context.Background(), PopularNearRequest{
		Lat: 37.5665, Lng: 126.9780, WindowD: 1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "recent", resp.Items[0].TrackID)
}

func TestPopularNearIgnoresLiveChannel(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	svc := NewStatsService(s, discardLogger())
	now := time.Now().UTC()

	seedEvent(t, s, "u1", "beacon", domain.ChannelLive, 37.5665, 126.9780, now)

	resp, err := svc.PopularNear(context.Background(), PopularNearRequest{Lat: 37.5665, Lng: 126.9780})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0, resp.Total)
}

func TestPopularNearRanking(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	svc := NewStatsService(s, discardLogger())
	now := time.Now().UTC()

	// Three plays of A and one of B near Seoul city hall.
	for range 3 {
		seedEvent(t, s, "u1", "track-a", domain.ChannelPopular, 37.5665, 126.9780, now)
	}
	seedEvent(t, s, "u2", "track-b", domain.ChannelPopular, 37.5660, 126.9775, now)

	resp, err := svc.PopularNear(context.Background(), PopularNearRequest{
		Lat: 37.5665, Lng: 126.9780, RadiusKm: 5,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	assert.Equal(t, "track-a", resp.Items[0].TrackID)
	assert.Equal(t, 3, resp.Items[0].Count)
	assert.Equal(t, "Title track-a", resp.Items[0].Title)
	assert.Equal(t, "track-b", resp.Items[1].TrackID)
	assert.Equal(t, 1, resp.Items[1].Count)
	assert.Equal(t, 2, resp.Total)
}

func TestPopularNearTieBreaksByTrackID(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	svc := NewStatsService(s, discardLogger())
	now := time.Now().UTC()

	seedEvent(t, s, "u1", "zzz", domain.ChannelPopular, 0, 0, now)
	seedEvent(t, s, "u1", "aaa", domain.ChannelPopular, 0, 0, now)

	resp, err := svc.PopularNear(context.Background(), PopularNearRequest{Lat: 0, Lng: 0})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "aaa", resp.Items[0].TrackID)
	assert.Equal(t, "zzz", resp.Items[1].TrackID)
}

func TestPopularNearLimit(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	svc := NewStatsService(s, discardLogger())
	now := time.Now().UTC()

	for _, id := range []string{"t1", "t2", "t3"} {
		seedEvent(t, s, "u1", id, domain.ChannelPopular, 0, 0, now)
	}

	resp, err := svc.PopularNear(context.Background(), PopularNearRequest{Lat: 0, Lng: 0, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
}

func TestPopularNearEmptyResult(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	svc := NewStatsService(s, discardLogger())

	resp, err := svc.PopularNear(context.Background(), PopularNearRequest{Lat: 37.5665, Lng: 126.9780})
	require.NoError(t, err)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0, resp.Total)
}
