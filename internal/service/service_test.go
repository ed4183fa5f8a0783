package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/echomapapp/echomap-server/internal/domain"
	"github.com/echomapapp/echomap-server/internal/geo"
	"github.com/echomapapp/echomap-server/internal/id"
	"github.com/echomapapp/echomap-server/internal/store"
)

func setupServiceStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "echomap-service-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		s.Close()
		os.RemoveAll(tmpDir)
	}
	return s, cleanup
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// seedEvent writes one play event directly to the store.
func seedEvent(t *testing.T, s *store.Store, userID, trackID string, channel domain.Channel, lat, lng float64, playedAt time.Time) *domain.PlayEvent {
	t.Helper()

	eventID, err := id.Generate("evt")
	require.NoError(t, err)

	event := &domain.PlayEvent{
		ID:        eventID,
		UserID:    userID,
		TrackID:   trackID,
		Title:     "Title " + trackID,
		Artist:    "Artist " + trackID,
		AlbumArt:  "https://img.example/" + trackID,
		Channel:   channel,
		Loc:       geo.Point{Lat: lat, Lng: lng},
		PlayedAt:  playedAt,
		CreatedAt: playedAt,
	}
	require.NoError(t, s.CreatePlayEvent(context.Background(), event))
	return event
}
