package domain

import (
	"time"

	"github.com/echomapapp/echomap-server/internal/errors"
	"github.com/echomapapp/echomap-server/internal/geo"
)

// Channel partitions play events into independent feeds.
type Channel string

const (
	// ChannelPopular holds durable play history used for popularity stats.
	ChannelPopular Channel = "popular"
	// ChannelLive holds short-lived "now playing" beacons.
	ChannelLive Channel = "live"
)

// ParseChannel maps a raw channel string to a Channel, defaulting to popular.
func ParseChannel(s string) Channel {
	if s == string(ChannelLive) {
		return ChannelLive
	}
	return ChannelPopular
}

// PlayEvent is the atomic, immutable record of a geo-tagged playback.
// Events are append-only - everything else derives from them.
type PlayEvent struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	// UserName is a display name snapshot for live presence rows.
	UserName string `json:"userName,omitempty"`
	TrackID  string `json:"trackId"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	// AlbumArt is the album cover image URL from the catalog.
	AlbumArt  string    `json:"albumArt,omitempty"`
	Channel   Channel   `json:"channel"`
	Loc       geo.Point `json:"loc"`
	PlayedAt  time.Time `json:"playedAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the fields required for a write.
func (e *PlayEvent) Validate() error {
	if e.UserID == "" {
		return errors.MissingField("userId")
	}
	if e.TrackID == "" {
		return errors.MissingField("trackId")
	}
	if !e.Loc.Valid() {
		return errors.InvalidCoordinates("lat/lng must be finite numbers")
	}
	if e.PlayedAt.IsZero() {
		return errors.MissingField("playedAt")
	}
	return nil
}

// NearbyTrack is one row of the popular-nearby aggregation: a distinct
// track with its play count inside the queried circle and window.
type NearbyTrack struct {
	TrackID  string `json:"trackId"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	AlbumArt string `json:"albumArt,omitempty"`
	Count    int    `json:"count"`
}

// LiveListener is one row of the live-nearby feed: the latest beacon
// per user inside the queried circle and window.
type LiveListener struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	TrackID   string    `json:"trackId"`
	Title     string    `json:"title,omitempty"`
	Artist    string    `json:"artist,omitempty"`
	AlbumArt  string    `json:"albumArt,omitempty"`
	Loc       geo.Point `json:"loc"`
	PlayedAt  time.Time `json:"playedAt"`
	DistanceM float64   `json:"distance"`
}
