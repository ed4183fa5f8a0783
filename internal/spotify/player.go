package spotify

import (
	"context"
	"fmt"
	"strings"

	spotifyapi "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// CurrentlyPlaying fetches what the user is playing right now using
// their own access token. A nil Track with Playing=false means nothing
// is playing - that is a normal state, not an error.
func (c *Client) CurrentlyPlaying(ctx context.Context, accessToken string) (*NowPlaying, error) {
	token := &oauth2.Token{AccessToken: accessToken}
	client := spotifyapi.New(c.auth.Client(ctx, token))

	playing, err := client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, fmt.Errorf("currently playing: %w", err)
	}

	if playing == nil || playing.Item == nil {
		return &NowPlaying{Playing: false}, nil
	}

	return &NowPlaying{
		Playing: playing.Playing,
		Track:   fullTrackToTrack(playing.Item),
	}, nil
}

// fullTrackToTrack flattens the API track into the server's shape.
func fullTrackToTrack(t *spotifyapi.FullTrack) *Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}

	albumArt := ""
	if len(t.Album.Images) > 0 {
		albumArt = t.Album.Images[0].URL
	}

	track := &Track{
		ID:          string(t.ID),
		URI:         string(t.URI),
		Title:       t.Name,
		Artist:      strings.Join(names, ", "),
		AlbumArt:    albumArt,
		PreviewURL:  t.PreviewURL,
		ExternalURL: t.ExternalURLs["spotify"],
	}
	if track.ID != "" {
		track.EmbedURL = "https://open.spotify.com/embed/track/" + track.ID
	}
	return track
}
