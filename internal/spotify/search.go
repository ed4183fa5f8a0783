package spotify

import (
	"context"
	"fmt"

	spotifyapi "github.com/zmb3/spotify/v2"
)

// SearchTrack looks up a track by title and artist. When the combined
// query finds nothing it retries with the title alone. Returns nil when
// the catalog has no match at all.
func (c *Client) SearchTrack(ctx context.Context, title, artist string) (*Track, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	query := title
	if artist != "" {
		query = fmt.Sprintf("track:%s artist:%s", title, artist)
	}

	track, err := c.searchOne(ctx, query)
	if err != nil {
		return nil, err
	}

	// Fall back to a title-only query before giving up.
	if track == nil && artist != "" {
		track, err = c.searchOne(ctx, title)
		if err != nil {
			return nil, err
		}
	}

	return track, nil
}

func (c *Client) searchOne(ctx context.Context, query string) (*Track, error) {
	result, err := c.catalog.Search(ctx, query, spotifyapi.SearchTypeTrack, spotifyapi.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return nil, nil
	}

	return fullTrackToTrack(&result.Tracks.Tracks[0]), nil
}
