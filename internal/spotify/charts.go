package spotify

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// chartBaseURL is the undocumented charts service the official web app
// uses. It is not part of the public Web API, so requests carry a
// manually provisioned token instead of the app's client credentials.
const chartBaseURL = "https://charts-spotify-com-service.spotify.com/auth/v0/charts"

// ChartEntry is one row of the regional daily top-50 chart.
type ChartEntry struct {
	Rank   int    `json:"rank"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Image  string `json:"image"`
	ID     string `json:"id"`
}

type chartResponse struct {
	Entries []struct {
		ChartEntryData struct {
			CurrentRank int `json:"currentRank"`
		} `json:"chartEntryData"`
		TrackMetadata struct {
			TrackName string `json:"trackName"`
			TrackURI  string `json:"trackUri"`
			Artists   []struct {
				Name string `json:"name"`
			} `json:"artists"`
			DisplayImageURL string `json:"displayImageUrl"`
			DisplayImageURI string `json:"displayImageUri"`
		} `json:"trackMetadata"`
	} `json:"entries"`
}

// TopChart fetches the Korean regional daily chart, truncated to the
// top 50 entries. Charts publish with a delay, so the request targets
// the chart from two days ago.
func (c *Client) TopChart(ctx context.Context) ([]ChartEntry, error) {
	if c.chartToken == "" {
		return nil, fmt.Errorf("chart token not configured")
	}

	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	dateStr := time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02")
	url := fmt.Sprintf("%s/regional-kr-daily/%s", c.chartBaseURL, dateStr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.chartToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request failed: status %d", resp.StatusCode)
	}

	var chartResp chartResponse
	if err := json.UnmarshalRead(resp.Body, &chartResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	entries := chartResp.Entries
	if len(entries) > 50 {
		entries = entries[:50]
	}

	results := make([]ChartEntry, 0, len(entries))
	for _, e := range entries {
		meta := e.TrackMetadata

		names := make([]string, 0, len(meta.Artists))
		for _, a := range meta.Artists {
			names = append(names, a.Name)
		}

		results = append(results, ChartEntry{
			Rank:   e.ChartEntryData.CurrentRank,
			Title:  meta.TrackName,
			Artist: strings.Join(names, ", "),
			Image:  chartImageURL(meta.DisplayImageURL, meta.DisplayImageURI),
			ID:     trackIDFromURI(meta.TrackURI),
		})
	}

	return results, nil
}

// chartImageURL rebuilds a clean CDN URL from whichever image reference
// the chart payload carries. References arrive either as full URLs or
// as spotify:image: URIs, so only the trailing ID is trusted.
func chartImageURL(url, uri string) string {
	raw := url
	if raw == "" {
		raw = uri
	}
	if raw == "" {
		return ""
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ':' || r == '/'
	})
	if len(parts) == 0 {
		return ""
	}
	return "https://i.scdn.co/image/" + parts[len(parts)-1]
}

// trackIDFromURI extracts the bare track ID from a spotify:track: URI.
func trackIDFromURI(uri string) string {
	parts := strings.Split(uri, ":")
	return parts[len(parts)-1]
}
