package weather

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Conditions is the current weather snapshot used for recommendations.
type Conditions struct {
	Temp        float64 `json:"temp"`
	Wind        float64 `json:"wind"`
	Clouds      float64 `json:"clouds"`
	Precip      float64 `json:"precip"`
	Icon        string  `json:"icon,omitempty"`
	Description string  `json:"description,omitempty"`
}

type currentResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain    map[string]float64 `json:"rain"`
	Snow    map[string]float64 `json:"snow"`
	Weather []struct {
		Icon        string `json:"icon"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches current weather conditions at the given coordinates.
func (c *Client) Current(ctx context.Context, lat, lng float64) (*Conditions, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	params.Set("lang", "kr")

	reqURL := c.baseURL + "/data/2.5/weather?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather request failed: status %d", resp.StatusCode)
	}

	var cur currentResponse
	if err := json.UnmarshalRead(resp.Body, &cur); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	cond := &Conditions{
		Temp:   cur.Main.Temp,
		Wind:   cur.Wind.Speed,
		Clouds: cur.Clouds.All,
	}

	// Precipitation shows up as rain.1h or snow.1h depending on season.
	if v, ok := cur.Rain["1h"]; ok {
		cond.Precip = v
	} else if v, ok := cur.Snow["1h"]; ok {
		cond.Precip = v
	}

	if len(cur.Weather) > 0 {
		cond.Icon = cur.Weather[0].Icon
		cond.Description = cur.Weather[0].Description
	}

	return cond, nil
}

type geocodeEntry struct {
	Name       string            `json:"name"`
	LocalNames map[string]string `json:"local_names"`
}

// ReverseGeocode resolves coordinates to a place name, preferring the
// Korean local name when available. Returns an empty string when the
// location cannot be resolved.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	reqURL := c.baseURL + "/geo/1.0/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode request failed: status %d", resp.StatusCode)
	}

	var entries []geocodeEntry
	if err := json.UnmarshalRead(resp.Body, &entries); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(entries) == 0 {
		return "", nil
	}

	if ko, ok := entries[0].LocalNames["ko"]; ok && ko != "" {
		return ko, nil
	}
	return entries[0].Name, nil
}
