package llm

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"strings"

	"github.com/echomapapp/echomap-server/internal/domain"
)

// WeatherInput is the weather snapshot handed to the model.
type WeatherInput struct {
	Temp        float64 `json:"temp"`
	Wind        float64 `json:"wind"`
	Clouds      float64 `json:"clouds"`
	Precip      float64 `json:"precip"`
	Description string  `json:"description,omitempty"`
	Place       string  `json:"place,omitempty"`
}

const recommendSystemPrompt = `You are a music curator who replies in Korean.

You receive the listener's current situation as JSON. Recommend exactly
10 real, existing songs that fit it. Favor tracks a Korean listener
would recognize, and vary the artists and moods across the list.

Respond with a single JSON object and nothing else:

{
  "mood": "a one-word mood label for the situation",
  "tracks": [
    {
      "title": "song title",
      "artist": "artist name",
      "reason": "one or two Korean sentences on why it fits",
      "mood_tags": ["..."],
      "match_score": 0.0
    }
  ]
}

match_score is between 0.0 and 1.0.`

// RecommendForWeather asks the model for tracks matching the weather.
func (c *Client) RecommendForWeather(ctx context.Context, weather WeatherInput, profile domain.Profile) ([]domain.RecommendedTrack, error) {
	payload, err := json.Marshal(weather)
	if err != nil {
		return nil, fmt.Errorf("marshal weather: %w", err)
	}

	user := fmt.Sprintf("Recommend songs for this weather.\n\n[Weather]\n%s\n%s",
		string(payload), profilePrompt(profile))

	rec, err := c.complete(ctx, recommendSystemPrompt, user)
	if err != nil {
		return nil, err
	}
	return rec.Tracks, nil
}

// ChatMessage is one turn of the recommendation chat.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RecommendForChat reads the mood out of a conversation and recommends
// tracks for it. Returns the mood label alongside the candidates.
func (c *Client) RecommendForChat(ctx context.Context, messages []ChatMessage, profile domain.Profile) (string, []domain.RecommendedTrack, error) {
	var convo strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&convo, "%s: %s\n", m.Role, m.Content)
	}

	user := fmt.Sprintf("Read the listener's mood from this conversation and recommend songs for it.\n\n[Conversation]\n%s%s",
		convo.String(), profilePrompt(profile))

	rec, err := c.complete(ctx, recommendSystemPrompt, user)
	if err != nil {
		return "", nil, err
	}
	return rec.Mood, rec.Tracks, nil
}
