// Package llm generates track recommendations with the OpenAI
// chat-completions API. Responses are requested in JSON mode and
// parsed into candidate tracks for catalog validation.
package llm

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/echomapapp/echomap-server/internal/config"
	"github.com/echomapapp/echomap-server/internal/domain"
)

// Client wraps the OpenAI API for recommendation prompts.
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a new OpenAI-backed recommendation client.
func NewClient(cfg config.OpenAIConfig, logger *slog.Logger) *Client {
	return &Client{
		api:    openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger,
	}
}

// recommendation is the JSON object the model is instructed to return.
type recommendation struct {
	Mood   string                    `json:"mood"`
	Tracks []domain.RecommendedTrack `json:"tracks"`
}

// complete runs one JSON-mode chat completion and parses the result.
func (c *Client) complete(ctx context.Context, system, user string) (*recommendation, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.8,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: empty response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	var rec recommendation
	if err := json.Unmarshal([]byte(content), &rec); err != nil {
		return nil, fmt.Errorf("parse recommendation: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("llm recommendation", "mood", rec.Mood, "tracks", len(rec.Tracks))
	}

	return &rec, nil
}

// profilePrompt renders the listener profile for inclusion in a user
// prompt. Empty when the user has no survey on record.
func profilePrompt(profile domain.Profile) string {
	if !profile.HasSurvey {
		return ""
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("\n[Listener profile]\n%s\n", string(data))
}
