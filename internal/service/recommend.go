package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/echomapapp/echomap-server/internal/domain"
	apperrors "github.com/echomapapp/echomap-server/internal/errors"
	"github.com/echomapapp/echomap-server/internal/id"
	"github.com/echomapapp/echomap-server/internal/llm"
	"github.com/echomapapp/echomap-server/internal/spotify"
	"github.com/echomapapp/echomap-server/internal/store"
	"github.com/echomapapp/echomap-server/internal/weather"
)

// Candidates kept after catalog validation before the search loop
// stops, and the similarity floor a catalog hit must clear.
const (
	minValidatedTracks = 4
	titleSimilarityMin = 0.8
)

// CatalogSearcher looks up tracks in the music catalog.
type CatalogSearcher interface {
	SearchTrack(ctx context.Context, title, artist string) (*spotify.Track, error)
}

// Recommender produces track candidates from a prompt context.
type Recommender interface {
	RecommendForWeather(ctx context.Context, input llm.WeatherInput, profile domain.Profile) ([]domain.RecommendedTrack, error)
	RecommendForChat(ctx context.Context, messages []llm.ChatMessage, profile domain.Profile) (string, []domain.RecommendedTrack, error)
}

// WeatherProvider resolves current conditions and place names.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lng float64) (*weather.Conditions, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// RecommendService turns weather or chat mood into validated track
// recommendations.
type RecommendService struct {
	store   *store.Store
	surveys *SurveyService
	catalog CatalogSearcher
	weather WeatherProvider
	llm     Recommender
	logger  *slog.Logger
}

// NewRecommendService creates a new recommendation service.
func NewRecommendService(
	store *store.Store,
	surveys *SurveyService,
	catalog CatalogSearcher,
	weatherProvider WeatherProvider,
	recommender Recommender,
	logger *slog.Logger,
) *RecommendService {
	return &RecommendService{
		store:   store,
		surveys: surveys,
		catalog: catalog,
		weather: weatherProvider,
		llm:     recommender,
		logger:  logger,
	}
}

// WeatherPayload is a client-supplied weather snapshot.
type WeatherPayload struct {
	Temp        float64 `json:"temp"`
	Wind        float64 `json:"wind"`
	Clouds      float64 `json:"clouds"`
	Precip      float64 `json:"precip"`
	Description string  `json:"description"`
}

// WeatherRecommendRequest asks for tracks matching the weather. The
// client either supplies the snapshot it already fetched or just
// coordinates for a server-side lookup.
type WeatherRecommendRequest struct {
	Weather *WeatherPayload `json:"weather"`
	Place   string          `json:"place"`
	UserID  string          `json:"userId"`
	Lat     *float64        `json:"lat"`
	Lng     *float64        `json:"lng"`
}

// WeatherRecommendResponse carries the validated recommendations.
type WeatherRecommendResponse struct {
	Ok      bool                      `json:"ok"`
	Place   string                    `json:"place,omitempty"`
	Weather WeatherPayload            `json:"weather"`
	Tracks  []domain.RecommendedTrack `json:"tracks"`
}

// WeatherRecommend resolves the weather context, asks the model for
// candidates, and keeps only tracks the catalog confirms.
func (s *RecommendService) WeatherRecommend(ctx context.Context, req WeatherRecommendRequest) (*WeatherRecommendResponse, error) {
	snapshot, place, err := s.resolveWeather(ctx, req)
	if err != nil {
		return nil, err
	}

	profile, err := s.surveys.Profile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	input := llm.WeatherInput{
		Temp:        snapshot.Temp,
		Wind:        snapshot.Wind,
		Clouds:      snapshot.Clouds,
		Precip:      snapshot.Precip,
		Description: snapshot.Description,
		Place:       place,
	}

	candidates, err := s.llm.RecommendForWeather(ctx, input, profile)
	if err != nil {
		return nil, apperrors.Upstream("openai", err)
	}

	tracks := s.validateCandidates(ctx, candidates)

	return &WeatherRecommendResponse{
		Ok:      true,
		Place:   place,
		Weather: *snapshot,
		Tracks:  tracks,
	}, nil
}

// resolveWeather uses the client's snapshot when present, otherwise
// fetches conditions for the supplied coordinates.
func (s *RecommendService) resolveWeather(ctx context.Context, req WeatherRecommendRequest) (*WeatherPayload, string, error) {
	if req.Weather != nil {
		return req.Weather, req.Place, nil
	}

	if req.Lat == nil || req.Lng == nil {
		return nil, "", apperrors.MissingField("weather")
	}

	cond, err := s.weather.Current(ctx, *req.Lat, *req.Lng)
	if err != nil {
		return nil, "", apperrors.Upstream("openweathermap", err)
	}

	place := req.Place
	if place == "" {
		name, err := s.weather.ReverseGeocode(ctx, *req.Lat, *req.Lng)
		if err != nil {
			// The place name is decoration - recommend without it.
			if s.logger != nil {
				s.logger.Warn("reverse geocode failed", "error", err)
			}
		} else {
			place = name
		}
	}

	return &WeatherPayload{
		Temp:        cond.Temp,
		Wind:        cond.Wind,
		Clouds:      cond.Clouds,
		Precip:      cond.Precip,
		Description: cond.Description,
	}, place, nil
}

// validateCandidates keeps candidates the catalog confirms: the best
// search hit must carry a title close enough to the model's claim.
// Collection stops once enough tracks validate.
func (s *RecommendService) validateCandidates(ctx context.Context, candidates []domain.RecommendedTrack) []domain.RecommendedTrack {
	validated := make([]domain.RecommendedTrack, 0, minValidatedTracks)

	for _, c := range candidates {
		if c.Title == "" {
			continue
		}

		hit, err := s.catalog.SearchTrack(ctx, c.Title, c.Artist)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("catalog search failed", "title", c.Title, "error", err)
			}
			continue
		}
		if hit == nil {
			continue
		}

		ratio := titleSimilarity(normalizeTitle(c.Title), normalizeTitle(hit.Title))
		if ratio < titleSimilarityMin {
			if s.logger != nil {
				s.logger.Debug("catalog title mismatch",
					"claimed", c.Title, "found", hit.Title, "ratio", ratio)
			}
			continue
		}

		c.Title = hit.Title
		c.Artist = hit.Artist
		c.TrackID = hit.ID
		c.AlbumArt = hit.AlbumArt
		c.PreviewURL = hit.PreviewURL
		validated = append(validated, c)

		if len(validated) >= minValidatedTracks {
			break
		}
	}

	return validated
}

// ChatRequest is one turn of the recommendation chat.
type ChatRequest struct {
	UserID   string            `json:"userId"`
	Messages []llm.ChatMessage `json:"messages" validate:"required,min=1"`
}

// ChatResponse is the assistant reply plus the tracks behind it.
type ChatResponse struct {
	Reply  string                    `json:"reply"`
	Mood   string                    `json:"mood,omitempty"`
	Tracks []domain.RecommendedTrack `json:"tracks"`
}

// Chat reads the mood from the conversation, recommends validated
// tracks for it, and persists the exchange for logged-in users.
func (s *RecommendService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	profile, err := s.surveys.Profile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	mood, candidates, err := s.llm.RecommendForChat(ctx, req.Messages, profile)
	if err != nil {
		return nil, apperrors.Upstream("openai", err)
	}

	tracks := s.validateCandidates(ctx, candidates)
	reply := buildChatReply(mood, tracks)

	if req.UserID != "" {
		if err := s.persistChatLog(ctx, req, reply, mood); err != nil && s.logger != nil {
			// History is best effort - the reply still goes out.
			s.logger.Warn("persist chat log failed", "error", err)
		}
	}

	return &ChatResponse{
		Reply:  reply,
		Mood:   mood,
		Tracks: tracks,
	}, nil
}

// buildChatReply renders the assistant reply text from the validated
// tracks.
func buildChatReply(mood string, tracks []domain.RecommendedTrack) string {
	if len(tracks) == 0 {
		return "지금 분위기에 맞는 곡을 찾지 못했어요. 조금 더 이야기해 줄래요?"
	}

	var b strings.Builder
	if mood != "" {
		fmt.Fprintf(&b, "지금 분위기는 '%s' 같네요. 이런 곡들 어때요?\n", mood)
	} else {
		b.WriteString("이런 곡들 어때요?\n")
	}

	for _, t := range tracks {
		fmt.Fprintf(&b, "- %s / %s", t.Title, t.Artist)
		if t.Reason != "" {
			fmt.Fprintf(&b, ": %s", t.Reason)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *RecommendService) persistChatLog(ctx context.Context, req ChatRequest, reply, mood string) error {
	chatID, err := id.Generate("chat")
	if err != nil {
		return fmt.Errorf("generate chat ID: %w", err)
	}

	// Log the newest user turn, not the whole transcript.
	message := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			message = req.Messages[i].Content
			break
		}
	}

	return s.store.CreateChatLog(ctx, &domain.ChatLog{
		ID:        chatID,
		UserID:    req.UserID,
		Message:   message,
		Reply:     reply,
		Mood:      mood,
		CreatedAt: time.Now().UTC(),
	})
}
