package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echomapapp/echomap-server/internal/domain"
	apperrors "github.com/echomapapp/echomap-server/internal/errors"
	"github.com/echomapapp/echomap-server/internal/llm"
	"github.com/echomapapp/echomap-server/internal/spotify"
	"github.com/echomapapp/echomap-server/internal/weather"
)

type fakeCatalog struct {
	tracks map[string]*spotify.Track
	err    error
	calls  int
}

func (f *fakeCatalog) SearchTrack(_ context.Context, title, _ string) (*spotify.Track, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tracks[title], nil
}

type fakeRecommender struct {
	mood    string
	tracks  []domain.RecommendedTrack
	err     error
	profile domain.Profile
}

func (f *fakeRecommender) RecommendForWeather(_ context.Context, _ llm.WeatherInput, profile domain.Profile) ([]domain.RecommendedTrack, error) {
	f.profile = profile
	return f.tracks, f.err
}

func (f *fakeRecommender) RecommendForChat(_ context.Context, _ []llm.ChatMessage, profile domain.Profile) (string, []domain.RecommendedTrack, error) {
	f.profile = profile
	return f.mood, f.tracks, f.err
}

type fakeWeather struct {
	cond     *weather.Conditions
	place    string
	err      error
	geoErr   error
	requests int
}

func (f *fakeWeather) Current(_ context.Context, _, _ float64) (*weather.Conditions, error) {
	f.requests++
	return f.cond, f.err
}

func (f *fakeWeather) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	return f.place, f.geoErr
}

func catalogFor(titles ...string) *fakeCatalog {
	tracks := make(map[string]*spotify.Track, len(titles))
	for _, title := range titles {
		tracks[title] = &spotify.Track{
			ID:         "id-" + title,
			Title:      title,
			Artist:     "artist",
			AlbumArt:   "https://img/" + title,
			PreviewURL: "https://preview/" + title,
		}
	}
	return &fakeCatalog{tracks: tracks}
}

func candidates(titles ...string) []domain.RecommendedTrack {
	out := make([]domain.RecommendedTrack, 0, len(titles))
	for _, title := range titles {
		out = append(out, domain.RecommendedTrack{Title: title, Artist: "artist", Reason: "fits"})
	}
	return out
}

func newRecommendService(t *testing.T, catalog CatalogSearcher, w WeatherProvider, rec Recommender) (*RecommendService, func()) {
	t.Helper()
	s, cleanup := setupServiceStore(t)
	surveys := NewSurveyService(s, discardLogger())
	return NewRecommendService(s, surveys, catalog, w, rec, discardLogger()), cleanup
}

func TestWeatherRecommendWithClientSnapshot(t *testing.T) {
	rec := &fakeRecommender{tracks: candidates("Rainy Mood")}
	catalog := catalogFor("Rainy Mood")
	w := &fakeWeather{}

	svc, cleanup := newRecommendService(t, catalog, w, rec)
	defer cleanup()

	resp, err := svc.WeatherRecommend(context.Background(), WeatherRecommendRequest{
		Weather: &WeatherPayload{Temp: 14.5, Precip: 2.1, Description: "비"},
		Place:   "서울",
	})
	require.NoError(t, err)

	assert.True(t, resp.Ok)
	assert.Equal(t, "서울", resp.Place)
	assert.InDelta(t, 14.5, resp.Weather.Temp, 1e-9)
	require.Len(t, resp.Tracks, 1)
	assert.Equal(t, "id-Rainy Mood", resp.Tracks[0].TrackID)

	// The snapshot came from the client, no server-side lookup.
	assert.Equal(t, 0, w.requests)
}

func TestWeatherRecommendFetchesConditions(t *testing.T) {
	rec := &fakeRecommender{tracks: candidates("Sunny Song")}
	catalog := catalogFor("Sunny Song")
	w := &fakeWeather{
		cond:  &weather.Conditions{Temp: 28, Clouds: 10, Description: "맑음"},
		place: "부산",
	}

	svc, cleanup := newRecommendService(t, catalog, w, rec)
	defer cleanup()

	lat, lng := 35.1796, 129.0756
	resp, err := svc.WeatherRecommend(context.Background(), WeatherRecommendRequest{
		Lat: &lat, Lng: &lng,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, w.requests)
	assert.Equal(t, "부산", resp.Place)
	assert.InDelta(t, 28, resp.Weather.Temp, 1e-9)
}

func TestWeatherRecommendNeedsSnapshotOrCoords(t *testing.T) {
	svc, cleanup := newRecommendService(t, &fakeCatalog{}, &fakeWeather{}, &fakeRecommender{})
	defer cleanup()

	_, err := svc.WeatherRecommend(context.Background(), WeatherRecommendRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingField))
}

func TestWeatherRecommendGeocodeFailureIsNotFatal(t *testing.T) {
	rec := &fakeRecommender{tracks: candidates("Song")}
	w := &fakeWeather{
		cond:   &weather.Conditions{Temp: 20},
		geoErr: errors.New("geocoder down"),
	}

	svc, cleanup := newRecommendService(t, catalogFor("Song"), w, rec)
	defer cleanup()

	lat, lng := 37.0, 127.0
	resp, err := svc.WeatherRecommend(context.Background(), WeatherRecommendRequest{Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	assert.Empty(t, resp.Place)
	require.Len(t, resp.Tracks, 1)
}

func TestWeatherRecommendUpstreamErrors(t *testing.T) {
	t.Run("weather provider down", func(t *testing.T) {
		w := &fakeWeather{err: errors.New("timeout")}
		svc, cleanup := newRecommendService(t, &fakeCatalog{}, w, &fakeRecommender{})
		defer cleanup()

		lat, lng := 37.0, 127.0
		_, err := svc.WeatherRecommend(context.Background(), WeatherRecommendRequest{Lat: &lat, Lng: &lng})
		assert.True(t, errors.Is(err, apperrors.ErrUpstreamUnavailable))
	})

	t.Run("model down", func(t *testing.T) {
		rec := &fakeRecommender{err: errors.New("rate limited")}
		svc, cleanup := newRecommendService(t, &fakeCatalog{}, &fakeWeather{}, rec)
		defer cleanup()

		_, err := svc.WeatherRecommend(context.Background(), WeatherRecommendRequest{
			Weather: &WeatherPayload{Temp: 10},
		})
		assert.True(t, errors.Is(err, apperrors.ErrUpstreamUnavailable))
	})
}

func TestValidateCandidatesFiltersAndStops(t *testing.T) {
	// Six claimed tracks: one hallucinated, one renamed beyond the
	// similarity floor, the rest real. Validation keeps four and stops.
	catalog := &fakeCatalog{tracks: map[string]*spotify.Track{
		"Real One":    {ID: "1", Title: "Real One"},
		"Close Match": {ID: "2", Title: "Close Match!"},
		"Renamed":     {ID: "3", Title: "Something Entirely Different"},
		"Real Two":    {ID: "4", Title: "Real Two"},
		"Real Three":  {ID: "5", Title: "Real Three"},
		"Real Four":   {ID: "6", Title: "Real Four"},
	}}
	rec := &fakeRecommender{tracks: candidates(
		"Ghost Track", "Real One", "Renamed", "Close Match", "Real Two", "Real Three", "Real Four",
	)}

	svc, cleanup := newRecommendService(t, catalog, &fakeWeather{}, rec)
	defer cleanup()

	resp, err := svc.WeatherRecommend(context.Background(), WeatherRecommendRequest{
		Weather: &WeatherPayload{Temp: 10},
	})
	require.NoError(t, err)

	require.Len(t, resp.Tracks, 4)
	titles := make([]string, 0, 4)
	for _, tr := range resp.Tracks {
		titles = append(titles, tr.Title)
	}
	assert.Equal(t, []string{"Real One", "Close Match!", "Real Two", "Real Three"}, titles)
	// Collection stopped before reaching the last candidate.
	assert.Less(t, catalog.calls, 7)
}

func TestValidateCandidatesSurvivesSearchErrors(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("search down")}
	rec := &fakeRecommender{tracks: candidates("A", "B")}

	svc, cleanup := newRecommendService(t, catalog, &fakeWeather{}, rec)
	defer cleanup()

	resp, err := svc.WeatherRecommend(context.Background(), WeatherRecommendRequest{
		Weather: &WeatherPayload{Temp: 10},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Tracks)
}

func TestChatRepliesWithTracks(t *testing.T) {
	rec := &fakeRecommender{
		mood:   "쓸쓸함",
		tracks: candidates("Night Drive"),
	}

	svc, cleanup := newRecommendService(t, catalogFor("Night Drive"), &fakeWeather{}, rec)
	defer cleanup()

	resp, err := svc.Chat(context.Background(), ChatRequest{
		Messages: []llm.ChatMessage{{Role: "user", Content: "밤에 혼자 듣기 좋은 노래 추천해줘"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "쓸쓸함", resp.Mood)
	assert.Contains(t, resp.Reply, "쓸쓸함")
	assert.Contains(t, resp.Reply, "Night Drive / artist")
	require.Len(t, resp.Tracks, 1)
}

func TestChatFallbackWhenNothingValidates(t *testing.T) {
	rec := &fakeRecommender{mood: "신남", tracks: candidates("Hallucinated")}

	svc, cleanup := newRecommendService(t, &fakeCatalog{}, &fakeWeather{}, rec)
	defer cleanup()

	resp, err := svc.Chat(context.Background(), ChatRequest{
		Messages: []llm.ChatMessage{{Role: "user", Content: "추천해줘"}},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Tracks)
	assert.True(t, strings.Contains(resp.Reply, "찾지 못했어요"))
}

func TestChatRequiresMessages(t *testing.T) {
	svc, cleanup := newRecommendService(t, &fakeCatalog{}, &fakeWeather{}, &fakeRecommender{})
	defer cleanup()

	_, err := svc.Chat(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingField))
}

func TestChatPersistsLogForKnownUser(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	surveys := NewSurveyService(s, discardLogger())
	rec := &fakeRecommender{mood: "차분함", tracks: candidates("Calm Song")}
	svc := NewRecommendService(s, surveys, catalogFor("Calm Song"), &fakeWeather{}, rec, discardLogger())

	_, err := svc.Chat(context.Background(), ChatRequest{
		UserID: "user-1",
		Messages: []llm.ChatMessage{
			{Role: "assistant", Content: "어떤 기분이세요?"},
			{Role: "user", Content: "차분한 노래"},
		},
	})
	require.NoError(t, err)

	logs, err := s.GetChatLogsForUser(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "차분한 노래", logs[0].Message)
	assert.Equal(t, "차분함", logs[0].Mood)
	assert.NotEmpty(t, logs[0].Reply)
}

func TestChatAnonymousUserNotPersisted(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	surveys := NewSurveyService(s, discardLogger())
	rec := &fakeRecommender{mood: "m", tracks: nil}
	svc := NewRecommendService(s, surveys, &fakeCatalog{}, &fakeWeather{}, rec, discardLogger())

	_, err := svc.Chat(context.Background(), ChatRequest{
		Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	logs, err := s.GetChatLogsForUser(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestRecommendUsesSurveyProfile(t *testing.T) {
	s, cleanup := setupServiceStore(t)
	defer cleanup()

	surveys := NewSurveyService(s, discardLogger())
	_, err := surveys.Submit(context.Background(), SubmitSurveyRequest{
		UserID:          "user-1",
		Novelty:         5,
		YearCategory:    "2020s",
		Genres:          []string{"citypop"},
		FavoriteArtists: []string{"유키카"},
	})
	require.NoError(t, err)

	rec := &fakeRecommender{}
	svc := NewRecommendService(s, surveys, &fakeCatalog{}, &fakeWeather{}, rec, discardLogger())

	_, err = svc.WeatherRecommend(context.Background(), WeatherRecommendRequest{
		Weather: &WeatherPayload{Temp: 10},
		UserID:  "user-1",
	})
	require.NoError(t, err)
	assert.True(t, rec.profile.HasSurvey)
	assert.Equal(t, []string{"citypop"}, rec.profile.Genres)
}
