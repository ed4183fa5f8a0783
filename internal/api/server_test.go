package api

import (
	"context"
	"encoding/json/v2"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/echomapapp/echomap-server/internal/domain"
	"github.com/echomapapp/echomap-server/internal/llm"
	"github.com/echomapapp/echomap-server/internal/service"
	"github.com/echomapapp/echomap-server/internal/spotify"
	"github.com/echomapapp/echomap-server/internal/store"
	"github.com/echomapapp/echomap-server/internal/weather"
)

// Fakes for the external collaborators so handler tests never touch
// the network.

type stubAuth struct{}

func (stubAuth) AuthURL(state string) string {
	return "https://accounts.spotify.com/authorize?state=" + state
}

func (stubAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if code == "bad-code" {
		return nil, errors.New("invalid grant")
	}
	return &oauth2.Token{AccessToken: "access-abc", RefreshToken: "refresh-abc", Expiry: time.Now().Add(time.Hour)}, nil
}

func (stubAuth) Profile(_ context.Context, _ *oauth2.Token) (*spotify.UserProfile, error) {
	return &spotify.UserProfile{ID: "spotify-user-1", DisplayName: "Mina"}, nil
}

type stubPlayer struct {
	now *spotify.NowPlaying
}

func (p *stubPlayer) CurrentlyPlaying(_ context.Context, _ string) (*spotify.NowPlaying, error) {
	if p.now == nil {
		return &spotify.NowPlaying{Playing: false}, nil
	}
	return p.now, nil
}

type stubCatalog struct{}

func (stubCatalog) SearchTrack(_ context.Context, title, _ string) (*spotify.Track, error) {
	return &spotify.Track{ID: "cat-" + title, Title: title, Artist: "artist"}, nil
}

type stubWeather struct{}

func (stubWeather) Current(_ context.Context, _, _ float64) (*weather.Conditions, error) {
	return &weather.Conditions{Temp: 18, Description: "맑음"}, nil
}

func (stubWeather) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	return "서울", nil
}

type stubRecommender struct{}

func (stubRecommender) RecommendForWeather(_ context.Context, _ llm.WeatherInput, _ domain.Profile) ([]domain.RecommendedTrack, error) {
	return []domain.RecommendedTrack{{Title: "Sunny Song", Artist: "artist", Reason: "맑은 날"}}, nil
}

func (stubRecommender) RecommendForChat(_ context.Context, _ []llm.ChatMessage, _ domain.Profile) (string, []domain.RecommendedTrack, error) {
	return "차분함", []domain.RecommendedTrack{{Title: "Calm Song", Artist: "artist"}}, nil
}

type stubChart struct {
	err error
}

func (c *stubChart) TopChart(_ context.Context) ([]spotify.ChartEntry, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []spotify.ChartEntry{{Rank: 1, Title: "First", Artist: "A", ID: "t1"}}, nil
}

type testServer struct {
	*Server
	store  *store.Store
	player *stubPlayer
	chart  *stubChart
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "echomap-api-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
		os.RemoveAll(tmpDir)
	})

	logger := slog.New(slog.DiscardHandler)
	player := &stubPlayer{}
	chart := &stubChart{}

	surveys := service.NewSurveyService(s, logger)
	server := NewServer(
		s,
		service.NewAuthService(s, stubAuth{}, "http://localhost:5173", logger),
		service.NewPlayLogService(s, logger),
		service.NewStatsService(s, logger),
		service.NewLiveService(s, player, logger),
		surveys,
		service.NewRecommendService(s, surveys, stubCatalog{}, stubWeather{}, stubRecommender{}, logger),
		service.NewChartService(chart, logger),
		logger,
	)

	return &testServer{Server: server, store: s, player: player, chart: chart}
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "echomap-server", body.Service)
}

func TestLoginRedirectsToSpotify(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/login", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "accounts.spotify.com/authorize")
}

func TestCallbackRedirectsToFrontend(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/callback?code=good-code", "")
	require.Equal(t, http.StatusFound, rec.Code)

	loc := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "http://localhost:5173/app?"))
	assert.Contains(t, loc, "access_token=access-abc")
	assert.Contains(t, loc, "user_id=spotify-user-1")
}

func TestCallbackMissingCode(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/callback", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing_field", body.Error)
}

func TestCallbackDeniedBySpotify(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/callback?error=access_denied", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCallbackUpstreamFailure(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/callback?code=bad-code", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRecordPlayLog(t *testing.T) {
	ts := newTestServer(t)

	body := `{
		"userId": "user-1",
		"trackId": "spotify:track:abc",
		"title": "Midnight City",
		"artist": "M83",
		"playedAt": "2026-08-30T12:00:00Z",
		"loc": {"lat": 37.5665, "lng": 126.978}
	}`
	rec := ts.do(t, http.MethodPost, "/api/playlog", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[RecordPlayLogResponse](t, rec)
	assert.True(t, resp.Ok)
	require.NotNil(t, resp.Log)
	assert.Equal(t, "spotify:track:abc", resp.Log.TrackID)
	assert.Equal(t, domain.ChannelPopular, resp.Log.Channel)
}

func TestRecordPlayLogMissingTrack(t *testing.T) {
	ts := newTestServer(t)

	body := `{"playedAt": "2026-08-30T12:00:00Z", "loc": {"lat": 1, "lng": 2}}`
	rec := ts.do(t, http.MethodPost, "/api/playlog", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errBody struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "missing_field", errBody.Error)
}

func TestRecordPlayLogMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/playlog", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlayLogHistory(t *testing.T) {
	ts := newTestServer(t)

	for _, track := range []string{"t1", "t2"} {
		body := `{
			"userId": "user-1",
			"trackId": "` + track + `",
			"playedAt": "2026-08-30T12:00:00Z",
			"loc": {"lat": 1, "lng": 2}
		}`
		rec := ts.do(t, http.MethodPost, "/api/playlog", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/api/playlog?userId=user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[PlayLogHistoryResponse](t, rec)
	assert.Equal(t, 2, resp.Total)
}

func TestPopularStatsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for range 2 {
		body := `{
			"trackId": "hit-track",
			"title": "Hit",
			"playedAt": "` + time.Now().UTC().Format(time.RFC3339) + `",
			"loc": {"lat": 37.5665, "lng": 126.978}
		}`
		rec := ts.do(t, http.MethodPost, "/api/playlog", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/api/stats/popular?lat=37.5665&lng=126.978&radius_km=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[service.PopularNearResponse](t, rec)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "hit-track", resp.Items[0].TrackID)
	assert.Equal(t, 2, resp.Items[0].Count)
}

func TestPopularStatsRequiresCoords(t *testing.T) {
	ts := newTestServer(t)

	tests := []string{
		"/api/stats/popular",
		"/api/stats/popular?lat=37.5",
		"/api/stats/popular?lat=abc&lng=127",
	}

	for _, target := range tests {
		rec := ts.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		var body struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid_coordinates", body.Error, target)
	}
}

func TestCurrentlyPlayingNothingPlaying(t *testing.T) {
	ts := newTestServer(t)

	body := `{"accessToken": "token", "userId": "user-1", "lat": 37.5, "lng": 127.0}`
	rec := ts.do(t, http.MethodPost, "/currently-playing", body)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[service.CaptureNowResponse](t, rec)
	assert.False(t, resp.Ok)
	assert.Equal(t, "nothing playing", resp.Message)
}

func TestCurrentlyPlayingLogsPopularEvent(t *testing.T) {
	ts := newTestServer(t)
	ts.player.now = &spotify.NowPlaying{
		Playing: true,
		Track:   &spotify.Track{URI: "spotify:track:xyz", Title: "Now Song", Artist: "Artist"},
	}

	body := `{"accessToken": "token", "userId": "user-1", "lat": 37.5665, "lng": 126.978}`
	rec := ts.do(t, http.MethodPost, "/currently-playing", body)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[service.CaptureNowResponse](t, rec)
	assert.True(t, resp.Ok)
	require.NotNil(t, resp.Log)
	assert.Equal(t, domain.ChannelPopular, resp.Log.Channel)
}

func TestCurrentlyPlayingViaQueryParams(t *testing.T) {
	ts := newTestServer(t)
	ts.player.now = &spotify.NowPlaying{
		Playing: true,
		Track:   &spotify.Track{URI: "spotify:track:xyz", Title: "Now Song"},
	}

	rec := ts.do(t, http.MethodGet, "/currently-playing?accessToken=token&lat=37.5&lng=127.0", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[service.CaptureNowResponse](t, rec)
	assert.True(t, resp.Ok)
}

func TestLiveNowAndNearbyFeed(t *testing.T) {
	ts := newTestServer(t)
	ts.player.now = &spotify.NowPlaying{
		Playing: true,
		Track:   &spotify.Track{URI: "spotify:track:live", Title: "Live Song", Artist: "Artist"},
	}

	body := `{"accessToken": "token", "userId": "user-1", "userName": "Mina", "lat": 37.5665, "lng": 126.978}`
	rec := ts.do(t, http.MethodPost, "/live/now", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/now/nearby?lat=37.5665&lng=126.978", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[service.LiveNearResponse](t, rec)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "user-1", resp.Items[0].UserID)
	assert.Equal(t, "Live Song", resp.Items[0].Title)

	// Live beacons stay out of the popular aggregation.
	rec = ts.do(t, http.MethodGet, "/api/stats/popular?lat=37.5665&lng=126.978", "")
	require.Equal(t, http.StatusOK, rec.Code)
	popular := decodeBody[service.PopularNearResponse](t, rec)
	assert.Empty(t, popular.Items)
}

func TestSubmitSurveyEndpoint(t *testing.T) {
	ts := newTestServer(t)

	body := `{
		"userId": "user-1",
		"novelty": 4,
		"yearCategory": "2010s",
		"genres": ["indie"],
		"favoriteArtists": ["M83"]
	}`
	rec := ts.do(t, http.MethodPost, "/api/survey", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[SubmitSurveyResponse](t, rec)
	assert.True(t, resp.Ok)
	assert.NotEmpty(t, resp.Survey.ID)

	user, err := ts.store.Users.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, user.HasSurvey)
}

func TestChartEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/chart/top50", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[service.ChartResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
}

func TestChartEndpointUpstreamFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.chart.err = errors.New("chart token rejected")

	rec := ts.do(t, http.MethodGet, "/api/chart/top50", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWeatherRecommendEndpoint(t *testing.T) {
	ts := newTestServer(t)

	body := `{"weather": {"temp": 14.5, "description": "비"}, "place": "서울"}`
	rec := ts.do(t, http.MethodPost, "/api/weather-recommend", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[service.WeatherRecommendResponse](t, rec)
	assert.True(t, resp.Ok)
	require.Len(t, resp.Tracks, 1)
	assert.Equal(t, "cat-Sunny Song", resp.Tracks[0].TrackID)
}

func TestWeatherRecommendWithCoords(t *testing.T) {
	ts := newTestServer(t)

	body := `{"lat": 37.5665, "lng": 126.978}`
	rec := ts.do(t, http.MethodPost, "/api/weather-recommend", body)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[service.WeatherRecommendResponse](t, rec)
	assert.Equal(t, "서울", resp.Place)
	assert.InDelta(t, 18, resp.Weather.Temp, 1e-9)
}

func TestChatEndpoint(t *testing.T) {
	ts := newTestServer(t)

	body := `{"userId": "user-1", "messages": [{"role": "user", "content": "차분한 노래 추천해줘"}]}`
	rec := ts.do(t, http.MethodPost, "/api/chat", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[service.ChatResponse](t, rec)
	assert.Equal(t, "차분함", resp.Mood)
	assert.Contains(t, resp.Reply, "Calm Song")
	require.Len(t, resp.Tracks, 1)

	logs, err := ts.store.GetChatLogsForUser(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestChatRequiresMessages(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/chat", `{"userId": "user-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
