// Package api provides the HTTP API server and handlers for the EchoMap application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/echomapapp/echomap-server/internal/ratelimit"
	"github.com/echomapapp/echomap-server/internal/service"
	"github.com/echomapapp/echomap-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store            *store.Store
	authService      *service.AuthService
	playLogService   *service.PlayLogService
	statsService     *service.StatsService
	liveService      *service.LiveService
	surveyService    *service.SurveyService
	recommendService *service.RecommendService
	chartService     *service.ChartService
	recommendLimiter *ratelimit.KeyedRateLimiter
	router           *chi.Mux
	logger           *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	store *store.Store,
	authService *service.AuthService,
	playLogService *service.PlayLogService,
	statsService *service.StatsService,
	liveService *service.LiveService,
	surveyService *service.SurveyService,
	recommendService *service.RecommendService,
	chartService *service.ChartService,
	logger *slog.Logger,
) *Server {
	s := &Server{
		store:            store,
		authService:      authService,
		playLogService:   playLogService,
		statsService:     statsService,
		liveService:      liveService,
		surveyService:    surveyService,
		recommendService: recommendService,
		chartService:     chartService,
		recommendLimiter: newRecommendLimiter(),
		router:           chi.NewRouter(),
		logger:           logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// Spotify OAuth.
	s.router.Get("/login", s.handleLogin)
	s.router.Get("/callback", s.handleCallback)

	// Playback capture.
	s.router.Get("/currently-playing", s.handleCurrentlyPlayingQuery)
	s.router.Post("/currently-playing", s.handleCurrentlyPlaying)
	s.router.Post("/live/now", s.handleLiveNow)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/playlog", s.handleRecordPlayLog)
		r.Get("/playlog", s.handlePlayLogHistory)

		r.Get("/stats/popular", s.handlePopularNearby)
		r.Get("/now/nearby", s.handleLiveNearby)

		r.Post("/survey", s.handleSubmitSurvey)
		r.Get("/chart/top50", s.handleChartTop50)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitRecommend)
			r.Post("/weather-recommend", s.handleWeatherRecommend)
			r.Post("/chat", s.handleChat)
		})
	})
}
