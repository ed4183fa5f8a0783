package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/echomapapp/echomap-server/internal/domain"
	apperrors "github.com/echomapapp/echomap-server/internal/errors"
	"github.com/echomapapp/echomap-server/internal/id"
	"github.com/echomapapp/echomap-server/internal/store"
)

// SurveyService stores taste questionnaires and keeps the user's
// hasSurvey flag in sync.
type SurveyService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSurveyService creates a new survey service.
func NewSurveyService(store *store.Store, logger *slog.Logger) *SurveyService {
	return &SurveyService{
		store:  store,
		logger: logger,
	}
}

// SubmitSurveyRequest contains one questionnaire response.
type SubmitSurveyRequest struct {
	UserID          string   `json:"userId" validate:"required"`
	Novelty         int      `json:"novelty" validate:"required,min=1,max=5"`
	YearCategory    string   `json:"yearCategory" validate:"required"`
	Genres          []string `json:"genres" validate:"required,min=1"`
	FavoriteArtists []string `json:"favoriteArtists" validate:"required,min=1"`
}

// Submit stores the survey and marks the user as surveyed. Users
// without a login record yet get a minimal one so the flag has
// somewhere to live.
func (s *SurveyService) Submit(ctx context.Context, req SubmitSurveyRequest) (*domain.Survey, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	surveyID, err := id.Generate("svy")
	if err != nil {
		return nil, fmt.Errorf("generate survey ID: %w", err)
	}

	survey := &domain.Survey{
		ID:              surveyID,
		UserID:          req.UserID,
		Novelty:         req.Novelty,
		YearCategory:    req.YearCategory,
		Genres:          req.Genres,
		FavoriteArtists: req.FavoriteArtists,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.store.CreateSurvey(ctx, survey); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("store survey: %w", err))
	}

	if err := s.markSurveyed(ctx, req.UserID); err != nil {
		return nil, apperrors.Storage(err)
	}

	return survey, nil
}

func (s *SurveyService) markSurveyed(ctx context.Context, userID string) error {
	now := time.Now().UTC()

	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("get user: %w", err)
		}
		user = &domain.User{ID: userID, CreatedAt: now}
	}

	user.HasSurvey = true
	user.UpdatedAt = now

	if err := s.store.Users.Upsert(ctx, userID, user); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// Profile assembles the prompt-ready listener profile from the user
// record and their newest survey. Missing pieces degrade to defaults.
func (s *SurveyService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	if userID == "" {
		return domain.BuildProfile(nil, nil), nil
	}

	user, err := s.store.Users.Get(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.Profile{}, apperrors.QueryFailed(fmt.Errorf("get user: %w", err))
	}

	survey, err := s.store.LatestSurveyForUser(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrSurveyNotFound) {
		return domain.Profile{}, apperrors.QueryFailed(fmt.Errorf("get survey: %w", err))
	}

	return domain.BuildProfile(user, survey), nil
}
