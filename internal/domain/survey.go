package domain

import (
	"time"

	"github.com/echomapapp/echomap-server/internal/errors"
)

// Survey captures a user's one-time taste questionnaire. The answers
// feed the recommendation prompts as a listener profile.
type Survey struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	// Novelty is how adventurous the listener wants recommendations
	// to be, on a 1-5 scale.
	Novelty int `json:"novelty"`
	// YearCategory is the preferred release era, e.g. "2020s" or "old".
	YearCategory    string   `json:"yearCategory"`
	Genres          []string `json:"genres"`
	FavoriteArtists []string `json:"favoriteArtists"`

	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the fields required for a write.
func (s *Survey) Validate() error {
	if s.UserID == "" {
		return errors.MissingField("userId")
	}
	if s.Novelty == 0 {
		return errors.MissingField("novelty")
	}
	if s.YearCategory == "" {
		return errors.MissingField("yearCategory")
	}
	if len(s.Genres) == 0 {
		return errors.MissingField("genres")
	}
	if len(s.FavoriteArtists) == 0 {
		return errors.MissingField("favorite_artists")
	}
	return nil
}

// Profile is the survey flattened into prompt-ready fields, with
// zero values where the user has not answered yet.
type Profile struct {
	UserID          string   `json:"user_id"`
	DisplayName     string   `json:"display_name,omitempty"`
	HasSurvey       bool     `json:"has_survey"`
	Novelty         int      `json:"novelty_score,omitempty"`
	YearCategory    string   `json:"preferred_year_category,omitempty"`
	Genres          []string `json:"favorite_genres"`
	FavoriteArtists []string `json:"favorite_artists"`
}

// BuildProfile merges a user record and their latest survey into a
// Profile. Either argument may be nil.
func BuildProfile(user *User, survey *Survey) Profile {
	p := Profile{
		Genres:          []string{},
		FavoriteArtists: []string{},
	}
	if user != nil {
		p.UserID = user.ID
		p.DisplayName = user.DisplayName
		p.HasSurvey = user.HasSurvey
	}
	if survey != nil {
		if p.UserID == "" {
			p.UserID = survey.UserID
		}
		p.HasSurvey = true
		p.Novelty = survey.Novelty
		p.YearCategory = survey.YearCategory
		if len(survey.Genres) > 0 {
			p.Genres = survey.Genres
		}
		if len(survey.FavoriteArtists) > 0 {
			p.FavoriteArtists = survey.FavoriteArtists
		}
	}
	return p
}
