package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/echomapapp/echomap-server/internal/domain"
)

const (
	surveyPrefix       = "survey:"
	surveyByUserPrefix = "survey:idx:user:"
)

// ErrSurveyNotFound is returned when a user has no survey on record.
var ErrSurveyNotFound = ErrNotFound.WithMessage("survey not found")

// CreateSurvey stores a survey response and its user index atomically.
// A user may submit more than once - the newest response wins.
func (s *Store) CreateSurvey(ctx context.Context, survey *domain.Survey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := survey.Validate(); err != nil {
		return ErrInvalidInput.WithCause(err)
	}

	data, err := json.Marshal(survey)
	if err != nil {
		return fmt.Errorf("marshal survey: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(surveyPrefix+survey.ID), data); err != nil {
			return fmt.Errorf("set survey: %w", err)
		}

		// Index: by user, newest first
		userIdx := surveyByUserPrefix + survey.UserID + ":" + invertedTimeKey(survey.CreatedAt) + ":" + survey.ID
		if err := txn.Set([]byte(userIdx), []byte(survey.ID)); err != nil {
			return fmt.Errorf("set user index: %w", err)
		}

		return nil
	})
}

// LatestSurveyForUser retrieves the most recent survey for a user.
// Returns ErrSurveyNotFound if the user never answered.
func (s *Store) LatestSurveyForUser(ctx context.Context, userID string) (*domain.Survey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(surveyByUserPrefix + userID + ":")
	var survey domain.Survey
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// Inverted timestamps in the index key mean the first entry is
		// the newest response.
		it.Seek(prefix)
		if !it.ValidForPrefix(prefix) {
			return ErrSurveyNotFound
		}

		var id string
		if err := it.Item().Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		item, err := txn.Get([]byte(surveyPrefix + id))
		if err != nil {
			return ErrSurveyNotFound
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &survey); err != nil {
				return err
			}
			found = true
			return nil
		})
	})

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSurveyNotFound
	}
	return &survey, nil
}
