package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/echomapapp/echomap-server/internal/domain"
)

const (
	playEventPrefix   = "evt:"
	eventByTimePrefix = "evt:idx:time:"
	eventByUserPrefix = "evt:idx:user:"
)

// Sentinel errors for play event operations.
var ErrEventNotFound = ErrNotFound.WithMessage("play event not found")

// timeKey encodes a timestamp so lexicographic key order matches
// chronological order.
func timeKey(t time.Time) string {
	return fmt.Sprintf("%020d", t.UnixNano())
}

// invertedTimeKey encodes a timestamp so newer events sort first.
func invertedTimeKey(t time.Time) string {
	return fmt.Sprintf("%020d", math.MaxInt64-t.UnixNano())
}

// CreatePlayEvent stores an event and its indexes atomically.
// Events are immutable - no Update method exists.
func (s *Store) CreatePlayEvent(ctx context.Context, event *domain.PlayEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return ErrInvalidInput.WithCause(err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		// Primary key
		if err := txn.Set([]byte(playEventPrefix+event.ID), data); err != nil {
			return fmt.Errorf("set event: %w", err)
		}

		// Index: by channel and play time, for windowed feed scans
		timeIdx := eventByTimePrefix + string(event.Channel) + ":" + timeKey(event.PlayedAt) + ":" + event.ID
		if err := txn.Set([]byte(timeIdx), []byte(event.ID)); err != nil {
			return fmt.Errorf("set time index: %w", err)
		}

		// Index: by user, newest first
		userIdx := eventByUserPrefix + event.UserID + ":" + invertedTimeKey(event.PlayedAt) + ":" + event.ID
		if err := txn.Set([]byte(userIdx), []byte(event.ID)); err != nil {
			return fmt.Errorf("set user index: %w", err)
		}

		return nil
	})
}

// GetPlayEvent retrieves an event by ID.
func (s *Store) GetPlayEvent(ctx context.Context, id string) (*domain.PlayEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var event domain.PlayEvent
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(playEventPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &event)
		})
	})

	if err != nil {
		return nil, err
	}
	return &event, nil
}

// EventsSince retrieves all events on a channel played at or after the
// given instant, oldest first. The lower bound is inclusive.
func (s *Store) EventsSince(ctx context.Context, channel domain.Channel, since time.Time) ([]*domain.PlayEvent, error) {
	prefix := eventByTimePrefix + string(channel) + ":"
	seek := prefix + timeKey(since)
	return s.getEventsByPrefix(ctx, prefix, seek)
}

// GetEventsForUser retrieves all events for a user, newest first.
func (s *Store) GetEventsForUser(ctx context.Context, userID string) ([]*domain.PlayEvent, error) {
	prefix := eventByUserPrefix + userID + ":"
	return s.getEventsByPrefix(ctx, prefix, prefix)
}

// getEventsByPrefix retrieves events from an index, seeking to seek and
// scanning to the end of prefix.
// Uses a single transaction to collect IDs and fetch all events (no N+1).
func (s *Store) getEventsByPrefix(ctx context.Context, prefix, seek string) ([]*domain.PlayEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []*domain.PlayEvent

	err := s.db.View(func(txn *badger.Txn) error {
		// First pass: collect event IDs from index
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		var eventIDs []string
		for it.Seek([]byte(seek)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				eventIDs = append(eventIDs, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}

		// Second pass: batch fetch all events in same transaction
		events = make([]*domain.PlayEvent, 0, len(eventIDs))
		for _, id := range eventIDs {
			item, err := txn.Get([]byte(playEventPrefix + id))
			if err != nil {
				continue // Skip missing events
			}

			var event domain.PlayEvent
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			}); err != nil {
				continue // Skip corrupt events
			}
			events = append(events, &event)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return events, nil
}
