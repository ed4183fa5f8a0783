package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/echomapapp/echomap-server/internal/domain"
)

const (
	chatLogPrefix       = "chat:"
	chatLogByUserPrefix = "chat:idx:user:"
)

// CreateChatLog stores a chat exchange and its user index atomically.
func (s *Store) CreateChatLog(ctx context.Context, log *domain.ChatLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal chat log: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(chatLogPrefix+log.ID), data); err != nil {
			return fmt.Errorf("set chat log: %w", err)
		}

		// Index: by user, newest first
		userIdx := chatLogByUserPrefix + log.UserID + ":" + invertedTimeKey(log.CreatedAt) + ":" + log.ID
		if err := txn.Set([]byte(userIdx), []byte(log.ID)); err != nil {
			return fmt.Errorf("set user index: %w", err)
		}

		return nil
	})
}

// GetChatLogsForUser retrieves chat history for a user, newest first.
// A limit of 0 returns everything.
func (s *Store) GetChatLogsForUser(ctx context.Context, userID string, limit int) ([]*domain.ChatLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(chatLogByUserPrefix + userID + ":")
	var logs []*domain.ChatLog

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		var ids []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(ids) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}

		logs = make([]*domain.ChatLog, 0, len(ids))
		for _, id := range ids {
			item, err := txn.Get([]byte(chatLogPrefix + id))
			if err != nil {
				continue // Skip missing entries
			}

			var log domain.ChatLog
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &log)
			}); err != nil {
				continue
			}
			logs = append(logs, &log)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}
	return logs, nil
}
