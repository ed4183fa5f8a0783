// Package backup writes periodic snapshots of the embedded database
// so a corrupted data directory is recoverable.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/echomapapp/echomap-server/internal/store"
)

const (
	defaultInterval = 24 * time.Hour
	defaultKeep     = 7

	backupExt = ".echomap.bak"
)

// Service creates and prunes database snapshots.
type Service struct {
	store    *store.Store
	dir      string
	interval time.Duration
	keep     int
	logger   *slog.Logger
}

// NewService creates a backup service writing snapshots under dir.
func NewService(s *store.Store, dir string, logger *slog.Logger) *Service {
	return &Service{
		store:    s,
		dir:      dir,
		interval: defaultInterval,
		keep:     defaultKeep,
		logger:   logger,
	}
}

// Result describes a completed snapshot.
type Result struct {
	Path     string
	Size     int64
	Version  uint64
	Duration time.Duration
}

// Create writes one full snapshot and prunes old ones.
func (s *Service) Create(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	start := time.Now()
	path := filepath.Join(s.dir, "backup-"+start.UTC().Format("2006-01-02-150405")+backupExt)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}

	version, err := s.store.Backup(f)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("stream backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close backup file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}

	if err := s.prune(); err != nil && s.logger != nil {
		s.logger.Warn("Failed to prune old backups", "error", err)
	}

	result := &Result{
		Path:     path,
		Size:     info.Size(),
		Version:  version,
		Duration: time.Since(start),
	}

	if s.logger != nil {
		s.logger.Info("Backup complete",
			"path", result.Path,
			"size", result.Size,
			"duration", result.Duration,
		)
	}
	return result, nil
}

// List returns existing snapshot paths, oldest first.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), backupExt) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, e.Name()))
	}

	// Timestamped names sort chronologically.
	sort.Strings(paths)
	return paths, nil
}

// prune removes all but the newest keep snapshots.
func (s *Service) prune() error {
	paths, err := s.List()
	if err != nil {
		return err
	}

	for len(paths) > s.keep {
		if err := os.Remove(paths[0]); err != nil {
			return fmt.Errorf("remove old backup: %w", err)
		}
		paths = paths[1:]
	}
	return nil
}

// Run takes a snapshot on every interval tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Create(ctx); err != nil && s.logger != nil {
				s.logger.Error("Scheduled backup failed", "error", err)
			}
		}
	}
}
