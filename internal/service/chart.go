package service

import (
	"context"
	"log/slog"

	apperrors "github.com/echomapapp/echomap-server/internal/errors"
	"github.com/echomapapp/echomap-server/internal/spotify"
)

// ChartSource fetches the regional daily chart.
type ChartSource interface {
	TopChart(ctx context.Context) ([]spotify.ChartEntry, error)
}

// ChartService proxies the regional top-50 chart.
type ChartService struct {
	source ChartSource
	logger *slog.Logger
}

// NewChartService creates a new chart service.
func NewChartService(source ChartSource, logger *slog.Logger) *ChartService {
	return &ChartService{
		source: source,
		logger: logger,
	}
}

// ChartResponse is the shaped chart payload.
type ChartResponse struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Data    []spotify.ChartEntry `json:"data"`
}

// Top50 returns the Korean daily top-50 chart.
func (s *ChartService) Top50(ctx context.Context) (*ChartResponse, error) {
	entries, err := s.source.TopChart(ctx)
	if err != nil {
		return nil, apperrors.Upstream("spotify", err)
	}

	return &ChartResponse{
		Success: true,
		Count:   len(entries),
		Data:    entries,
	}, nil
}
