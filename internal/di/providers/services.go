package providers

import (
	"github.com/samber/do/v2"

	"github.com/echomapapp/echomap-server/internal/config"
	"github.com/echomapapp/echomap-server/internal/llm"
	"github.com/echomapapp/echomap-server/internal/logger"
	"github.com/echomapapp/echomap-server/internal/service"
	"github.com/echomapapp/echomap-server/internal/spotify"
	"github.com/echomapapp/echomap-server/internal/weather"
)

// ProvideAuthService provides the Spotify OAuth service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	client := do.MustInvoke[*spotify.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, client, cfg.App.FrontendURL, log.Logger), nil
}

// ProvidePlayLogService provides the play log service.
func ProvidePlayLogService(i do.Injector) (*service.PlayLogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPlayLogService(storeHandle.Store, log.Logger), nil
}

// ProvideStatsService provides the popularity aggregation service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(storeHandle.Store, log.Logger), nil
}

// ProvideLiveService provides the live presence service.
func ProvideLiveService(i do.Injector) (*service.LiveService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	client := do.MustInvoke[*spotify.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLiveService(storeHandle.Store, client, log.Logger), nil
}

// ProvideSurveyService provides the taste survey service.
func ProvideSurveyService(i do.Injector) (*service.SurveyService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSurveyService(storeHandle.Store, log.Logger), nil
}

// ProvideRecommendService provides the recommendation service.
func ProvideRecommendService(i do.Injector) (*service.RecommendService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	surveys := do.MustInvoke[*service.SurveyService](i)
	client := do.MustInvoke[*spotify.Client](i)
	weatherClient := do.MustInvoke[*weather.Client](i)
	llmClient := do.MustInvoke[*llm.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecommendService(storeHandle.Store, surveys, client, weatherClient, llmClient, log.Logger), nil
}

// ProvideChartService provides the regional chart proxy service.
func ProvideChartService(i do.Injector) (*service.ChartService, error) {
	client := do.MustInvoke[*spotify.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewChartService(client, log.Logger), nil
}
