// Package di provides dependency injection configuration for the EchoMap server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/echomapapp/echomap-server/internal/config"
	"github.com/echomapapp/echomap-server/internal/di/providers"
	"github.com/echomapapp/echomap-server/internal/logger"
	"github.com/echomapapp/echomap-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)

	// External clients
	do.Provide(injector, providers.ProvideSpotifyClient)
	do.Provide(injector, providers.ProvideWeatherClient)
	do.Provide(injector, providers.ProvideLLMClient)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvidePlayLogService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideLiveService)
	do.Provide(injector, providers.ProvideSurveyService)
	do.Provide(injector, providers.ProvideRecommendService)
	do.Provide(injector, providers.ProvideChartService)

	// Workers
	do.Provide(injector, providers.ProvideBackupWorker)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)

	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.PlayLogService](injector)
	_ = do.MustInvoke[*service.StatsService](injector)
	_ = do.MustInvoke[*service.LiveService](injector)
	_ = do.MustInvoke[*service.SurveyService](injector)
	_ = do.MustInvoke[*service.RecommendService](injector)
	_ = do.MustInvoke[*service.ChartService](injector)

	_ = do.MustInvoke[*providers.BackupWorkerHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
