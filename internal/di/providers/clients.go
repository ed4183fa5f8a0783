package providers

import (
	"github.com/samber/do/v2"

	"github.com/echomapapp/echomap-server/internal/config"
	"github.com/echomapapp/echomap-server/internal/llm"
	"github.com/echomapapp/echomap-server/internal/logger"
	"github.com/echomapapp/echomap-server/internal/spotify"
	"github.com/echomapapp/echomap-server/internal/weather"
)

// ProvideSpotifyClient provides the Spotify API client.
func ProvideSpotifyClient(i do.Injector) (*spotify.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Spotify.ClientID == "" {
		log.Warn("Spotify credentials not configured, catalog and login will fail")
	}

	return spotify.NewClient(cfg.Spotify, log.Logger), nil
}

// ProvideWeatherClient provides the OpenWeatherMap client.
func ProvideWeatherClient(i do.Injector) (*weather.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Weather.APIKey == "" {
		log.Warn("OpenWeatherMap API key not configured, server-side weather lookups will fail")
	}

	return weather.NewClient(cfg.Weather.APIKey, log.Logger), nil
}

// ProvideLLMClient provides the OpenAI recommendation client.
func ProvideLLMClient(i do.Injector) (*llm.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.OpenAI.APIKey == "" {
		log.Warn("OpenAI API key not configured, recommendations will fail")
	}

	return llm.NewClient(cfg.OpenAI, log.Logger), nil
}
