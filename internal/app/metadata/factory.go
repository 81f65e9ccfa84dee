package metadata

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/ykarpov/tunebox/internal/infra/config"
)

// NewChainFromConfig creates a provider chain from configuration.
func NewChainFromConfig(ctx context.Context, cfg *config.Config) (*Chain, error) {
	if len(cfg.Metadata.Providers) == 0 {
		return nil, errors.New("no metadata providers configured")
	}

	var providers []Provider

	for i, pcfg := range cfg.Metadata.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating metadata provider: index=%d type=%s", i+1, pcfg.Type)
		switch pcfg.Type {
		case "yandex":
			provider, err = NewYandexProvider(pcfg.DisplayName, pcfg.Settings)

		case "spotify":
			provider, err = NewSpotifyProvider(ctx, pcfg.DisplayName, pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, provider)
		zlog.Info().Msgf("registered metadata provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	return NewChain(providers...)
}
