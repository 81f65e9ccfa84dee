package metadata

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"

	"github.com/ykarpov/tunebox/internal/infra/yandex"
)

// YandexClient defines the interface for Yandex Music search operations.
type YandexClient interface {
	SearchTrack(ctx context.Context, text string) (*yandex.TrackResult, error)
}

type YandexProviderConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// YandexProvider adapts the Yandex Music search client to the provider
// interface.
type YandexProvider struct {
	client      YandexClient
	displayName string
}

// NewYandexProvider creates a new YandexProvider from provider settings.
func NewYandexProvider(displayName string, settings map[string]any) (*YandexProvider, error) {
	var config YandexProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}

	return &YandexProvider{
		client:      yandex.New(yandex.Config{BaseURL: config.BaseURL}),
		displayName: displayName,
	}, nil
}

// Search queries Yandex Music for the top track hit.
func (p *YandexProvider) Search(ctx context.Context, query string) (*Candidate, error) {
	result, err := p.client.SearchTrack(ctx, query)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return &Candidate{
		Title:     result.Title,
		Artists:   result.Artists,
		CoverLink: result.CoverLink,
	}, nil
}

// Name returns the provider display name.
func (p *YandexProvider) Name() string {
	return p.displayName
}
