package metadata

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/ykarpov/tunebox/internal/infra/spotify"
)

// SpotifyClient defines the interface for Spotify search operations.
type SpotifyClient interface {
	SearchTrack(ctx context.Context, query string) (*spotify.TrackResult, error)
}

type SpotifyProviderConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret" validate:"required"`
}

// SpotifyProvider adapts the Spotify search client to the provider
// interface.
type SpotifyProvider struct {
	client      SpotifyClient
	displayName string
}

// NewSpotifyProvider creates a new SpotifyProvider from provider settings.
func NewSpotifyProvider(ctx context.Context, displayName string, settings map[string]any) (*SpotifyProvider, error) {
	if len(settings) == 0 {
		return nil, errors.New("settings are required")
	}

	var config SpotifyProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	client, err := spotify.New(ctx, spotify.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create spotify client")
	}

	return &SpotifyProvider{client: client, displayName: displayName}, nil
}

// Search queries Spotify for the top track hit.
func (p *SpotifyProvider) Search(ctx context.Context, query string) (*Candidate, error) {
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
func (p *SpotifyProvider) Name() string {
	return p.displayName
}
