// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Database DatabaseConfig `yaml:"database"`
	Metadata MetadataConfig `yaml:"metadata"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Cover    CoverConfig    `yaml:"cover"`
	Download DownloadConfig `yaml:"download"`
	Assets   AssetsConfig   `yaml:"assets"`
	Messages MessagesConfig `yaml:"messages"`
}

// TelegramConfig represents chat transport configuration.
type TelegramConfig struct {
	Token          string `yaml:"token" validate:"required"`
	PollTimeoutSec int    `yaml:"poll_timeout_sec" default:"30" validate:"gte=1,lte=120"`
}

// DatabaseConfig represents catalog store configuration.
type DatabaseConfig struct {
	Path string `yaml:"path" default:"data/db/music.db"`
}

// MetadataConfig represents metadata source configuration.
type MetadataConfig struct {
	Providers []ProviderConfig `yaml:"providers" validate:"required,min=1"`
}

// ProviderConfig represents a single metadata provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// YouTubeConfig represents audio-link source configuration.
type YouTubeConfig struct {
	APIKey string `yaml:"api_key" validate:"required"`
}

// CoverConfig represents cover generator configuration.
type CoverConfig struct {
	URLTemplate string `yaml:"url_template"`
}

// DownloadConfig represents downloader configuration.
type DownloadConfig struct {
	Binary     string `yaml:"binary" default:"yt-dlp"`
	CacheDir   string `yaml:"cache_dir" default:"data/cache"`
	TimeoutSec int    `yaml:"timeout_sec" default:"120" validate:"gte=10,lte=600"`
}

// AssetsConfig represents the built-in image assets shown in cards.
type AssetsConfig struct {
	LibraryImage string `yaml:"library_image" default:"data/img/library.png"`
	WaitingImage string `yaml:"waiting_image" default:"data/img/waiting.png"`
	ErrorImage   string `yaml:"error_image" default:"data/img/error.png"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	Greeting         string `yaml:"greeting" default:"Hi! I'm the music storage bot. I can search and download tracks, and organize your library. Use the buttons below."`
	YourPlaylists    string `yaml:"your_playlists" default:"Your playlists"`
	SelectPlaylist   string `yaml:"select_playlist" default:"Select a playlist"`
	TypePlaylistName string `yaml:"type_playlist_name" default:"Type the new playlist name"`
	TypeTrackName    string `yaml:"type_track_name" default:"Type the track name"`
	Downloading      string `yaml:"downloading" default:"Downloading..."`
	NothingFound     string `yaml:"nothing_found" default:"Nothing was found for this request"`
	TryLater         string `yaml:"try_later" default:"An error occurred\nPlease try again later"`
}

// Load loads configuration from a YAML file. Environment variables take
// precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.YouTube.APIKey = v
	}
	id, secret := os.Getenv("SPOTIFY_CLIENT_ID"), os.Getenv("SPOTIFY_CLIENT_SECRET")
	if id == "" && secret == "" {
		return
	}
	for i := range c.Metadata.Providers {
		if c.Metadata.Providers[i].Type != "spotify" {
			continue
		}
		if c.Metadata.Providers[i].Settings == nil {
			c.Metadata.Providers[i].Settings = make(map[string]any)
		}
		if id != "" {
			c.Metadata.Providers[i].Settings["client_id"] = id
		}
		if secret != "" {
			c.Metadata.Providers[i].Settings["client_secret"] = secret
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
