// Package main provides the bot entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/ykarpov/tunebox/internal/app/bot"
	"github.com/ykarpov/tunebox/internal/app/metadata"
	"github.com/ykarpov/tunebox/internal/app/resolver"
	"github.com/ykarpov/tunebox/internal/infra/config"
	"github.com/ykarpov/tunebox/internal/infra/cover"
	"github.com/ykarpov/tunebox/internal/infra/logger"
	"github.com/ykarpov/tunebox/internal/infra/store"
	"github.com/ykarpov/tunebox/internal/infra/telegram"
	"github.com/ykarpov/tunebox/internal/infra/youtube"
	"github.com/ykarpov/tunebox/internal/infra/ytdlp"
)

var (
	app        = kingpin.New("tunebox", "Telegram music library bot")
	configPath = app.Flag("config", "Path to config file").Default("config/bot.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Run bot (defer ensures cleanup is called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Bot error: %v", err)
		os.Exit(1)
	}
}

// run executes the main bot logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	chain, err := metadata.NewChainFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create metadata chain: %w", err)
	}

	yt, err := youtube.New(youtube.Config{APIKey: cfg.YouTube.APIKey})
	if err != nil {
		return fmt.Errorf("failed to create youtube client: %w", err)
	}

	res, err := resolver.New(chain, yt, st)
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}

	covers := cover.New(cover.Config{URLTemplate: cfg.Cover.URLTemplate})

	dl, err := ytdlp.New(ytdlp.Config{
		Binary:   cfg.Download.Binary,
		CacheDir: cfg.Download.CacheDir,
		Timeout:  time.Duration(cfg.Download.TimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create downloader: %w", err)
	}

	transport, err := telegram.New(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("failed to create telegram transport: %w", err)
	}

	b, err := bot.New(st, res, covers, dl, transport, cfg)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- transport.Run(ctx, b)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			return fmt.Errorf("transport error: %w", err)
		}
	}

	zlog.Info().Msg("Bot stopped")
	return nil
}
