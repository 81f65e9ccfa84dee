// Package ytdlp downloads track audio by shelling out to the yt-dlp
// command line tool.
package ytdlp

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// Downloader fetches audio files for resolved audio links.
type Downloader struct {
	binary   string
	cacheDir string
	timeout  time.Duration
}

// Config represents downloader configuration.
type Config struct {
	Binary   string        // yt-dlp executable, defaults to "yt-dlp" on PATH
	CacheDir string        // directory for downloaded files
	Timeout  time.Duration // per-download limit
}

// New creates a new downloader and ensures the cache directory exists.
func New(cfg Config) (*Downloader, error) {
	if cfg.CacheDir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create cache directory")
	}

	binary := cfg.Binary
	if binary == "" {
		binary = "yt-dlp"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Downloader{binary: binary, cacheDir: cfg.CacheDir, timeout: timeout}, nil
}

// Fetch downloads the audio behind link as mp3 and returns the local file
// path. The caller owns the file and removes it after use. A failure of
// any kind is reported as a single error; the download is not resumable.
func (d *Downloader) Fetch(ctx context.Context, link string) (string, error) {
	if link == "" {
		return "", errors.New("audio link is required")
	}

	base := filepath.Join(d.cacheDir, uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.binary,
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--socket-timeout", "10",
		"--output", base+".%(ext)s",
		link,
	)

	zlog.Debug().Msgf("downloading audio: link=%s output=%s", link, base)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, "yt-dlp failed: %s", string(output))
	}

	path := base + ".mp3"
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrap(err, "downloaded file missing")
	}
	return path, nil
}
