// Package resolver turns free-text search queries into catalog tracks by
// combining a metadata source with an audio-link source.
package resolver

import (
	"context"
	"sync"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/ykarpov/tunebox/internal/app/metadata"
	"github.com/ykarpov/tunebox/internal/domain/track"
	"github.com/ykarpov/tunebox/internal/infra/store"
	"github.com/ykarpov/tunebox/internal/infra/youtube"
)

// acceptScore is the minimum fuzzy match score (0-100) between the
// catalog title and the audio search hit for the hit to be trusted.
const acceptScore = 70

var (
	// ErrNotFound means no track could be resolved for the query: either
	// no metadata matched, no audio was found, or the audio hit did not
	// match the metadata closely enough.
	ErrNotFound = errors.New("track not found")

	// ErrUnavailable means a collaborator could not be reached; the query
	// may well succeed on retry.
	ErrUnavailable = errors.New("source unavailable")
)

// Metadata searches external catalogs for track metadata.
type Metadata interface {
	Search(ctx context.Context, query string) (*metadata.Candidate, error)
}

// AudioSource searches for a playable audio link.
type AudioSource interface {
	Search(ctx context.Context, query string) (*youtube.Video, error)
}

// Catalog persists resolved tracks.
type Catalog interface {
	FindTrackByTitle(ctx context.Context, title string) (*track.Track, error)
	CreateTrack(ctx context.Context, title, artists, coverLink, audioLink string) (*track.Track, error)
}

// Resolver resolves free-text queries into stored tracks. Resolution is
// idempotent: resolving a title already in the catalog returns the stored
// track without touching the audio source again.
type Resolver struct {
	metadata Metadata
	audio    AudioSource
	catalog  Catalog

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	scorer *metrics.SmithWatermanGotoh
}

// New creates a new resolver.
func New(md Metadata, audio AudioSource, catalog Catalog) (*Resolver, error) {
	if md == nil || audio == nil || catalog == nil {
		return nil, errors.New("metadata, audio and catalog are required")
	}

	scorer := metrics.NewSmithWatermanGotoh()
	scorer.CaseSensitive = false

	return &Resolver{
		metadata: md,
		audio:    audio,
		catalog:  catalog,
		locks:    make(map[string]*sync.Mutex),
		scorer:   scorer,
	}, nil
}

// Resolve resolves the query into a catalog track. Failures to reach a
// source are marked ErrUnavailable; an exhausted search is ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, query string) (*track.Track, error) {
	if query == "" {
		return nil, errors.Wrap(ErrNotFound, "empty query")
	}

	candidate, err := r.metadata.Search(ctx, query)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "metadata search failed"), ErrUnavailable)
	}
	if candidate == nil {
		return nil, errors.Wrapf(ErrNotFound, "no metadata for %q", query)
	}

	title := candidate.Title
	artists := track.JoinArtists(candidate.Artists)

	// Concurrent resolutions of the same title race between the lookup
	// and the insert; serialize them per title. Entries are never
	// reclaimed, which is fine for the title cardinality a single bot
	// sees.
	lock := r.titleLock(title)
	lock.Lock()
	defer lock.Unlock()

	existing, err := r.catalog.FindTrackByTitle(ctx, title)
	if err == nil {
		zlog.Debug().Msgf("track already in catalog: title=%s id=%d", title, existing.ID)
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to look up track")
	}

	// The audio source gets the full display name for precision, but the
	// hit is scored against the title alone: hits routinely omit or
	// reorder the artist, and that must not fail the match.
	audioQuery := (&track.Track{Title: title, Artists: artists}).DisplayName()
	video, err := r.audio.Search(ctx, audioQuery)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "audio search failed"), ErrUnavailable)
	}
	if video == nil {
		return nil, errors.Wrapf(ErrNotFound, "no audio for %q", audioQuery)
	}

	if score := r.partialScore(title, video.Title); score < acceptScore {
		zlog.Debug().Msgf("audio hit rejected: title=%s hit=%s score=%d", title, video.Title, score)
		return nil, errors.Wrapf(ErrNotFound, "audio hit %q does not match %q", video.Title, title)
	}

	t, err := r.catalog.CreateTrack(ctx, title, artists, candidate.CoverLink, video.Link())
	if err != nil {
		return nil, errors.Wrap(err, "failed to store track")
	}

	zlog.Info().Msgf("track resolved: id=%d title=%s", t.ID, t.Title)
	return t, nil
}

func (r *Resolver) titleLock(title string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[title]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[title] = lock
	}
	return lock
}

// partialScore rates how well the audio hit matches the catalog title on
// a 0-100 scale. Smith-Waterman-Gotoh does local alignment, so a title
// embedded in a longer hit ("... (Official Video)") still scores high.
func (r *Resolver) partialScore(title, hit string) int {
	return int(strutil.Similarity(title, hit, r.scorer) * 100)
}
