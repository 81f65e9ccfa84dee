package metadata

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Chain queries providers in configured order and returns the first
// candidate found. A provider error is logged and the next provider is
// tried; the chain fails only when every provider errored.
type Chain struct {
	providers []Provider
}

// NewChain creates a chain over the given providers. Order matters:
// earlier providers win.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	return &Chain{providers: providers}, nil
}

// Search queries each provider in turn. It returns (nil, nil) when every
// provider answered but none had a match, and an error only when no
// provider could be reached at all.
func (c *Chain) Search(ctx context.Context, query string) (*Candidate, error) {
	var lastErr error
	errored := 0

	for _, p := range c.providers {
		candidate, err := p.Search(ctx, query)
		if err != nil {
			zlog.Warn().Err(err).Msgf("metadata provider failed: provider=%s query=%s", p.Name(), query)
			lastErr = err
			errored++
			continue
		}
		if candidate != nil {
			zlog.Debug().Msgf("metadata found: provider=%s title=%s", p.Name(), candidate.Title)
			return candidate, nil
		}
	}

	if errored == len(c.providers) {
		return nil, errors.Wrap(lastErr, "all metadata providers failed")
	}
	return nil, nil
}

// Name returns the chain display name.
func (c *Chain) Name() string {
	return "chain"
}
