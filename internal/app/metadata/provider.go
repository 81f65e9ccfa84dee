// Package metadata resolves track titles, artists and cover art from
// external music catalogs.
package metadata

import "context"

// Candidate represents track metadata returned by a provider.
type Candidate struct {
	Title     string
	Artists   []string
	CoverLink string
}

// Provider searches a single external catalog for track metadata.
type Provider interface {
	// Search returns the best candidate for the query, or nil when the
	// catalog has no match.
	Search(ctx context.Context, query string) (*Candidate, error)

	// Name returns the provider display name for logging.
	Name() string
}
