// Package track provides the Track domain entity.
package track

import "strings"

// Track represents a resolved track in the catalog.
// At most one track exists per distinct title; rows are never mutated
// after creation.
type Track struct {
	ID        int64  // Store-assigned id
	Title     string // Track title (dedup key)
	Artists   string // Artist names flattened to a display string
	CoverLink string // Remote cover image URL
	AudioLink string // Playable audio source URL
}

// JoinArtists flattens an artist name list to the display string stored
// on a track.
func JoinArtists(artists []string) string {
	return strings.Join(artists, ", ")
}

// DisplayName returns the "artists - title" form used in captions and
// audio-source queries.
func (t *Track) DisplayName() string {
	if t.Artists == "" {
		return t.Title
	}
	return t.Artists + " - " + t.Title
}
