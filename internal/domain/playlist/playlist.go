// Package playlist provides the Playlist domain entity.
package playlist

// Playlist represents a user-created playlist.
// TrackIDs is append-only; insertion order is display order.
type Playlist struct {
	ID       int64   // Store-assigned id
	Name     string  // Display name (not required unique)
	Cover    []byte  // Generated cover image (PNG)
	TrackIDs []int64 // Referenced tracks in insertion order
}

// Contains reports whether the playlist already references the track.
func (p *Playlist) Contains(trackID int64) bool {
	for _, id := range p.TrackIDs {
		if id == trackID {
			return true
		}
	}
	return false
}
