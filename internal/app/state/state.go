// Package state tracks which users are expected to send free-text input.
//
// The chat transport is stateless between messages, so the bot records per
// user whether the next plain message is a playlist name, a track query, or
// nothing special. The state always resets to Idle once the pending input
// is consumed, whatever the outcome of the resulting operation.
package state

import "sync"

// Input is the tagged awaiting-input state of one user.
type Input int

const (
	Idle                 Input = iota // no input expected
	AwaitingPlaylistName              // next text names a new playlist
	AwaitingTrackQuery                // next text is a track search query
)

// String returns the string representation of the input state.
func (i Input) String() string {
	switch i {
	case Idle:
		return "idle"
	case AwaitingPlaylistName:
		return "awaiting_playlist_name"
	case AwaitingTrackQuery:
		return "awaiting_track_query"
	default:
		return "unknown"
	}
}

// Manager holds the awaiting-input state for each user with thread-safe
// access. Users default to Idle.
type Manager struct {
	mu     sync.RWMutex
	byUser map[int64]Input
}

// NewManager creates an empty state manager.
func NewManager() *Manager {
	return &Manager{byUser: make(map[int64]Input)}
}

// Get returns the current state for the user.
func (m *Manager) Get(userID int64) Input {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byUser[userID]
}

// Set records the awaiting-input state for the user.
func (m *Manager) Set(userID int64, in Input) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in == Idle {
		delete(m.byUser, userID)
		return
	}
	m.byUser[userID] = in
}

// Take returns the current state and resets the user to Idle in one step,
// so a pending input is consumed exactly once.
func (m *Manager) Take(userID int64) Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	in := m.byUser[userID]
	delete(m.byUser, userID)
	return in
}

// Clear resets the user to Idle.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, userID)
}
