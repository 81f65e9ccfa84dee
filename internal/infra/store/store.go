// Package store provides the SQLite-backed catalog of users, playlists and
// tracks.
//
// All entities are append-only: nothing is edited or deleted once created.
// Associations are kept in join tables with an explicit position column so
// insertion order survives reads. The UNIQUE constraint on tracks.title
// backs the one-track-per-title invariant; CreateTrack is insert-or-fetch
// under it, so two concurrent creations of the same title converge on one
// row.
package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ykarpov/tunebox/internal/domain/playlist"
	"github.com/ykarpov/tunebox/internal/domain/track"
	"github.com/ykarpov/tunebox/internal/domain/user"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS playlists (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		name  TEXT NOT NULL,
		cover BLOB
	)`,
	`CREATE TABLE IF NOT EXISTS tracks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT NOT NULL UNIQUE,
		artists    TEXT NOT NULL,
		cover_link TEXT NOT NULL,
		audio_link TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_playlists (
		user_id     INTEGER NOT NULL REFERENCES users(id),
		playlist_id INTEGER NOT NULL REFERENCES playlists(id),
		position    INTEGER NOT NULL,
		PRIMARY KEY (user_id, playlist_id)
	)`,
	`CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id INTEGER NOT NULL REFERENCES playlists(id),
		track_id    INTEGER NOT NULL REFERENCES tracks(id),
		position    INTEGER NOT NULL,
		PRIMARY KEY (playlist_id, track_id)
	)`,
}

// Store is the SQLite catalog store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the catalog database at path and applies the
// schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// SQLite allows one writer; a single pooled connection avoids busy
	// errors under concurrent handlers.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to apply schema")
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureUser inserts the user if absent. Calling it for a known user is a
// no-op.
func (s *Store) EnsureUser(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users(id) VALUES(?)`, id)
	return errors.Wrap(err, "failed to ensure user")
}

// CreatePlaylist creates a new playlist row and returns its id. Names are
// not required to be unique; every call creates a fresh row.
func (s *Store) CreatePlaylist(ctx context.Context, name string, cover []byte) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO playlists(name, cover) VALUES(?, ?)`, name, cover)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create playlist")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read playlist id")
	}
	return id, nil
}

// AddPlaylistToUser appends the playlist to the user's ordered list. It
// fails with ErrNotFound if the user does not exist.
func (s *Store) AddPlaylistToUser(ctx context.Context, userID, playlistID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := requireRow(tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID), "user"); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_playlists(user_id, playlist_id, position)
		VALUES(?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM user_playlists WHERE user_id = ?))`,
		userID, playlistID, userID)
	if err != nil {
		return errors.Wrap(err, "failed to append playlist to user")
	}

	return errors.Wrap(tx.Commit(), "failed to commit")
}

// CreateTrack inserts a track row for the title, or fetches the existing
// one when the title is already present, and returns the canonical row.
func (s *Store) CreateTrack(ctx context.Context, title, artists, coverLink, audioLink string) (*track.Track, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tracks(title, artists, cover_link, audio_link)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(title) DO NOTHING`,
		title, artists, coverLink, audioLink)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert track")
	}

	t, err := scanTrack(tx.QueryRowContext(ctx,
		`SELECT id, title, artists, cover_link, audio_link FROM tracks WHERE title = ?`, title))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit")
	}
	return t, nil
}

// FindTrackByTitle looks up a track by exact title. This is the dedup gate
// used by the resolver; ErrNotFound means the title is new.
func (s *Store) FindTrackByTitle(ctx context.Context, title string) (*track.Track, error) {
	return scanTrack(s.db.QueryRowContext(ctx,
		`SELECT id, title, artists, cover_link, audio_link FROM tracks WHERE title = ?`, title))
}

// GetTrack returns the track with the given id, or ErrNotFound.
func (s *Store) GetTrack(ctx context.Context, id int64) (*track.Track, error) {
	return scanTrack(s.db.QueryRowContext(ctx,
		`SELECT id, title, artists, cover_link, audio_link FROM tracks WHERE id = ?`, id))
}

// AddTrackToPlaylist appends the track to the playlist's ordered list. It
// is a no-op when the track is already present, and fails with ErrNotFound
// if the playlist does not exist.
func (s *Store) AddTrackToPlaylist(ctx context.Context, playlistID, trackID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := requireRow(tx.QueryRowContext(ctx, `SELECT 1 FROM playlists WHERE id = ?`, playlistID), "playlist"); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO playlist_tracks(playlist_id, track_id, position)
		VALUES(?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM playlist_tracks WHERE playlist_id = ?))`,
		playlistID, trackID, playlistID)
	if err != nil {
		return errors.Wrap(err, "failed to append track to playlist")
	}

	return errors.Wrap(tx.Commit(), "failed to commit")
}

// GetUserPlaylists returns the user's playlist ids in insertion order, or
// ErrNotFound if the user is unknown.
func (s *Store) GetUserPlaylists(ctx context.Context, userID int64) ([]int64, error) {
	if err := requireRow(s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID), "user"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT playlist_id FROM user_playlists WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query user playlists")
	}
	defer rows.Close()

	return collectIDs(rows)
}

// GetPlaylist returns the playlist with its ordered track ids, or
// ErrNotFound.
func (s *Store) GetPlaylist(ctx context.Context, id int64) (*playlist.Playlist, error) {
	var p playlist.Playlist
	err := s.db.QueryRowContext(ctx, `SELECT id, name, cover FROM playlists WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Cover)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "playlist %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query playlist")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query playlist tracks")
	}
	defer rows.Close()

	p.TrackIDs, err = collectIDs(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPlaylistsNotContaining returns the user's playlists that do not yet
// reference the track, in the user's playlist order. Covers are not loaded;
// the result backs the add-to-playlist picker, which only needs names.
func (s *Store) GetPlaylistsNotContaining(ctx context.Context, userID, trackID int64) ([]playlist.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name
		FROM user_playlists up
		JOIN playlists p ON p.id = up.playlist_id
		WHERE up.user_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM playlist_tracks pt
			WHERE pt.playlist_id = p.id AND pt.track_id = ?
		  )
		ORDER BY up.position`,
		userID, trackID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query candidate playlists")
	}
	defer rows.Close()

	var out []playlist.Playlist
	for rows.Next() {
		var p playlist.Playlist
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan playlist")
		}
		out = append(out, p)
	}
	return out, errors.Wrap(rows.Err(), "failed to read candidate playlists")
}

// ListUsers returns every known user with their ordered playlist ids.
func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}
	defer rows.Close()

	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}

	users := make([]user.User, 0, len(ids))
	for _, id := range ids {
		playlists, err := s.GetUserPlaylists(ctx, id)
		if err != nil {
			return nil, err
		}
		users = append(users, user.User{ID: id, PlaylistIDs: playlists})
	}
	return users, nil
}

// ListTracks returns every track in creation order.
func (s *Store) ListTracks(ctx context.Context) ([]track.Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, artists, cover_link, audio_link FROM tracks ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tracks")
	}
	defer rows.Close()

	var out []track.Track
	for rows.Next() {
		var t track.Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Artists, &t.CoverLink, &t.AudioLink); err != nil {
			return nil, errors.Wrap(err, "failed to scan track")
		}
		out = append(out, t)
	}
	return out, errors.Wrap(rows.Err(), "failed to read tracks")
}

func scanTrack(row *sql.Row) (*track.Track, error) {
	var t track.Track
	err := row.Scan(&t.ID, &t.Title, &t.Artists, &t.CoverLink, &t.AudioLink)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(ErrNotFound, "track")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan track")
	}
	return &t, nil
}

func requireRow(row *sql.Row, entity string) error {
	var one int
	err := row.Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(ErrNotFound, entity)
	}
	return errors.Wrapf(err, "failed to check %s", entity)
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "failed to read ids")
}
