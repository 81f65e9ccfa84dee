// Package main provides a maintenance CLI for inspecting the catalog.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/ykarpov/tunebox/internal/infra/store"
)

var (
	app    = kingpin.New("tunebox-catalogcli", "tunebox catalog inspection tool")
	dbPath = app.Flag("db", "Path to the SQLite database").Default("data/db/music.db").String()

	// users command
	usersCmd = app.Command("users", "List known users")

	// playlists command
	playlistsCmd  = app.Command("playlists", "List a user's playlists")
	playlistsUser = playlistsCmd.Arg("user-id", "Telegram user ID").Required().Int64()

	// tracks command
	tracksCmd = app.Command("tracks", "List stored tracks")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	st, err := store.New(*dbPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()

	switch command {
	case usersCmd.FullCommand():
		listUsers(ctx, st)
	case playlistsCmd.FullCommand():
		listPlaylists(ctx, st, *playlistsUser)
	case tracksCmd.FullCommand():
		listTracks(ctx, st)
	}
}

func listUsers(ctx context.Context, st *store.Store) {
	users, err := st.ListUsers(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Users: %d\n", len(users))
	for _, u := range users {
		fmt.Printf("  %d (playlists: %d)\n", u.ID, len(u.PlaylistIDs))
	}
}

func listPlaylists(ctx context.Context, st *store.Store, userID int64) {
	ids, err := st.GetUserPlaylists(ctx, userID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Playlists of user %d: %d\n", userID, len(ids))
	for _, id := range ids {
		p, err := st.GetPlaylist(ctx, id)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  [%d] %s (tracks: %d)\n", p.ID, p.Name, len(p.TrackIDs))
	}
}

func listTracks(ctx context.Context, st *store.Store) {
	tracks, err := st.ListTracks(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tracks: %d\n", len(tracks))
	for _, t := range tracks {
		fmt.Printf("  [%d] %s -> %s\n", t.ID, t.Title, t.AudioLink)
	}
}
