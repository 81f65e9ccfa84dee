// Package bot routes normalized chat events to catalog operations and
// builds the render directives the transport turns into messages.
package bot

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/ykarpov/tunebox/internal/app/callback"
	"github.com/ykarpov/tunebox/internal/app/resolver"
	"github.com/ykarpov/tunebox/internal/app/state"
	"github.com/ykarpov/tunebox/internal/domain/playlist"
	"github.com/ykarpov/tunebox/internal/domain/track"
	"github.com/ykarpov/tunebox/internal/infra/config"
)

// Reply keyboard labels. The transport renders them as the persistent
// menu and echoes presses back as plain text.
const (
	MenuLibrary = "My library"
	MenuSearch  = "Track search"
)

// Kind distinguishes the two event sources.
type Kind int

const (
	KindText     Kind = iota // a plain chat message
	KindCallback             // a button press token
)

// Event is a transport-normalized incoming update.
type Event struct {
	UserID    int64
	ChatID    int64
	MessageID int
	Kind      Kind
	Content   string
}

// Image is the picture attached to a card. At most one field is set; an
// empty Image means a text-only message.
type Image struct {
	Asset string // path to a bundled image file
	URL   string // remote image
	Bytes []byte // in-memory image
}

// Button is one inline button.
type Button struct {
	Label string
	Token string
}

// Render is the directive the transport turns into a chat message.
type Render struct {
	Image   Image
	Caption string
	Buttons [][]Button
	Edit    bool // edit the triggering message instead of sending a new one
	Menu    bool // attach the persistent reply keyboard
}

// Sink delivers renders and audio files to the chat.
type Sink interface {
	Send(ctx context.Context, chatID int64, messageID int, r Render) error
	SendAudio(ctx context.Context, chatID int64, path, title string) error
}

// Catalog is the persistence surface the bot drives.
type Catalog interface {
	EnsureUser(ctx context.Context, id int64) error
	CreatePlaylist(ctx context.Context, name string, cover []byte) (int64, error)
	AddPlaylistToUser(ctx context.Context, userID, playlistID int64) error
	AddTrackToPlaylist(ctx context.Context, playlistID, trackID int64) error
	GetUserPlaylists(ctx context.Context, userID int64) ([]int64, error)
	GetPlaylist(ctx context.Context, id int64) (*playlist.Playlist, error)
	GetTrack(ctx context.Context, id int64) (*track.Track, error)
	GetPlaylistsNotContaining(ctx context.Context, userID, trackID int64) ([]playlist.Playlist, error)
}

// Resolver resolves free-text queries into catalog tracks.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*track.Track, error)
}

// CoverGenerator produces playlist cover images.
type CoverGenerator interface {
	Generate(ctx context.Context, seed string) ([]byte, error)
}

// Downloader fetches a local audio file for a track's audio link.
type Downloader interface {
	Fetch(ctx context.Context, link string) (string, error)
}

// Bot handles normalized events against the catalog.
type Bot struct {
	catalog    Catalog
	resolver   Resolver
	covers     CoverGenerator
	downloader Downloader
	states     *state.Manager
	sink       Sink
	messages   config.MessagesConfig
	assets     config.AssetsConfig
}

// New creates a new bot.
func New(catalog Catalog, res Resolver, covers CoverGenerator, dl Downloader, sink Sink, cfg *config.Config) (*Bot, error) {
	if catalog == nil || res == nil || covers == nil || dl == nil || sink == nil {
		return nil, errors.New("all collaborators are required")
	}
	return &Bot{
		catalog:    catalog,
		resolver:   res,
		covers:     covers,
		downloader: dl,
		states:     state.NewManager(),
		sink:       sink,
		messages:   cfg.Messages,
		assets:     cfg.Assets,
	}, nil
}

// Handle processes one event. Expected user-level failures (nothing
// found, collaborator down) are rendered as cards with a retry
// affordance and do not produce an error.
func (b *Bot) Handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case KindText:
		return b.handleText(ctx, ev)
	case KindCallback:
		err := b.handleCallback(ctx, ev)
		if errors.Is(err, callback.ErrMalformed) {
			zlog.Warn().Err(err).Msgf("dropping malformed callback: user=%d", ev.UserID)
			return nil
		}
		return err
	default:
		return errors.Newf("unknown event kind %d", ev.Kind)
	}
}

func (b *Bot) handleText(ctx context.Context, ev Event) error {
	// Commands reset any pending input.
	if ev.Content == "/start" {
		b.states.Clear(ev.UserID)
		if err := b.catalog.EnsureUser(ctx, ev.UserID); err != nil {
			return errors.Wrap(err, "failed to register user")
		}
		return b.sink.Send(ctx, ev.ChatID, 0, Render{Caption: b.messages.Greeting, Menu: true})
	}

	switch ev.Content {
	case MenuLibrary:
		b.states.Clear(ev.UserID)
		return b.showLibrary(ctx, ev, 0, false)
	case MenuSearch:
		b.states.Set(ev.UserID, state.AwaitingTrackQuery)
		return b.sink.Send(ctx, ev.ChatID, 0, Render{Caption: b.messages.TypeTrackName})
	}

	switch b.states.Take(ev.UserID) {
	case state.AwaitingPlaylistName:
		return b.createPlaylist(ctx, ev, ev.Content)
	case state.AwaitingTrackQuery:
		return b.searchTrack(ctx, ev, ev.Content)
	default:
		zlog.Debug().Msgf("ignoring unsolicited text: user=%d", ev.UserID)
		return nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, ev Event) error {
	data, err := callback.Decode(ev.Content)
	if err != nil {
		return err
	}

	switch {
	case data.Action == callback.ActionShow && data.Object == callback.ObjectPlaylists:
		page, err := singleID(data.Payload)
		if err != nil {
			return err
		}
		return b.showLibrary(ctx, ev, int(page), true)

	case data.Action == callback.ActionPage && data.Object == callback.ObjectPlaylists:
		page, err := singleID(data.Payload)
		if err != nil {
			return err
		}
		return b.showLibrary(ctx, ev, int(page), true)

	case data.Action == callback.ActionNew && data.Object == callback.ObjectPlaylist:
		b.states.Set(ev.UserID, state.AwaitingPlaylistName)
		return b.sink.Send(ctx, ev.ChatID, ev.MessageID, Render{
			Image:   Image{Asset: b.assets.LibraryImage},
			Caption: b.messages.TypePlaylistName,
			Buttons: [][]Button{{cancelToLibraryButton()}},
			Edit:    true,
		})

	case data.Action == callback.ActionCancel && data.Object == callback.ObjectPlaylists:
		b.states.Clear(ev.UserID)
		return b.showLibrary(ctx, ev, 0, true)

	case data.Action == callback.ActionShow && data.Object == callback.ObjectPlaylist:
		id, err := singleID(data.Payload)
		if err != nil {
			return err
		}
		return b.showPlaylist(ctx, ev, id, 0)

	case data.Action == callback.ActionPage && data.Object == callback.ObjectTracks:
		ids, err := idPair(data.Payload)
		if err != nil {
			return err
		}
		return b.showPlaylist(ctx, ev, ids[0], int(ids[1]))

	case data.Action == callback.ActionShow && data.Object == callback.ObjectTrack:
		id, err := singleID(data.Payload)
		if err != nil {
			return err
		}
		return b.showTrack(ctx, ev, id)

	case data.Action == callback.ActionDownload && data.Object == callback.ObjectTrack:
		id, err := singleID(data.Payload)
		if err != nil {
			return err
		}
		return b.downloadTrack(ctx, ev, id)

	case data.Action == callback.ActionAdd && data.Object == callback.ObjectAdding:
		ids, err := idPair(data.Payload)
		if err != nil {
			return err
		}
		return b.showAddPicker(ctx, ev, ids[0], int(ids[1]))

	case data.Action == callback.ActionPage && data.Object == callback.ObjectAdding:
		ids, err := idPair(data.Payload)
		if err != nil {
			return err
		}
		return b.showAddPicker(ctx, ev, ids[0], int(ids[1]))

	case data.Action == callback.ActionAdd && data.Object == callback.ObjectToPlaylist:
		ids, err := idPair(data.Payload)
		if err != nil {
			return err
		}
		if err := b.catalog.AddTrackToPlaylist(ctx, ids[0], ids[1]); err != nil {
			return errors.Wrap(err, "failed to add track to playlist")
		}
		return b.showTrack(ctx, ev, ids[1])

	case data.Action == callback.ActionCancel && data.Object == callback.ObjectAdding:
		id, err := singleID(data.Payload)
		if err != nil {
			return err
		}
		return b.showTrack(ctx, ev, id)

	case data.Action == callback.ActionSearch && data.Object == callback.ObjectTracks:
		b.states.Set(ev.UserID, state.AwaitingTrackQuery)
		return b.sink.Send(ctx, ev.ChatID, 0, Render{Caption: b.messages.TypeTrackName})

	default:
		zlog.Warn().Msgf("dropping unroutable callback: action=%s object=%s", data.Action, data.Object)
		return nil
	}
}

// showLibrary renders one page of the user's playlists.
func (b *Bot) showLibrary(ctx context.Context, ev Event, page int, edit bool) error {
	ids, err := b.catalog.GetUserPlaylists(ctx, ev.UserID)
	if err != nil {
		return errors.Wrap(err, "failed to load user playlists")
	}

	res, window := pageWindow(ids, page)

	playlists := make([]*playlist.Playlist, 0, len(window))
	for _, id := range window {
		p, err := b.catalog.GetPlaylist(ctx, id)
		if err != nil {
			return errors.Wrapf(err, "failed to load playlist %d", id)
		}
		playlists = append(playlists, p)
	}

	r := b.libraryRender(playlists, res)
	r.Edit = edit
	return b.sink.Send(ctx, ev.ChatID, ev.MessageID, r)
}

// createPlaylist consumes a pending playlist name.
func (b *Bot) createPlaylist(ctx context.Context, ev Event, name string) error {
	cover, err := b.covers.Generate(ctx, name)
	if err != nil {
		zlog.Warn().Err(err).Msgf("cover generation failed: name=%s", name)
		return b.sink.Send(ctx, ev.ChatID, 0, b.errorRender(callback.New(callback.ActionNew, callback.ObjectPlaylist, callback.IDPayload(0)).Encode()))
	}

	id, err := b.catalog.CreatePlaylist(ctx, name, cover)
	if err != nil {
		return errors.Wrap(err, "failed to create playlist")
	}
	if err := b.catalog.AddPlaylistToUser(ctx, ev.UserID, id); err != nil {
		return errors.Wrap(err, "failed to attach playlist")
	}

	zlog.Info().Msgf("playlist created: user=%d playlist=%d", ev.UserID, id)
	return b.showLibrary(ctx, ev, 0, false)
}

// searchTrack consumes a pending track query.
func (b *Bot) searchTrack(ctx context.Context, ev Event, query string) error {
	t, err := b.resolver.Resolve(ctx, query)
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		return b.sink.Send(ctx, ev.ChatID, 0, b.notFoundRender())
	case errors.Is(err, resolver.ErrUnavailable):
		zlog.Warn().Err(err).Msgf("resolution unavailable: query=%s", query)
		return b.sink.Send(ctx, ev.ChatID, 0, b.errorRender(searchAgainToken()))
	case err != nil:
		return errors.Wrap(err, "failed to resolve track")
	}

	return b.sink.Send(ctx, ev.ChatID, 0, b.trackCardRender(t))
}

// showPlaylist renders one page of a playlist's tracks.
func (b *Bot) showPlaylist(ctx context.Context, ev Event, playlistID int64, page int) error {
	p, err := b.catalog.GetPlaylist(ctx, playlistID)
	if err != nil {
		return errors.Wrapf(err, "failed to load playlist %d", playlistID)
	}

	res, window := pageWindow(p.TrackIDs, page)

	tracks := make([]*track.Track, 0, len(window))
	for _, id := range window {
		t, err := b.catalog.GetTrack(ctx, id)
		if err != nil {
			return errors.Wrapf(err, "failed to load track %d", id)
		}
		tracks = append(tracks, t)
	}

	return b.sink.Send(ctx, ev.ChatID, ev.MessageID, b.playlistRender(p, tracks, res))
}

// showTrack renders a single track card.
func (b *Bot) showTrack(ctx context.Context, ev Event, trackID int64) error {
	t, err := b.catalog.GetTrack(ctx, trackID)
	if err != nil {
		return errors.Wrapf(err, "failed to load track %d", trackID)
	}
	r := b.trackCardRender(t)
	r.Edit = true
	return b.sink.Send(ctx, ev.ChatID, ev.MessageID, r)
}

// showAddPicker renders one page of playlists the track can be added to.
func (b *Bot) showAddPicker(ctx context.Context, ev Event, trackID int64, page int) error {
	candidates, err := b.catalog.GetPlaylistsNotContaining(ctx, ev.UserID, trackID)
	if err != nil {
		return errors.Wrap(err, "failed to load candidate playlists")
	}

	res, window := pageWindow(candidates, page)
	return b.sink.Send(ctx, ev.ChatID, ev.MessageID, b.addPickerRender(trackID, window, res))
}

// downloadTrack fetches the audio file and sends it to the chat. The card
// shows a waiting state during the download and is restored afterwards.
func (b *Bot) downloadTrack(ctx context.Context, ev Event, trackID int64) error {
	t, err := b.catalog.GetTrack(ctx, trackID)
	if err != nil {
		return errors.Wrapf(err, "failed to load track %d", trackID)
	}

	waiting := Render{
		Image:   Image{Asset: b.assets.WaitingImage},
		Caption: b.messages.Downloading,
		Edit:    true,
	}
	if err := b.sink.Send(ctx, ev.ChatID, ev.MessageID, waiting); err != nil {
		return errors.Wrap(err, "failed to show waiting card")
	}

	path, err := b.downloader.Fetch(ctx, t.AudioLink)
	if err != nil {
		zlog.Warn().Err(err).Msgf("download failed: track=%d", trackID)
		r := b.errorRender(callback.New(callback.ActionDownload, callback.ObjectTrack, callback.IDPayload(trackID)).Encode())
		r.Edit = true
		return b.sink.Send(ctx, ev.ChatID, ev.MessageID, r)
	}
	defer os.Remove(path)

	if err := b.sink.SendAudio(ctx, ev.ChatID, path, t.DisplayName()); err != nil {
		return errors.Wrap(err, "failed to send audio")
	}

	return b.showTrack(ctx, ev, trackID)
}

func singleID(payload string) (int64, error) {
	ids, err := callback.PayloadIDs(payload)
	if err != nil {
		return 0, err
	}
	if len(ids) != 1 {
		return 0, errors.Wrapf(callback.ErrMalformed, "expected 1 payload id, got %d", len(ids))
	}
	return ids[0], nil
}

func idPair(payload string) ([2]int64, error) {
	ids, err := callback.PayloadIDs(payload)
	if err != nil {
		return [2]int64{}, err
	}
	if len(ids) != 2 {
		return [2]int64{}, errors.Wrapf(callback.ErrMalformed, "expected 2 payload ids, got %d", len(ids))
	}
	return [2]int64{ids[0], ids[1]}, nil
}
