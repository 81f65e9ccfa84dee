package bot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykarpov/tunebox/internal/app/callback"
	"github.com/ykarpov/tunebox/internal/app/resolver"
	"github.com/ykarpov/tunebox/internal/domain/track"
	"github.com/ykarpov/tunebox/internal/infra/config"
	"github.com/ykarpov/tunebox/internal/infra/store"
)

type sentRender struct {
	chatID    int64
	messageID int
	render    Render
}

type captureSink struct {
	sends []sentRender
	audio []string
}

func (s *captureSink) Send(_ context.Context, chatID int64, messageID int, r Render) error {
	s.sends = append(s.sends, sentRender{chatID: chatID, messageID: messageID, render: r})
	return nil
}

func (s *captureSink) SendAudio(_ context.Context, _ int64, path, _ string) error {
	s.audio = append(s.audio, path)
	return nil
}

func (s *captureSink) last(t *testing.T) Render {
	t.Helper()
	require.NotEmpty(t, s.sends)
	return s.sends[len(s.sends)-1].render
}

type mockResolver struct {
	track *track.Track
	err   error
}

func (m *mockResolver) Resolve(_ context.Context, _ string) (*track.Track, error) {
	return m.track, m.err
}

type mockCovers struct {
	err error
}

func (m *mockCovers) Generate(_ context.Context, _ string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []byte("png-bytes"), nil
}

type mockDownloader struct {
	dir string
	err error
}

func (m *mockDownloader) Fetch(_ context.Context, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	path := filepath.Join(m.dir, "audio.mp3")
	if err := os.WriteFile(path, []byte("mp3"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fixture struct {
	bot      *Bot
	store    *store.Store
	sink     *captureSink
	resolver *mockResolver
	covers   *mockCovers
	download *mockDownloader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cfg := &config.Config{}
	require.NoError(t, defaults.Set(cfg))

	sink := &captureSink{}
	res := &mockResolver{}
	covers := &mockCovers{}
	download := &mockDownloader{dir: t.TempDir()}

	b, err := New(s, res, covers, download, sink, cfg)
	require.NoError(t, err)

	return &fixture{bot: b, store: s, sink: sink, resolver: res, covers: covers, download: download}
}

func text(userID int64, content string) Event {
	return Event{UserID: userID, ChatID: userID, Kind: KindText, Content: content}
}

func press(userID int64, messageID int, token string) Event {
	return Event{UserID: userID, ChatID: userID, MessageID: messageID, Kind: KindCallback, Content: token}
}

func buttonLabels(r Render) []string {
	var labels []string
	for _, row := range r.Buttons {
		for _, btn := range row {
			labels = append(labels, btn.Label)
		}
	}
	return labels
}

func TestHandle_Start(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.bot.Handle(ctx, text(42, "/start")))

	r := f.sink.last(t)
	assert.True(t, r.Menu)
	assert.NotEmpty(t, r.Caption)

	// The user is registered and starts with an empty library.
	ids, err := f.store.GetUserPlaylists(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHandle_EmptyLibrary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.bot.Handle(ctx, text(42, "/start")))
	require.NoError(t, f.bot.Handle(ctx, text(42, MenuLibrary)))

	r := f.sink.last(t)
	assert.Contains(t, r.Caption, "Total: 0, Page: 1")
	assert.Contains(t, buttonLabels(r), "New playlist")
	assert.False(t, r.Edit)
}

func TestHandle_CreatePlaylistFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.bot.Handle(ctx, text(42, "/start")))
	token := callback.New(callback.ActionNew, callback.ObjectPlaylist, callback.IDPayload(0)).Encode()
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, token)))

	// The prompt edits the library card.
	prompt := f.sink.last(t)
	assert.True(t, prompt.Edit)

	require.NoError(t, f.bot.Handle(ctx, text(42, "Road Trip")))

	r := f.sink.last(t)
	assert.Contains(t, r.Caption, "Total: 1, Page: 1")
	assert.Contains(t, buttonLabels(r), "Road Trip")

	ids, err := f.store.GetUserPlaylists(ctx, 42)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	p, err := f.store.GetPlaylist(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Road Trip", p.Name)
	assert.Equal(t, []byte("png-bytes"), p.Cover)
}

func TestHandle_CreatePlaylist_CoverFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.bot.Handle(ctx, text(42, "/start")))
	f.covers.err = errors.New("avatar service down")

	token := callback.New(callback.ActionNew, callback.ObjectPlaylist, callback.IDPayload(0)).Encode()
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, token)))
	require.NoError(t, f.bot.Handle(ctx, text(42, "Road Trip")))

	r := f.sink.last(t)
	assert.Contains(t, buttonLabels(r), "Try again")

	// Nothing was stored.
	ids, err := f.store.GetUserPlaylists(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHandle_SearchFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.bot.Handle(ctx, text(42, "/start")))
	require.NoError(t, f.bot.Handle(ctx, text(42, MenuSearch)))

	f.resolver.track = &track.Track{
		ID:        1,
		Title:     "Karma Police",
		Artists:   "Radiohead",
		CoverLink: "https://covers.example/karma.jpg",
		AudioLink: "https://www.youtube.com/watch?v=abc123",
	}
	require.NoError(t, f.bot.Handle(ctx, text(42, "karma police")))

	r := f.sink.last(t)
	assert.Contains(t, r.Caption, "Radiohead - Karma Police")
	assert.Contains(t, r.Caption, "https://www.youtube.com/watch?v=abc123")
	assert.Equal(t, "https://covers.example/karma.jpg", r.Image.URL)
	labels := buttonLabels(r)
	assert.Contains(t, labels, "Download")
	assert.Contains(t, labels, "Add to playlist")
}

func TestHandle_SearchNothingFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.resolver.err = resolver.ErrNotFound
	require.NoError(t, f.bot.Handle(ctx, text(42, MenuSearch)))
	require.NoError(t, f.bot.Handle(ctx, text(42, "gibberish")))

	r := f.sink.last(t)
	assert.Contains(t, buttonLabels(r), "Try again")
	// The pending query is consumed even on failure.
	require.NoError(t, f.bot.Handle(ctx, text(42, "more text")))
	assert.Len(t, f.sink.sends, 2)
}

func TestHandle_SearchUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.resolver.err = errors.Mark(errors.New("quota exceeded"), resolver.ErrUnavailable)
	require.NoError(t, f.bot.Handle(ctx, text(42, MenuSearch)))
	require.NoError(t, f.bot.Handle(ctx, text(42, "karma police")))

	r := f.sink.last(t)
	assert.Contains(t, buttonLabels(r), "Try again")
}

func TestHandle_MalformedCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.bot.Handle(ctx, press(42, 7, "show")))
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, "bogus^playlists^0")))
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, "show^playlists^x")))

	assert.Empty(t, f.sink.sends)
}

func TestHandle_AddToPlaylist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.EnsureUser(ctx, 42))
	plID, err := f.store.CreatePlaylist(ctx, "Road Trip", nil)
	require.NoError(t, err)
	require.NoError(t, f.store.AddPlaylistToUser(ctx, 42, plID))
	tr, err := f.store.CreateTrack(ctx, "Karma Police", "Radiohead", "", "link")
	require.NoError(t, err)

	token := callback.New(callback.ActionAdd, callback.ObjectToPlaylist, callback.IDPayload(plID, tr.ID)).Encode()
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, token)))

	p, err := f.store.GetPlaylist(ctx, plID)
	require.NoError(t, err)
	assert.Equal(t, []int64{tr.ID}, p.TrackIDs)

	// The picker returns to the track card.
	r := f.sink.last(t)
	assert.True(t, r.Edit)
	assert.Contains(t, r.Caption, "Karma Police")
}

func TestHandle_AddPickerSkipsContaining(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.EnsureUser(ctx, 42))
	withTrack, err := f.store.CreatePlaylist(ctx, "Has it", nil)
	require.NoError(t, err)
	require.NoError(t, f.store.AddPlaylistToUser(ctx, 42, withTrack))
	without, err := f.store.CreatePlaylist(ctx, "Needs it", nil)
	require.NoError(t, err)
	require.NoError(t, f.store.AddPlaylistToUser(ctx, 42, without))

	tr, err := f.store.CreateTrack(ctx, "Karma Police", "Radiohead", "", "link")
	require.NoError(t, err)
	require.NoError(t, f.store.AddTrackToPlaylist(ctx, withTrack, tr.ID))

	token := callback.New(callback.ActionAdd, callback.ObjectAdding, callback.IDPayload(tr.ID, 0)).Encode()
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, token)))

	labels := buttonLabels(f.sink.last(t))
	assert.Contains(t, labels, "Needs it")
	assert.NotContains(t, labels, "Has it")
}

func TestHandle_DownloadFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr, err := f.store.CreateTrack(ctx, "Karma Police", "Radiohead", "", "link")
	require.NoError(t, err)

	token := callback.New(callback.ActionDownload, callback.ObjectTrack, callback.IDPayload(tr.ID)).Encode()
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, token)))

	require.Len(t, f.sink.audio, 1)
	// The temp file is removed after sending.
	_, statErr := os.Stat(f.sink.audio[0])
	assert.True(t, os.IsNotExist(statErr))

	// Waiting card first, track card restored last.
	require.GreaterOrEqual(t, len(f.sink.sends), 2)
	assert.True(t, strings.Contains(f.sink.sends[0].render.Caption, "Downloading"))
	assert.Contains(t, f.sink.last(t).Caption, "Karma Police")
}

func TestHandle_DownloadFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr, err := f.store.CreateTrack(ctx, "Karma Police", "Radiohead", "", "link")
	require.NoError(t, err)
	f.download.err = errors.New("yt-dlp exploded")

	token := callback.New(callback.ActionDownload, callback.ObjectTrack, callback.IDPayload(tr.ID)).Encode()
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, token)))

	assert.Empty(t, f.sink.audio)
	r := f.sink.last(t)
	assert.True(t, r.Edit)
	assert.Contains(t, buttonLabels(r), "Try again")
}

func TestHandle_LibraryPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.EnsureUser(ctx, 42))
	names := []string{"A", "B", "C", "D", "E", "F", "G"}
	for _, name := range names {
		id, err := f.store.CreatePlaylist(ctx, name, nil)
		require.NoError(t, err)
		require.NoError(t, f.store.AddPlaylistToUser(ctx, 42, id))
	}

	require.NoError(t, f.bot.Handle(ctx, text(42, MenuLibrary)))
	first := f.sink.last(t)
	assert.Contains(t, first.Caption, "Total: 7, Page: 1")
	assert.Contains(t, buttonLabels(first), "A")
	assert.NotContains(t, buttonLabels(first), "F")

	token := callback.New(callback.ActionPage, callback.ObjectPlaylists, callback.IDPayload(1)).Encode()
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, token)))
	second := f.sink.last(t)
	assert.Contains(t, second.Caption, "Total: 7, Page: 2")
	assert.Contains(t, buttonLabels(second), "F")
	assert.True(t, second.Edit)

	// Paging right off the last page wraps to the first.
	token = callback.New(callback.ActionPage, callback.ObjectPlaylists, callback.IDPayload(2)).Encode()
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, token)))
	assert.Contains(t, f.sink.last(t).Caption, "Total: 7, Page: 1")
}

func TestHandle_ShowPlaylist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.EnsureUser(ctx, 42))
	plID, err := f.store.CreatePlaylist(ctx, "Road Trip", []byte("cover-bytes"))
	require.NoError(t, err)
	require.NoError(t, f.store.AddPlaylistToUser(ctx, 42, plID))
	tr, err := f.store.CreateTrack(ctx, "Karma Police", "Radiohead", "", "link")
	require.NoError(t, err)
	require.NoError(t, f.store.AddTrackToPlaylist(ctx, plID, tr.ID))

	token := callback.New(callback.ActionShow, callback.ObjectPlaylist, callback.IDPayload(plID)).Encode()
	require.NoError(t, f.bot.Handle(ctx, press(42, 7, token)))

	r := f.sink.last(t)
	assert.Contains(t, r.Caption, "Road Trip")
	assert.Contains(t, r.Caption, "Total: 1, Page: 1")
	assert.Equal(t, []byte("cover-bytes"), r.Image.Bytes)
	assert.Contains(t, buttonLabels(r), "Radiohead - Karma Police")
}

func TestHandle_IgnoresUnsolicitedText(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.bot.Handle(context.Background(), text(42, "hello there")))
	assert.Empty(t, f.sink.sends)
}
