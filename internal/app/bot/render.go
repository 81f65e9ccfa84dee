package bot

import (
	"fmt"
	"html"

	"github.com/ykarpov/tunebox/internal/app/callback"
	"github.com/ykarpov/tunebox/internal/app/pager"
	"github.com/ykarpov/tunebox/internal/domain/playlist"
	"github.com/ykarpov/tunebox/internal/domain/track"
)

func pageWindow[T any](items []T, requested int) (pager.Result, []T) {
	return pager.Slice(items, requested)
}

func pageCaption(title string, res pager.Result) string {
	return fmt.Sprintf("%s\nTotal: %d, Page: %d", html.EscapeString(title), res.Total, res.Display)
}

func cancelToLibraryButton() Button {
	return Button{
		Label: "Go back",
		Token: callback.New(callback.ActionCancel, callback.ObjectPlaylists, callback.IDPayload(0)).Encode(),
	}
}

func searchAgainToken() string {
	return callback.New(callback.ActionSearch, callback.ObjectTracks, callback.IDPayload(0)).Encode()
}

// libraryRender builds the paged playlist list card.
func (b *Bot) libraryRender(playlists []*playlist.Playlist, res pager.Result) Render {
	var rows [][]Button
	for _, p := range playlists {
		rows = append(rows, []Button{{
			Label: p.Name,
			Token: callback.New(callback.ActionShow, callback.ObjectPlaylist, callback.IDPayload(p.ID)).Encode(),
		}})
	}

	if pager.HasNav(res.Total) {
		rows = append(rows, []Button{
			{
				Label: "⬅️",
				Token: callback.New(callback.ActionPage, callback.ObjectPlaylists, callback.IDPayload(int64(res.Index-1))).Encode(),
			},
			{
				Label: "➡️",
				Token: callback.New(callback.ActionPage, callback.ObjectPlaylists, callback.IDPayload(int64(res.Index+1))).Encode(),
			},
		})
	}

	rows = append(rows, []Button{{
		Label: "New playlist",
		Token: callback.New(callback.ActionNew, callback.ObjectPlaylist, callback.IDPayload(0)).Encode(),
	}})

	return Render{
		Image:   Image{Asset: b.assets.LibraryImage},
		Caption: pageCaption(b.messages.YourPlaylists, res),
		Buttons: rows,
	}
}

// playlistRender builds a playlist card with one page of its tracks.
func (b *Bot) playlistRender(p *playlist.Playlist, tracks []*track.Track, res pager.Result) Render {
	img := Image{Asset: b.assets.LibraryImage}
	if len(p.Cover) > 0 {
		img = Image{Bytes: p.Cover}
	}

	var rows [][]Button
	for _, t := range tracks {
		rows = append(rows, []Button{{
			Label: t.DisplayName(),
			Token: callback.New(callback.ActionShow, callback.ObjectTrack, callback.IDPayload(t.ID)).Encode(),
		}})
	}

	if pager.HasNav(res.Total) {
		rows = append(rows, []Button{
			{
				Label: "⬅️",
				Token: callback.New(callback.ActionPage, callback.ObjectTracks, callback.IDPayload(p.ID, int64(res.Index-1))).Encode(),
			},
			{
				Label: "➡️",
				Token: callback.New(callback.ActionPage, callback.ObjectTracks, callback.IDPayload(p.ID, int64(res.Index+1))).Encode(),
			},
		})
	}

	rows = append(rows, []Button{cancelToLibraryButton()})

	return Render{
		Image:   img,
		Caption: pageCaption(p.Name, res),
		Buttons: rows,
		Edit:    true,
	}
}

// trackCardRender builds a single track card. The caption links the title
// to its audio source.
func (b *Bot) trackCardRender(t *track.Track) Render {
	img := Image{Asset: b.assets.LibraryImage}
	if t.CoverLink != "" {
		img = Image{URL: t.CoverLink}
	}

	caption := fmt.Sprintf(`<a href="%s">%s</a>`, t.AudioLink, html.EscapeString(t.DisplayName()))

	rows := [][]Button{
		{{
			Label: "Download",
			Token: callback.New(callback.ActionDownload, callback.ObjectTrack, callback.IDPayload(t.ID)).Encode(),
		}},
		{{
			Label: "Add to playlist",
			Token: callback.New(callback.ActionAdd, callback.ObjectAdding, callback.IDPayload(t.ID, 0)).Encode(),
		}},
		{{
			Label: "Try again",
			Token: searchAgainToken(),
		}},
	}

	return Render{Image: img, Caption: caption, Buttons: rows}
}

// addPickerRender builds the paged add-to-playlist picker for a track.
func (b *Bot) addPickerRender(trackID int64, candidates []playlist.Playlist, res pager.Result) Render {
	var rows [][]Button
	for _, p := range candidates {
		rows = append(rows, []Button{{
			Label: p.Name,
			Token: callback.New(callback.ActionAdd, callback.ObjectToPlaylist, callback.IDPayload(p.ID, trackID)).Encode(),
		}})
	}

	if pager.HasNav(res.Total) {
		rows = append(rows, []Button{
			{
				Label: "⬅️",
				Token: callback.New(callback.ActionPage, callback.ObjectAdding, callback.IDPayload(trackID, int64(res.Index-1))).Encode(),
			},
			{
				Label: "➡️",
				Token: callback.New(callback.ActionPage, callback.ObjectAdding, callback.IDPayload(trackID, int64(res.Index+1))).Encode(),
			},
		})
	}

	rows = append(rows, []Button{{
		Label: "Go back",
		Token: callback.New(callback.ActionCancel, callback.ObjectAdding, callback.IDPayload(trackID)).Encode(),
	}})

	return Render{
		Image:   Image{Asset: b.assets.LibraryImage},
		Caption: pageCaption(b.messages.SelectPlaylist, res),
		Buttons: rows,
		Edit:    true,
	}
}

// notFoundRender is the empty-result card for a track search.
func (b *Bot) notFoundRender() Render {
	return Render{
		Image:   Image{Asset: b.assets.ErrorImage},
		Caption: b.messages.NothingFound,
		Buttons: [][]Button{{{Label: "Try again", Token: searchAgainToken()}}},
	}
}

// errorRender is the generic failure card; retryToken repeats the failed
// operation.
func (b *Bot) errorRender(retryToken string) Render {
	return Render{
		Image:   Image{Asset: b.assets.ErrorImage},
		Caption: b.messages.TryLater,
		Buttons: [][]Button{{{Label: "Try again", Token: retryToken}}},
	}
}
