// Package callback encodes the compact tokens that address catalog
// operations from a stateless button press.
//
// The chat transport echoes a pressed button's token back verbatim, with no
// server-side session behind it, so the full intent of the press must be
// reconstructable from the token alone. A token is an (action, object,
// payload) triple joined with '^'. The payload is a small structured
// sub-string (for example "<playlist_id> <track_id>") whose internal layout
// belongs to the handler for that action/object pair, not to the codec.
package callback

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const sep = "^"

// ErrMalformed is returned when a token cannot be decoded.
// Handlers treat it as a no-op; it is never surfaced to the user.
var ErrMalformed = errors.New("malformed callback token")

// Action identifies what a button press does.
type Action string

const (
	ActionShow     Action = "show"     // display an object
	ActionNew      Action = "new"      // start creating an object
	ActionAdd      Action = "add"      // add a track to a playlist
	ActionCancel   Action = "cancel"   // abandon a flow, go back
	ActionPage     Action = "page"     // navigate a paged list
	ActionDownload Action = "download" // download a track
	ActionSearch   Action = "search"   // re-enter track search
)

// Object identifies what a button press acts on.
type Object string

const (
	ObjectPlaylist   Object = "playlist"    // a single playlist
	ObjectPlaylists  Object = "playlists"   // the user's playlist list
	ObjectTrack      Object = "track"       // a single track
	ObjectTracks     Object = "tracks"      // a playlist's track list
	ObjectAdding     Object = "adding"      // the add-to-playlist picker
	ObjectToPlaylist Object = "to_playlist" // a picked target playlist
)

var knownActions = map[Action]bool{
	ActionShow:     true,
	ActionNew:      true,
	ActionAdd:      true,
	ActionCancel:   true,
	ActionPage:     true,
	ActionDownload: true,
	ActionSearch:   true,
}

var knownObjects = map[Object]bool{
	ObjectPlaylist:   true,
	ObjectPlaylists:  true,
	ObjectTrack:      true,
	ObjectTracks:     true,
	ObjectAdding:     true,
	ObjectToPlaylist: true,
}

// Data is a decoded callback triple.
type Data struct {
	Action  Action
	Object  Object
	Payload string
}

// New builds a callback triple.
func New(action Action, object Object, payload string) Data {
	return Data{Action: action, Object: object, Payload: payload}
}

// Encode packs the triple into a transport token.
func (d Data) Encode() string {
	return string(d.Action) + sep + string(d.Object) + sep + d.Payload
}

// Decode unpacks a transport token. It fails with ErrMalformed unless the
// token splits into exactly three fields and both enums are recognized.
func Decode(token string) (Data, error) {
	parts := strings.Split(token, sep)
	if len(parts) != 3 {
		return Data{}, errors.Wrapf(ErrMalformed, "expected 3 fields, got %d", len(parts))
	}

	action, object := Action(parts[0]), Object(parts[1])
	if !knownActions[action] {
		return Data{}, errors.Wrapf(ErrMalformed, "unknown action %q", parts[0])
	}
	if !knownObjects[object] {
		return Data{}, errors.Wrapf(ErrMalformed, "unknown object %q", parts[1])
	}

	return Data{Action: action, Object: object, Payload: parts[2]}, nil
}

// PayloadIDs parses a payload of space-separated integers. Validating the
// count is the caller's job; the codec only guarantees the split.
func PayloadIDs(payload string) ([]int64, error) {
	fields := strings.Fields(payload)
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "payload field %q is not an integer", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IDPayload formats space-separated integers into a payload string.
func IDPayload(ids ...int64) string {
	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(fields, " ")
}
