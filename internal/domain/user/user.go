// Package user provides the User domain entity.
package user

// User represents a chat user known to the catalog.
// Identity is the opaque numeric id assigned by the chat transport.
// PlaylistIDs is append-only; insertion order is display order.
type User struct {
	ID          int64
	PlaylistIDs []int64
}
