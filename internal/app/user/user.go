/*
Package user contains the data structure describing a chat participant.

A User is created once per local session when a nickname is submitted, and once per remote
peer the first time its join announcement is observed. There is no identity layer: IDs are
self-assigned and nicknames are not unique.
*/
package user

import (
	"nickchat/internal/pkg/randx"
	"nickchat/internal/pkg/sanitize"
)

// User represents the basic identity information of a chat participant.
// Fields use JSON tags for serialization in broker envelopes and bridge frames.
type User struct {

	// ID is the opaque, self-assigned identifier of the peer. It is never reused.
	ID string `json:"id"`

	// Nickname is the display name of the user in the chat.
	Nickname string `json:"nickname"`
}

// New creates a local user with a fresh ID. The nickname is sanitized; ok is false when
// nothing usable remains.
func New(nickname string) (u User, ok bool) {
	clean := sanitize.Nickname(nickname)
	if clean == "" {
		return User{}, false
	}

	return User{ID: randx.UserID(), Nickname: clean}, true
}

// Valid reports whether both fields are present.
func (u User) Valid() bool {
	return u.ID != "" && u.Nickname != ""
}
