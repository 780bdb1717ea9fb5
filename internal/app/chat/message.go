package chat

import (
	"nickchat/internal/app/user"
	"nickchat/internal/pkg/randx"
)

// Kind classifies an entry in the conversation log.
type Kind string

const (
	KindText   Kind = "text"
	KindImage  Kind = "image"
	KindSystem Kind = "system"
)

const (
	// SystemNickname is the author shown on locally generated system messages.
	SystemNickname = "System"

	// ImageCaption is the text carried by every image message.
	ImageCaption = "Shared an image"
)

// Message is one entry of the conversation log. Entries are never edited or removed.
type Message struct {
	// ID is assigned by the originating peer and is unique within the log.
	ID string `json:"id"`

	// Nickname is the author's display name at the time of sending.
	Nickname string `json:"nickname"`

	// Text is the message body, or the caption for images.
	Text string `json:"text"`

	// Timestamp is wall-clock milliseconds since the Unix epoch, as set by the sender.
	Timestamp int64 `json:"timestamp"`

	Kind Kind `json:"kind"`

	// ImageData is a base64 data URI, present only when Kind is KindImage.
	ImageData string `json:"imageData,omitempty"`
}

func newSystemMessage(text string, timestamp int64) Message {
	return Message{
		ID:        randx.MessageID(),
		Nickname:  SystemNickname,
		Text:      text,
		Timestamp: timestamp,
		Kind:      KindSystem,
	}
}

// Snapshot is a point-in-time copy of a session's state.
type Snapshot struct {
	CurrentUser *user.User  `json:"currentUser"`
	Status      Status      `json:"connectionStatus"`
	Users       []user.User `json:"users"`
	Messages    []Message   `json:"messages"`
}

// UpdateKind tells which part of the session an Update describes.
type UpdateKind string

const (
	UpdateStatus  UpdateKind = "status"
	UpdateMessage UpdateKind = "message"
	UpdateUser    UpdateKind = "user"
)

// Update is a single state change pushed to whoever renders the session.
// Exactly one of Status, Message or User is meaningful, selected by Kind.
type Update struct {
	Kind    UpdateKind
	Status  Status
	Message Message
	User    user.User
}
