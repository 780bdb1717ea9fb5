package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"nickchat/internal/app/user"
	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/sanitize"
)

// Wire values of the "type" and "messageKind" fields.
const (
	typeJoin    = "join"
	typeMessage = "message"

	messageKindText  = "text"
	messageKindImage = "image"
)

// maxEnvelopeBytes rejects oversized payloads before they are parsed.
const maxEnvelopeBytes = MaxImageBytes + 16*1024

// Envelope is one of JoinEnvelope, TextEnvelope or ImageEnvelope.
type Envelope interface {
	isEnvelope()
}

// JoinEnvelope announces a peer on the presence topic.
type JoinEnvelope struct {
	User user.User
}

// TextEnvelope carries a text message on the chat topic.
type TextEnvelope struct {
	ID        string
	SenderID  string
	Nickname  string
	Text      string
	Timestamp int64
}

// ImageEnvelope carries an inline image on the chat topic.
type ImageEnvelope struct {
	ID        string
	SenderID  string
	Nickname  string
	Caption   string
	Timestamp int64
	ImageData string
}

func (JoinEnvelope) isEnvelope()  {}
func (TextEnvelope) isEnvelope()  {}
func (ImageEnvelope) isEnvelope() {}

// Message converts the envelope into a log entry.
func (e TextEnvelope) Message() Message {
	return Message{
		ID:        e.ID,
		Nickname:  e.Nickname,
		Text:      e.Text,
		Timestamp: e.Timestamp,
		Kind:      KindText,
	}
}

// Message converts the envelope into a log entry.
func (e ImageEnvelope) Message() Message {
	return Message{
		ID:        e.ID,
		Nickname:  e.Nickname,
		Text:      e.Caption,
		Timestamp: e.Timestamp,
		Kind:      KindImage,
		ImageData: e.ImageData,
	}
}

// wireEnvelope is the JSON shape shared by every envelope. Pointer fields tell
// "absent" apart from "zero" during validation.
type wireEnvelope struct {
	Type        string     `json:"type"`
	User        *user.User `json:"user,omitempty"`
	MessageKind string     `json:"messageKind,omitempty"`
	ID          *string    `json:"id,omitempty"`
	SenderID    *string    `json:"senderId,omitempty"`
	Nickname    *string    `json:"nickname,omitempty"`
	Text        *string    `json:"text,omitempty"`
	Timestamp   *int64     `json:"timestamp,omitempty"`
	ImageData   *string    `json:"imageData,omitempty"`
}

// EncodeEnvelope serializes an envelope to its wire form.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	var w wireEnvelope

	switch e := env.(type) {
	case JoinEnvelope:
		u := e.User
		w = wireEnvelope{Type: typeJoin, User: &u}

	case TextEnvelope:
		w = wireEnvelope{
			Type:        typeMessage,
			MessageKind: messageKindText,
			ID:          &e.ID,
			SenderID:    &e.SenderID,
			Nickname:    &e.Nickname,
			Text:        &e.Text,
			Timestamp:   &e.Timestamp,
		}

	case ImageEnvelope:
		w = wireEnvelope{
			Type:        typeMessage,
			MessageKind: messageKindImage,
			ID:          &e.ID,
			SenderID:    &e.SenderID,
			Nickname:    &e.Nickname,
			Text:        &e.Caption,
			Timestamp:   &e.Timestamp,
			ImageData:   &e.ImageData,
		}

	default:
		return nil, fmt.Errorf("encode envelope: unsupported type %T", env)
	}

	return json.Marshal(w)
}

// DecodeEnvelope parses and validates a payload received from the broker.
// Any failure is an ErrMalformedEnvelope; the payload must then be dropped.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	if len(payload) > maxEnvelopeBytes {
		return nil, malformed("payload exceeds %d bytes", maxEnvelopeBytes)
	}

	var w wireEnvelope
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, malformed("invalid JSON")
	}

	switch w.Type {
	case typeJoin:
		return decodeJoin(w)
	case typeMessage:
		return decodeMessage(w)
	default:
		return nil, malformed("unknown type %q", w.Type)
	}
}

func decodeJoin(w wireEnvelope) (Envelope, error) {
	if w.User == nil || strings.TrimSpace(w.User.ID) == "" {
		return nil, malformed("join without user id")
	}

	peer := user.User{ID: w.User.ID, Nickname: sanitize.Nickname(w.User.Nickname)}
	if !peer.Valid() {
		return nil, malformed("join without nickname")
	}

	return JoinEnvelope{User: peer}, nil
}

func decodeMessage(w wireEnvelope) (Envelope, error) {
	switch {
	case w.ID == nil || strings.TrimSpace(*w.ID) == "":
		return nil, malformed("message without id")
	case w.SenderID == nil || strings.TrimSpace(*w.SenderID) == "":
		return nil, malformed("message without sender")
	case w.Nickname == nil:
		return nil, malformed("message without nickname")
	case w.Timestamp == nil || *w.Timestamp <= 0:
		return nil, malformed("message without timestamp")
	}

	nickname := sanitize.Nickname(*w.Nickname)
	if nickname == "" {
		return nil, malformed("message without nickname")
	}

	switch w.MessageKind {
	case messageKindText:
		if w.Text == nil || strings.TrimSpace(*w.Text) == "" {
			return nil, malformed("text message without text")
		}

		return TextEnvelope{
			ID:        *w.ID,
			SenderID:  *w.SenderID,
			Nickname:  nickname,
			Text:      *w.Text,
			Timestamp: *w.Timestamp,
		}, nil

	case messageKindImage:
		if w.ImageData == nil {
			return nil, malformed("image message without data")
		}
		if err := ValidateImageData(*w.ImageData); err != nil {
			return nil, malformed("invalid image data")
		}

		caption := ImageCaption
		if w.Text != nil && strings.TrimSpace(*w.Text) != "" {
			caption = *w.Text
		}

		return ImageEnvelope{
			ID:        *w.ID,
			SenderID:  *w.SenderID,
			Nickname:  nickname,
			Caption:   caption,
			Timestamp: *w.Timestamp,
			ImageData: *w.ImageData,
		}, nil

	default:
		return nil, malformed("unknown message kind %q", w.MessageKind)
	}
}

func malformed(format string, args ...any) error {
	return errs.NewError(errs.ErrMalformedEnvelope, fmt.Sprintf(format, args...))
}
