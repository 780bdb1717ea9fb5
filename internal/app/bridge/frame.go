package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"nickchat/internal/app/chat"
	"nickchat/internal/pkg/errs"
)

// FrameType is the discriminator of a browser frame.
type FrameType string

// Frames sent by the browser.
const (
	FrameNickname FrameType = "nickname"
	FrameText     FrameType = "text"
	FrameImage    FrameType = "image"
)

// Frames sent to the browser.
const (
	FrameInit    FrameType = "init"
	FrameStatus  FrameType = "status"
	FrameMessage FrameType = "message"
	FrameUser    FrameType = "user"
	FrameNotice  FrameType = "notice"
	FrameError   FrameType = "error"
)

// Frame is the JSON unit exchanged with the browser over the WebSocket.
type Frame struct {
	// Type selects how Payload is decoded.
	Type FrameType `json:"type"`

	// Payload is a JSON string for browser actions and a JSON object for server frames.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// InitPayload is the first frame of every connection.
type InitPayload struct {
	// Handle addresses this session on the HTTP endpoints.
	Handle string `json:"handle"`

	// Snapshot is the session state at registration time.
	Snapshot chat.Snapshot `json:"snapshot"`
}

// StatusPayload carries a connection status change.
type StatusPayload struct {
	Status chat.Status `json:"status"`
}

// NoticePayload carries a transient notice for the browser to display.
type NoticePayload struct {
	// Kind is the notice tone: success, error or info.
	Kind chat.NoticeKind `json:"kind"`

	// Text is shown to the user as is.
	Text string `json:"text"`
}

// ErrorPayload reports why a browser action was refused.
type ErrorPayload struct {
	// Code is an errs code; 5000 hides internal failures.
	Code int `json:"code"`

	// Message is the user-facing text of Code.
	Message string `json:"message"`
}

// NewFrame marshals payload into a frame of the given type.
func NewFrame(frameType FrameType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", frameType, err)
	}

	return json.Marshal(Frame{Type: frameType, Payload: raw})
}

// updateFrame converts a session update into the frame the browser renders.
func updateFrame(u chat.Update) ([]byte, error) {
	switch u.Kind {
	case chat.UpdateStatus:
		return NewFrame(FrameStatus, StatusPayload{Status: u.Status})
	case chat.UpdateMessage:
		return NewFrame(FrameMessage, u.Message)
	case chat.UpdateUser:
		return NewFrame(FrameUser, u.User)
	default:
		return nil, fmt.Errorf("unknown update kind %q", u.Kind)
	}
}

// errorFrame builds an error frame from any error, exposing only CustomError messages.
func errorFrame(err error) ([]byte, error) {
	payload := ErrorPayload{Code: errs.ErrUnknown, Message: errs.NewError(errs.ErrUnknown).Message}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		payload = ErrorPayload{Code: customErr.Code, Message: customErr.Message}
	}

	return NewFrame(FrameError, payload)
}
