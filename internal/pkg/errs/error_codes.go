/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific session or bridge errors
both internally and in frames sent to the browser.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that a request body or frame is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Broker and Payload Errors
const (
	// ErrConnection indicates that the broker connection failed to open or was dropped.
	ErrConnection = 2001

	// ErrMalformedEnvelope indicates that an inbound payload failed schema validation.
	ErrMalformedEnvelope = 2002

	// ErrPayloadTooLarge indicates that an outbound image exceeds the size ceiling.
	ErrPayloadTooLarge = 2003

	// ErrUnsupportedImage indicates that an image is not an accepted type or encoding.
	ErrUnsupportedImage = 2004
)

// 21xx: Precondition Errors
const (
	// ErrNotConnected indicates that a publish was attempted while the session is not connected.
	ErrNotConnected = 2101

	// ErrEmptyText indicates that a text message was blank after trimming.
	ErrEmptyText = 2102

	// ErrAlreadyJoined indicates that a nickname was submitted while connecting or connected.
	ErrAlreadyJoined = 2103

	// ErrInvalidNickname indicates that the nickname is empty after sanitizing.
	ErrInvalidNickname = 2104
)

// 3xxx: Bridge Session Errors
const (
	// ErrSessionNotFound indicates that no live session matches the given handle.
	ErrSessionNotFound = 3001

	// ErrSessionClosed indicates that the session has been torn down.
	ErrSessionClosed = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general internal error.
	ErrUnknown = 5000
)
