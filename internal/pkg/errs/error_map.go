/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses, browser error frames, and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Broker and Payload Errors
	ErrConnection:        {Code: ErrConnection, Message: "Unable to reach the chat server."},
	ErrMalformedEnvelope: {Code: ErrMalformedEnvelope, Message: "Received a malformed message: %s."},
	ErrPayloadTooLarge:   {Code: ErrPayloadTooLarge, Message: "Image is too large (max %d KiB).", Status: http.StatusRequestEntityTooLarge},
	ErrUnsupportedImage:  {Code: ErrUnsupportedImage, Message: "Only JPEG, PNG, WebP and GIF images are supported.", Status: http.StatusUnsupportedMediaType},

	// 21xx: Precondition Errors
	ErrNotConnected:    {Code: ErrNotConnected, Message: "You are not connected to the chat.", Status: http.StatusConflict},
	ErrEmptyText:       {Code: ErrEmptyText, Message: "Message cannot be empty.", Status: http.StatusBadRequest},
	ErrAlreadyJoined:   {Code: ErrAlreadyJoined, Message: "You have already joined the chat.", Status: http.StatusConflict},
	ErrInvalidNickname: {Code: ErrInvalidNickname, Message: "Please enter a nickname.", Status: http.StatusBadRequest},

	// 3xxx: Bridge Session Errors
	ErrSessionNotFound: {Code: ErrSessionNotFound, Message: "Chat session not found.", Status: http.StatusNotFound},
	ErrSessionClosed:   {Code: ErrSessionClosed, Message: "Chat session has ended.", Status: http.StatusGone},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
