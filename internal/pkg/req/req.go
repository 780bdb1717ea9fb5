/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates the logic for parsing JSON and Multipart Form data, and integrates
error handling to ensure data format correctness and size constraints, facilitating
subsequent business logic processing.
*/
package req

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"nickchat/internal/pkg/errs"
)

const (
	// MaxFormMemory defines the maximum amount of memory (1 MB) ParseMultipartForm
	// will use to store form data. Parts exceeding this limit are stored in temporary files.
	MaxFormMemory int64 = 1 << 20 // 1 MB

	// MaxRequestFileSize defines the maximum allowed size (1 MB) for the entire request body, including files.
	// This limit is enforced via http.MaxBytesReader. Images are checked against their own, smaller ceiling later.
	MaxRequestFileSize int64 = 1 << 20 // 1 MB

	// MaxJSONBodySize bounds JSON request bodies.
	MaxJSONBodySize int64 = 64 << 10 // 64 KB
)

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination struct dst.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBodySize))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	return nil
}

// SetupMultipart sets up and parses Multipart Form or URL-encoded form data from the HTTP request.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestFileSize)

	err := r.ParseMultipartForm(MaxFormMemory)

	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}

		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}

// ReadFormFile reads the named file part of a parsed multipart form fully into memory.
// It returns the part header so callers can inspect the file name and declared content type.
func ReadFormFile(r *http.Request, field string) ([]byte, *multipart.FileHeader, *errs.CustomError) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, errs.NewError(errs.ErrInvalidParams)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, errs.NewError(errs.ErrFormParseFailed)
	}

	return data, header, nil
}
