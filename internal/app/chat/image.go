package chat

import (
	"encoding/base64"
	"path/filepath"
	"strings"

	"nickchat/internal/pkg/errs"
)

const (
	// MaxImageKiB is the image ceiling in kibibytes.
	MaxImageKiB = 500

	// MaxImageBytes is the largest accepted data URI, measured on its encoded length.
	MaxImageBytes = MaxImageKiB * 1024

	dataURIPrefix = "data:"
	base64Marker  = ";base64,"
)

// AllowedMIMETypes defines the set of permitted image MIME types.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ValidateFileType checks if the provided file name and MIME type are allowed and agree with each other.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(strings.TrimSpace(mimeType))

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrUnsupportedImage)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) < 2 {
		return errs.NewError(errs.ErrUnsupportedImage)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok || expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrUnsupportedImage)
	}

	return nil
}

// EncodeImage turns raw file bytes into a data URI ready for SendImage.
// The size ceiling applies to the encoded result, not to the raw file.
func EncodeImage(fileName string, mimeType string, data []byte) (string, *errs.CustomError) {
	if err := ValidateFileType(fileName, mimeType); err != nil {
		return "", err
	}

	if len(data) == 0 {
		return "", errs.NewError(errs.ErrUnsupportedImage)
	}

	prefix := dataURIPrefix + strings.ToLower(strings.TrimSpace(mimeType)) + base64Marker
	if len(prefix)+base64.StdEncoding.EncodedLen(len(data)) > MaxImageBytes {
		return "", errs.NewError(errs.ErrPayloadTooLarge, MaxImageKiB)
	}

	return prefix + base64.StdEncoding.EncodeToString(data), nil
}

// ValidateImageData checks a data URI against the size ceiling first, then its shape:
// data:image/<type>;base64,<body> with an accepted type and a base64 body.
func ValidateImageData(dataURI string) *errs.CustomError {
	if len(dataURI) > MaxImageBytes {
		return errs.NewError(errs.ErrPayloadTooLarge, MaxImageKiB)
	}

	mimeType, body, ok := splitDataURI(dataURI)
	if !ok {
		return errs.NewError(errs.ErrUnsupportedImage)
	}

	if _, allowed := AllowedMIMETypes[strings.ToLower(mimeType)]; !allowed {
		return errs.NewError(errs.ErrUnsupportedImage)
	}

	if body == "" || strings.IndexFunc(body, notBase64) >= 0 {
		return errs.NewError(errs.ErrUnsupportedImage)
	}

	return nil
}

func splitDataURI(dataURI string) (mimeType string, body string, ok bool) {
	rest, found := strings.CutPrefix(dataURI, dataURIPrefix)
	if !found {
		return "", "", false
	}

	return strings.Cut(rest, base64Marker)
}

func notBase64(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return false
	case r == '+', r == '/', r == '=':
		return false
	default:
		return true
	}
}
