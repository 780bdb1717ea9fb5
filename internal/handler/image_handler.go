package handler

import (
	"net/http"

	"nickchat/internal/app/chat"
	"nickchat/internal/pkg/logx"
	"nickchat/internal/pkg/req"
	"nickchat/internal/pkg/resp"
)

// imageFormField is the multipart field carrying the uploaded image.
const imageFormField = "file"

// HandleUploadImage reads an uploaded image, encodes it as a data URI and sends it
// through the addressed session.
func HandleUploadImage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := lookupClient(w, r, deps.Manager)
		if client == nil {
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		data, header, customErr := req.ReadFormFile(r, imageFormField)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}

		dataURI, customErr := chat.EncodeImage(header.Filename, mimeType, data)
		if customErr != nil {
			logx.FromRequest(r).Info().
				Str("handle", client.Handle).
				Str("file_name", header.Filename).
				Int("code", customErr.Code).
				Msg("Image upload rejected.")
			resp.RespondError(w, r, customErr)
			return
		}

		if err := client.Session().SendImage(r.Context(), dataURI); err != nil {
			respondSessionError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"fileName": header.Filename,
			"size":     len(dataURI),
		})
	}
}
