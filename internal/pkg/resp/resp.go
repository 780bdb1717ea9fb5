/*
Package resp writes the bridge's JSON envelope: {code, message, data}.

Code 0 means success; any other code is an errs constant and the HTTP status comes
from the matching CustomError.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/logx"
)

// successMessage is the message of every successful envelope.
const successMessage = "success"

// JSONResponse is the envelope of every bridge HTTP response.
type JSONResponse struct {
	// Code is 0 on success, otherwise an errs code.
	Code int `json:"code"`

	// Message is "success" or the error's user-facing text.
	Message string `json:"message"`

	// Data is the payload of a successful response.
	Data any `json:"data,omitempty"`
}

// RespondJSON marshals payload and writes it with httpStatus. A payload that cannot be
// marshalled becomes a plain 500.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logx.FromRequest(r).Error().Err(err).Int("http_status", httpStatus).Msg("Failed to encode JSON response.")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	header := w.Header()
	header.Set("Content-Type", "application/json")
	header.Set("X-Content-Type-Options", "nosniff")

	w.WriteHeader(httpStatus)
	if _, err := w.Write(body); err != nil {
		logx.FromRequest(r).Debug().Err(err).Msg("Failed to write response body.")
	}
}

// RespondSuccess writes a 200 envelope carrying data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{Message: successMessage, Data: data})
}

// RespondError writes the envelope for customErr. A nil error is reported as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	status := customErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logx.FromRequest(r).Error().Int("code", customErr.Code).Msg(customErr.Message)
	}

	RespondJSON(w, r, status, JSONResponse{Code: customErr.Code, Message: customErr.Message})
}
