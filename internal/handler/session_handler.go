/*
Package handler provides HTTP handler functions for inspecting and driving bridge sessions.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nickchat/internal/app/bridge"
	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/logx"
	"nickchat/internal/pkg/randx"
	"nickchat/internal/pkg/req"
	"nickchat/internal/pkg/resp"
)

// SendTextInput is the JSON body of a text message sent over HTTP.
type SendTextInput struct {
	Text string `json:"text"`
}

// lookupClient resolves the {handle} URL parameter to a live client, or writes an error response.
func lookupClient(w http.ResponseWriter, r *http.Request, manager *bridge.Manager) *bridge.Client {
	handle := chi.URLParam(r, "handle")
	if !randx.IsValidSessionHandle(handle) {
		resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
		return nil
	}

	client := manager.GetClient(handle)
	if client == nil {
		logx.FromRequest(r).Info().Str("handle", handle).Msg("Session lookup failed.")
		resp.RespondError(w, r, errs.NewError(errs.ErrSessionNotFound))
		return nil
	}

	return client
}

// HandleGetSession returns the current snapshot of a session.
func HandleGetSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := lookupClient(w, r, deps.Manager)
		if client == nil {
			return
		}

		resp.RespondSuccess(w, r, client.Session().Snapshot())
	}
}

// HandleSendText publishes a text message on behalf of a session.
func HandleSendText(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := lookupClient(w, r, deps.Manager)
		if client == nil {
			return
		}

		var input SendTextInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if len(input.Text) > bridge.MaxTextBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := client.Session().SendText(r.Context(), input.Text); err != nil {
			respondSessionError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// respondSessionError maps an error returned by a session action onto an HTTP response.
func respondSessionError(w http.ResponseWriter, r *http.Request, err error) {
	customErr, ok := errs.As(err)
	switch {
	case !ok:
		logx.FromRequest(r).Error().Err(err).Msg("Session action failed.")
		customErr = errs.NewError(errs.ErrUnknown)
	case errs.IsPrecondition(err):
		logx.FromRequest(r).Debug().Int("code", customErr.Code).Msg("Session action refused.")
	default:
		logx.FromRequest(r).Warn().Int("code", customErr.Code).Msg("Session action failed.")
	}

	resp.RespondError(w, r, customErr)
}
