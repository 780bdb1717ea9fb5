/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting, upgrading
the HTTP connection to WebSocket, registering a fresh chat session, and starting the client pumps.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"nickchat/internal/app/bridge"
	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/limiter"
	"nickchat/internal/pkg/logx"
	"nickchat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// Each accepted connection owns exactly one chat session for its whole lifetime.
func HandleWebSocket(manager *bridge.Manager, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client, customErr := manager.Register(conn)
		if customErr != nil {
			logx.Warn("WebSocket session rejected.", "code", customErr.Code)
			closeMessage := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, customErr.Message)
			_ = conn.WriteMessage(websocket.CloseMessage, closeMessage)
			_ = conn.Close()
			return
		}

		logx.Info("WebSocket connection established and session registered", "handle", client.Handle)

		go client.WritePump()
		go client.ForwardUpdates()

		client.ReadPump()
	}
}
