/*
Package handler provides the HTTP handlers and routing setup for the local UI bridge.

This file builds the chi router: CORS and origin checks derived from the configuration,
request IDs and logging, per-IP limits on session creation and uploads, and the routes.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"nickchat/internal/configs"
	"nickchat/internal/pkg/limiter"
	"nickchat/internal/pkg/logx"
	"nickchat/internal/pkg/resp"
)

// Per-IP limits. Opening /ws creates a session and a broker connection, so it is the
// scarcer of the two.
const (
	ConnectRate  = 0.2
	ConnectBurst = 5
	UploadRate   = 0.5
	UploadBurst  = 5
)

// Router returns the bridge's HTTP handler. Background work owned by the router, such as
// the limiters' sweeps, stops when ctx is cancelled.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(ConnectRate), ConnectBurst)
	uploadLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(UploadRate), UploadBurst)

	r := chi.NewRouter()

	r.Use(corsHandler(deps.Config))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"status":   "ok",
			"sessions": deps.Manager.Count(),
		})
	})

	r.Route("/api/sessions/{handle}", func(api chi.Router) {
		api.Get("/", HandleGetSession(deps))
		api.Post("/text", HandleSendText(deps))
		api.With(uploadLimiter.Middleware).Post("/image", HandleUploadImage(deps))
	})

	r.Get("/ws", HandleWebSocket(deps.Manager, newUpgrader(deps.Config), connectLimiter))

	return r
}

// corsHandler allows any origin in development and only the configured ones otherwise.
func corsHandler(cfg *configs.AppConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if cfg.IsDevelopment() {
		origins = []string{"*"}
	}

	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}

	// An empty list means "*" to rs/cors.
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return false }
	}

	return cors.New(opts).Handler
}

// newUpgrader applies the same origin policy as CORS to WebSocket handshakes.
// Requests without an Origin header come from non-browser clients and are accepted.
func newUpgrader(cfg *configs.AppConfig) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if cfg.IsDevelopment() || origin == "" {
				return true
			}

			if _, ok := allowed[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}
}
