// Package web serves the chat widget API: session lifecycle, message
// submission, the visibility toggle and a WebSocket stream of new messages.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/edgard/carebot/internal/auth"
	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/logger"
)

const maxBodyBytes = 16 << 10

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Logger         *slog.Logger
	Sessions       *conversation.Manager
	Verifier       *auth.Verifier
	Health         Pinger
	AllowedOrigins []string
}

// NewRouter wires the HTTP routes.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	log := deps.Logger.With("component", "http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(cors(deps.AllowedOrigins))

	r.Get("/healthz", healthHandler(deps.Health))

	chat := NewChatHandler(deps.Sessions, deps.Verifier, deps.AllowedOrigins, log)
	r.Route("/api/chat", chat.RegisterRoutes)

	return r
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// cors allows the widget to be embedded on the listed origins. "*" allows
// any origin; an empty list disables CORS headers.
func cors(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(allowed, origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				h.Add("Vary", "Origin")
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
