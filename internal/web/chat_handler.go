package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/edgard/carebot/internal/auth"
	"github.com/edgard/carebot/internal/conversation"
)

// ChatHandler exposes conversation sessions over HTTP.
type ChatHandler struct {
	sessions *conversation.Manager
	verifier *auth.Verifier
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewChatHandler(sessions *conversation.Manager, verifier *auth.Verifier, allowedOrigins []string, log *slog.Logger) *ChatHandler {
	return &ChatHandler{
		sessions: sessions,
		verifier: verifier,
		logger:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(allowedOrigins, origin) || sameHost(r, origin)
			},
		},
	}
}

func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleDisposeSession)
		r.Post("/messages", h.handleSubmitMessage)
		r.Put("/visibility", h.handleSetVisibility)
		r.Post("/visibility/toggle", h.handleToggleVisibility)
		r.Get("/ws", h.handleWebSocket)
	})
}

type sessionView struct {
	ID       string                 `json:"id"`
	State    conversation.State     `json:"state"`
	Open     bool                   `json:"open"`
	Pending  int                    `json:"pending"`
	Messages []conversation.Message `json:"messages"`
}

func viewOf(s *conversation.Session) sessionView {
	return sessionView{
		ID:       s.ID(),
		State:    s.State(),
		Open:     s.Visibility().IsOpen(),
		Pending:  s.Pending(),
		Messages: s.Messages(),
	}
}

type visibilityView struct {
	Open bool `json:"open"`
}

func (h *ChatHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	h.logger.InfoContext(r.Context(), "Chat session created", "session_id", s.ID())
	respondJSON(w, http.StatusCreated, viewOf(s))
}

func (h *ChatHandler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, viewOf(s))
}

func (h *ChatHandler) handleDisposeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.sessions.Dispose(id); err != nil {
		h.respondSessionError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Chat session disposed", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	authCtx := h.verifier.FromRequest(r)
	msg, err := s.Submit(payload.Text, authCtx)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Message submitted", "session_id", s.ID(), "auth", authCtx.String())
	respondJSON(w, http.StatusAccepted, msg)
}

func (h *ChatHandler) handleSetVisibility(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Open *bool `json:"open"`
	}
	if err := decodeJSON(w, r, &payload); err != nil || payload.Open == nil {
		respondError(w, http.StatusBadRequest, "open is required")
		return
	}

	s.Visibility().Set(*payload.Open)
	respondJSON(w, http.StatusOK, visibilityView{Open: s.Visibility().IsOpen()})
}

func (h *ChatHandler) handleToggleVisibility(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, visibilityView{Open: s.Visibility().Toggle()})
}

func (h *ChatHandler) lookup(w http.ResponseWriter, r *http.Request) (*conversation.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondSessionError(w, err)
		return nil, false
	}
	return s, true
}

func (h *ChatHandler) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, conversation.ErrSessionDisposed):
		respondError(w, http.StatusGone, err.Error())
	default:
		h.logger.Error("Unexpected session error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
