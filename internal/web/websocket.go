package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/responder"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 4096
)

// Event types written to WebSocket clients.
const (
	eventSnapshot   = "snapshot"
	eventMessage    = "message"
	eventVisibility = "visibility"
	eventClosed     = "closed"
	eventError      = "error"
)

// Inbound frame types.
const (
	inboundMessage    = "message"
	inboundVisibility = "visibility"
)

type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Open *bool  `json:"open,omitempty"`
}

type outgoingEvent struct {
	Type      string                `json:"type"`
	Session   *sessionView          `json:"session,omitempty"`
	Message   *conversation.Message `json:"message,omitempty"`
	State     *conversation.State   `json:"state,omitempty"`
	Open      *bool                 `json:"open,omitempty"`
	Error     string                `json:"error,omitempty"`
	Timestamp int64                 `json:"timestamp"`
}

// handleWebSocket streams every message appended to the session and accepts
// message and visibility frames from the client.
func (h *ChatHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	authCtx := h.verifier.FromRequest(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "WebSocket upgrade failed", "session_id", s.ID(), "error", err)
		return
	}
	defer conn.Close()

	log := h.logger.With("session_id", s.ID())
	log.InfoContext(r.Context(), "WebSocket connected", "auth", authCtx.String())

	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()
	s.Touch()

	snapshot := viewOf(s)
	seen := make(map[string]struct{}, len(snapshot.Messages))
	for _, m := range snapshot.Messages {
		seen[m.ID] = struct{}{}
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	replies := make(chan outgoingEvent, 8)
	go h.readLoop(ctx, cancel, conn, s, authCtx, replies)

	if err := writeEvent(conn, outgoingEvent{Type: eventSnapshot, Session: &snapshot}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.DebugContext(r.Context(), "WebSocket closed by client")
			return

		case msg, ok := <-updates:
			if !ok {
				_ = writeEvent(conn, outgoingEvent{Type: eventClosed})
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session disposed"),
					time.Now().Add(wsWriteWait))
				return
			}
			if _, dup := seen[msg.ID]; dup {
				continue
			}
			state := s.State()
			if err := writeEvent(conn, outgoingEvent{Type: eventMessage, Message: &msg, State: &state}); err != nil {
				log.DebugContext(r.Context(), "WebSocket write failed", "error", err)
				return
			}

		case ev := <-replies:
			if err := writeEvent(conn, ev); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// readLoop owns the read side of the connection. It never writes; responses
// go through replies so the handler goroutine stays the only writer.
func (h *ChatHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, s *conversation.Session, authCtx responder.AuthContext, replies chan<- outgoingEvent) {
	defer cancel()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		// A live widget keeps its session out of the idle sweep.
		s.Touch()
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.DebugContext(ctx, "WebSocket read error", "session_id", s.ID(), "error", err)
			}
			return
		}
		s.Touch()

		var reply *outgoingEvent
		switch frame.Type {
		case inboundMessage:
			if _, err := s.Submit(frame.Text, authCtx); err != nil {
				reply = &outgoingEvent{Type: eventError, Error: err.Error()}
			}
		case inboundVisibility:
			var open bool
			if frame.Open != nil {
				s.Visibility().Set(*frame.Open)
				open = *frame.Open
			} else {
				open = s.Visibility().Toggle()
			}
			reply = &outgoingEvent{Type: eventVisibility, Open: &open}
		default:
			reply = &outgoingEvent{Type: eventError, Error: "unsupported frame type: " + frame.Type}
		}

		if reply == nil {
			continue
		}
		select {
		case replies <- *reply:
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev outgoingEvent) error {
	ev.Timestamp = time.Now().Unix()
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}

func sameHost(r *http.Request, origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
