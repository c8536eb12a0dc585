package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/edgard/carebot/internal/conversation"
)

func dialSession(t *testing.T, ts *testServer, id, token string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(ts.handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/sessions/" + id + "/ws"
	if token != "" {
		url += "?access_token=" + token
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) outgoingEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev outgoingEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWebSocketStream(t *testing.T) {
	ts := setupRouter(t)
	view := ts.createSession(t)
	token, err := ts.issuer.Issue("An")
	require.NoError(t, err)

	conn := dialSession(t, ts, view.ID, token)

	ev := readEvent(t, conn)
	require.Equal(t, eventSnapshot, ev.Type)
	require.NotNil(t, ev.Session)
	require.Len(t, ev.Session.Messages, 1)

	require.NoError(t, conn.WriteJSON(inboundFrame{Type: inboundMessage, Text: "bác sĩ"}))
	ev = readEvent(t, conn)
	require.Equal(t, eventMessage, ev.Type)
	require.Equal(t, conversation.AuthorUser, ev.Message.Author)
	require.Equal(t, "bác sĩ", ev.Message.Text)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ts.clock.BlockUntilContext(ctx, 1))
	ts.clock.Advance(testDelay)
	ev = readEvent(t, conn)
	require.Equal(t, eventMessage, ev.Type)
	require.Equal(t, conversation.AuthorBot, ev.Message.Author)
	require.Contains(t, ev.Message.Text, "An")

	require.NoError(t, conn.WriteJSON(inboundFrame{Type: inboundMessage, Text: "  "}))
	ev = readEvent(t, conn)
	require.Equal(t, eventError, ev.Type)
	require.Equal(t, conversation.ErrEmptyMessage.Error(), ev.Error)

	open := true
	require.NoError(t, conn.WriteJSON(inboundFrame{Type: inboundVisibility, Open: &open}))
	ev = readEvent(t, conn)
	require.Equal(t, eventVisibility, ev.Type)
	require.True(t, *ev.Open)

	require.NoError(t, ts.sessions.Dispose(view.ID))
	ev = readEvent(t, conn)
	require.Equal(t, eventClosed, ev.Type)
}

func TestWebSocketKeepsSessionAlive(t *testing.T) {
	ts := setupRouter(t)
	view := ts.createSession(t)
	unwatched := ts.createSession(t)

	conn := dialSession(t, ts, view.ID, "")
	require.Equal(t, eventSnapshot, readEvent(t, conn).Type)

	ts.clock.Advance(31 * time.Minute)

	open := true
	require.NoError(t, conn.WriteJSON(inboundFrame{Type: inboundVisibility, Open: &open}))
	require.Equal(t, eventVisibility, readEvent(t, conn).Type)

	require.Equal(t, 1, ts.sessions.SweepIdle(30*time.Minute))

	_, err := ts.sessions.Get(unwatched.ID)
	require.ErrorIs(t, err, conversation.ErrSessionNotFound)

	s, err := ts.sessions.Get(view.ID)
	require.NoError(t, err)
	require.False(t, s.Disposed())

	require.NoError(t, conn.WriteJSON(inboundFrame{Type: inboundMessage, Text: "bác sĩ"}))
	ev := readEvent(t, conn)
	require.Equal(t, eventMessage, ev.Type)
	require.Equal(t, conversation.AuthorUser, ev.Message.Author)
}

func TestWebSocketUnknownSession(t *testing.T) {
	ts := setupRouter(t)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/sessions/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
