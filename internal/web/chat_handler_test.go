package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/edgard/carebot/internal/auth"
	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/responder"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testDelay  = 100 * time.Millisecond
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type testServer struct {
	handler  http.Handler
	sessions *conversation.Manager
	clock    *clockwork.FakeClock
	issuer   *auth.Issuer
}

func setupRouter(t *testing.T) *testServer {
	t.Helper()
	clock := clockwork.NewFakeClock()
	sessions := conversation.NewManager(responder.NewDefault(), conversation.Config{
		TypingDelay: testDelay,
		Clock:       clock,
	})
	t.Cleanup(func() { sessions.Close() })

	h := NewRouter(Deps{
		Sessions:       sessions,
		Verifier:       auth.NewVerifier(testSecret, "carebot", nil),
		Health:         fakePinger{},
		AllowedOrigins: []string{"https://carelink.example"},
	})
	return &testServer{
		handler:  h,
		sessions: sessions,
		clock:    clock,
		issuer:   auth.NewIssuer(testSecret, "carebot", time.Hour, nil),
	}
}

func (ts *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	ts.handler.ServeHTTP(resp, req)
	return resp
}

func (ts *testServer) createSession(t *testing.T) sessionView {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/chat/sessions", "", "")
	require.Equal(t, http.StatusCreated, resp.Code)

	var view sessionView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	return view
}

func decodeView(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestCreateSession(t *testing.T) {
	ts := setupRouter(t)

	view := ts.createSession(t)
	require.NotEmpty(t, view.ID)
	require.Len(t, view.Messages, 1)
	require.Equal(t, conversation.AuthorBot, view.Messages[0].Author)
	require.False(t, view.Open)
	require.Equal(t, 1, ts.sessions.Len())
}

func TestGetSessionNotFound(t *testing.T) {
	ts := setupRouter(t)

	resp := ts.do(t, http.MethodGet, "/api/chat/sessions/unknown", "", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSubmitMessageAnonymous(t *testing.T) {
	ts := setupRouter(t)
	view := ts.createSession(t)
	base := "/api/chat/sessions/" + view.ID

	resp := ts.do(t, http.MethodPost, base+"/messages", `{"text":"Tôi muốn đặt lịch khám"}`, "")
	require.Equal(t, http.StatusAccepted, resp.Code)
	require.Equal(t, "user", decodeView(t, resp)["author"])

	resp = ts.do(t, http.MethodGet, base, "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	got := decodeView(t, resp)
	require.Equal(t, "awaiting_reply", got["state"])
	require.Len(t, got["messages"], 2)

	s, err := ts.sessions.Get(view.ID)
	require.NoError(t, err)
	ts.clock.Advance(testDelay)
	require.Eventually(t, func() bool { return s.Len() == 3 }, time.Second, 5*time.Millisecond)

	reply := s.Messages()[2].Text
	require.Contains(t, reply, "#/register")
	require.Contains(t, reply, "#/login")
}

func TestSubmitMessageAuthenticated(t *testing.T) {
	ts := setupRouter(t)
	view := ts.createSession(t)
	token, err := ts.issuer.Issue("Lan")
	require.NoError(t, err)

	resp := ts.do(t, http.MethodPost, "/api/chat/sessions/"+view.ID+"/messages", `{"text":"cảm ơn bạn"}`, token)
	require.Equal(t, http.StatusAccepted, resp.Code)

	s, err := ts.sessions.Get(view.ID)
	require.NoError(t, err)
	ts.clock.Advance(testDelay)
	require.Eventually(t, func() bool { return s.Len() == 3 }, time.Second, 5*time.Millisecond)

	reply := s.Messages()[2].Text
	require.Contains(t, reply, "Lan")
	require.NotContains(t, reply, "#/register")
}

func TestSubmitMessageRejected(t *testing.T) {
	ts := setupRouter(t)
	view := ts.createSession(t)
	path := "/api/chat/sessions/" + view.ID + "/messages"

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "empty text", body: `{"text":""}`, code: http.StatusBadRequest},
		{name: "whitespace text", body: `{"text":"   "}`, code: http.StatusBadRequest},
		{name: "malformed body", body: `{"text":`, code: http.StatusBadRequest},
		{name: "unknown field", body: `{"message":"hi"}`, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, path, tt.body, "")
			require.Equal(t, tt.code, resp.Code)
		})
	}

	s, err := ts.sessions.Get(view.ID)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	resp := ts.do(t, http.MethodPost, "/api/chat/sessions/missing/messages", `{"text":"hi"}`, "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestVisibility(t *testing.T) {
	ts := setupRouter(t)
	view := ts.createSession(t)
	base := "/api/chat/sessions/" + view.ID

	resp := ts.do(t, http.MethodPut, base+"/visibility", `{"open":true}`, "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, true, decodeView(t, resp)["open"])

	resp = ts.do(t, http.MethodPost, base+"/visibility/toggle", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, false, decodeView(t, resp)["open"])

	resp = ts.do(t, http.MethodPut, base+"/visibility", `{}`, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(t, http.MethodGet, base, "", "")
	require.Len(t, decodeView(t, resp)["messages"], 1)
}

func TestDisposeSession(t *testing.T) {
	ts := setupRouter(t)
	view := ts.createSession(t)
	base := "/api/chat/sessions/" + view.ID

	resp := ts.do(t, http.MethodPost, base+"/messages", `{"text":"bác sĩ"}`, "")
	require.Equal(t, http.StatusAccepted, resp.Code)
	s, err := ts.sessions.Get(view.ID)
	require.NoError(t, err)

	resp = ts.do(t, http.MethodDelete, base, "", "")
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.True(t, s.Disposed())

	ts.clock.Advance(testDelay)
	require.Never(t, func() bool { return s.Len() != 2 }, 50*time.Millisecond, 5*time.Millisecond)

	resp = ts.do(t, http.MethodDelete, base, "", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
	resp = ts.do(t, http.MethodPost, base+"/messages", `{"text":"hi"}`, "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRespondSessionErrorGone(t *testing.T) {
	h := NewChatHandler(nil, nil, nil, nil)
	resp := httptest.NewRecorder()
	h.respondSessionError(resp, conversation.ErrSessionDisposed)
	require.Equal(t, http.StatusGone, resp.Code)
}

func TestHealthz(t *testing.T) {
	ts := setupRouter(t)
	resp := ts.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, resp.Code)

	down := NewRouter(Deps{Sessions: ts.sessions, Health: fakePinger{err: errors.New("db down")}})
	resp = httptest.NewRecorder()
	down.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.True(t, strings.Contains(resp.Body.String(), "db down"))
}

func TestCORS(t *testing.T) {
	ts := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/sessions", nil)
	req.Header.Set("Origin", "https://carelink.example")
	resp := httptest.NewRecorder()
	ts.handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, "https://carelink.example", resp.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp = httptest.NewRecorder()
	ts.handler.ServeHTTP(resp, req)
	require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
