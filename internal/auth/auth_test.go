package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/edgard/carebot/internal/database"
	"github.com/edgard/carebot/internal/responder"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	clock := clockwork.NewFakeClock()
	issuer := NewIssuer(testSecret, "carebot", time.Hour, clock)
	verifier := NewVerifier(testSecret, "carebot", clock)

	token, err := issuer.Issue(" Lan ")
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "Lan", claims.DisplayName)
	require.Equal(t, "Lan", claims.Subject)

	require.Equal(t, responder.Authenticated("Lan"), verifier.Context(token))
}

func TestVerify_Rejects(t *testing.T) {
	clock := clockwork.NewFakeClock()
	issuer := NewIssuer(testSecret, "carebot", time.Hour, clock)
	token, err := issuer.Issue("An")
	require.NoError(t, err)

	otherIssuer, err := NewIssuer(testSecret, "someone-else", time.Hour, clock).Issue("An")
	require.NoError(t, err)
	otherSecret, err := NewIssuer("ffffffffffffffffffffffffffffffff", "carebot", time.Hour, clock).Issue("An")
	require.NoError(t, err)

	verifier := NewVerifier(testSecret, "carebot", clock)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong issuer", token: otherIssuer},
		{name: "wrong secret", token: otherSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			require.ErrorIs(t, err, ErrInvalidToken)
			require.Equal(t, responder.Anonymous(), verifier.Context(tt.token))
		})
	}

	clock.Advance(2 * time.Hour)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_Errors(t *testing.T) {
	_, err := NewIssuer("", "carebot", time.Hour, nil).Issue("An")
	require.ErrorIs(t, err, ErrNoSecret)

	_, err = NewIssuer(testSecret, "carebot", time.Hour, nil).Issue("   ")
	require.Error(t, err)
}

func TestVerifier_Disabled(t *testing.T) {
	v := NewVerifier("", "carebot", nil)
	require.False(t, v.Enabled())

	_, err := v.Verify("anything")
	require.ErrorIs(t, err, ErrNoSecret)
	require.Equal(t, responder.Anonymous(), v.Context("anything"))
}

func TestFromRequest(t *testing.T) {
	issuer := NewIssuer(testSecret, "carebot", time.Hour, nil)
	verifier := NewVerifier(testSecret, "carebot", nil)
	token, err := issuer.Issue("An")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, responder.Anonymous(), verifier.FromRequest(r))

	r.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, responder.Authenticated("An"), verifier.FromRequest(r))

	r.Header.Set("Authorization", "Basic "+token)
	require.Equal(t, responder.Anonymous(), verifier.FromRequest(r))

	ws := httptest.NewRequest(http.MethodGet, "/ws?access_token="+token, nil)
	require.Equal(t, responder.Authenticated("An"), verifier.FromRequest(ws))
}

type fakeUsers struct {
	users map[int64]*database.User
	err   error
}

func (f fakeUsers) GetUser(_ context.Context, _ string, userID int64) (*database.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[userID], nil
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(fakeUsers{users: map[int64]*database.User{
		7: {Platform: database.PlatformTelegram, UserID: 7, DisplayName: "Lan"},
	}}, database.PlatformTelegram, nil)

	require.Equal(t, responder.Authenticated("Lan"), d.Context(ctx, 7))
	require.Equal(t, responder.Anonymous(), d.Context(ctx, 8))
	require.Equal(t, responder.Anonymous(), d.Context(ctx, 0))

	failing := NewDirectory(fakeUsers{err: errors.New("db down")}, database.PlatformTelegram, nil)
	require.Equal(t, responder.Anonymous(), failing.Context(ctx, 7))
}
