package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgard/carebot/internal/auth"
	"github.com/edgard/carebot/internal/config"
	"github.com/edgard/carebot/internal/responder"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestAskAnonymous(t *testing.T) {
	out, err := execute(t, "ask", "Tôi", "muốn", "đặt", "lịch")
	require.NoError(t, err)
	require.Equal(t, strings.TrimSpace(responder.NewDefault().Respond("Tôi muốn đặt lịch", responder.Anonymous())), out)
}

func TestAskAuthenticatedWithRule(t *testing.T) {
	out, err := execute(t, "ask", "--name", "Lan", "--rule", "cảm ơn bạn")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "["+responder.RuleThanks+"] "))
	require.Contains(t, out, "Lan")
}

func TestAskRequiresMessage(t *testing.T) {
	_, err := execute(t, "ask")
	require.Error(t, err)
}

func TestToken(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"
	t.Setenv("CAREBOT_AUTH_SECRET", secret)

	out, err := execute(t, "token", "--name", "An")
	require.NoError(t, err)

	claims, err := auth.NewVerifier(secret, config.DefaultAuthIssuer, nil).Verify(out)
	require.NoError(t, err)
	require.Equal(t, "An", claims.DisplayName)
}

func TestTokenWithoutSecret(t *testing.T) {
	t.Setenv("CAREBOT_AUTH_SECRET", "")

	_, err := execute(t, "token", "--name", "An")
	require.ErrorIs(t, err, auth.ErrNoSecret)
}
