package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/responder"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, DefaultLogLevel, cfg.Log.Level)
	require.True(t, cfg.HTTP.Enabled)
	require.Equal(t, DefaultHTTPAddr, cfg.HTTP.Addr)
	require.False(t, cfg.Telegram.Enabled)
	require.Equal(t, conversation.DefaultTypingDelay, cfg.Widget.TypingDelay)
	require.Equal(t, conversation.PolicySerialize, cfg.ReplyPolicy())
	require.Equal(t, responder.DefaultCallToAction, cfg.Responder.CallToAction)
	require.Len(t, cfg.Responder.Rules, len(responder.DefaultRules()))
	require.Equal(t, responder.DefaultFallback().Anonymous, cfg.Responder.Fallback.Anonymous)
	require.Equal(t, DefaultDBPath, cfg.Database.Path)
	require.Len(t, cfg.Scheduler.Tasks, len(DefaultTasks))
	require.True(t, cfg.Scheduler.Tasks[TaskSessionSweep].Enabled)
	require.Equal(t, DefaultMessages, cfg.Messages)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  json: true
widget:
  typing_delay: 250ms
  reply_policy: overlap
responder:
  call_to_action: ""
  rules:
    - name: hours
      triggers: ["giờ mở cửa", "opening hours"]
      authenticated: "{name}, chúng tôi mở cửa từ 8h đến 17h."
      anonymous: "Chúng tôi mở cửa từ 8h đến 17h."
scheduler:
  tasks:
    sql_maintenance:
      enabled: false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Log.JSON)
	require.Equal(t, 250*time.Millisecond, cfg.Widget.TypingDelay)
	require.Equal(t, conversation.PolicyOverlap, cfg.ReplyPolicy())
	require.Empty(t, cfg.Responder.CallToAction)
	require.Len(t, cfg.Responder.Rules, 1)
	require.Equal(t, "hours", cfg.Responder.Rules[0].Name)
	require.Equal(t, []string{"giờ mở cửa", "opening hours"}, cfg.Responder.Rules[0].Triggers)
	require.False(t, cfg.Scheduler.Tasks[TaskSQLMaintenance].Enabled)
	require.True(t, cfg.Scheduler.Tasks[TaskSessionSweep].Enabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CAREBOT_LOG_LEVEL", "warn")
	t.Setenv("CAREBOT_TELEGRAM_ENABLED", "true")
	t.Setenv("CAREBOT_TELEGRAM_TOKEN", "123456:abcdef")
	t.Setenv("CAREBOT_TELEGRAM_ADMIN_USER_ID", "42")
	t.Setenv("CAREBOT_AUTH_SECRET", "0123456789abcdef0123")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "warn", cfg.Log.Level)
	require.True(t, cfg.Telegram.Enabled)
	require.Equal(t, "123456:abcdef", cfg.Telegram.Token)
	require.Equal(t, int64(42), cfg.Telegram.AdminUserID)
	require.Equal(t, "0123456789abcdef0123", cfg.Auth.Secret)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "log level", body: "log:\n  level: verbose\n"},
		{name: "reply policy", body: "widget:\n  reply_policy: parallel\n"},
		{name: "telegram without token", body: "telegram:\n  enabled: true\n  admin_user_id: 1\n"},
		{name: "short secret", body: "auth:\n  secret: short\n"},
		{name: "idle timeout", body: "widget:\n  idle_timeout: 5s\n"},
		{name: "rule without triggers", body: "responder:\n  rules:\n    - name: x\n      authenticated: a\n      anonymous: b\n"},
		{name: "placeholder in anonymous fallback", body: "responder:\n  fallback:\n    anonymous: \"hi {name}\"\n"},
		{name: "enabled task without schedule", body: "scheduler:\n  tasks:\n    custom:\n      enabled: true\n"},
		{name: "malformed yaml", body: "log: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}
}
