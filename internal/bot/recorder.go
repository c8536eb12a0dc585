package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/carebot/internal/bot/handlers"
	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/database"
	"github.com/edgard/carebot/internal/responder"
)

const recordTimeout = 5 * time.Second

// NewRuleHitRecorder returns a reply hook that stores which rule answered
// each delivered reply. Failures are logged and never reach the session.
func NewRuleHitRecorder(store database.Store, logger *slog.Logger) conversation.ReplyHook {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "rule_hit_recorder")

	return func(sessionID string, msg conversation.Message, reply responder.Reply, auth responder.AuthContext) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		hit := &database.RuleHit{
			Rule:          reply.Rule,
			Channel:       channelOf(sessionID),
			Authenticated: auth.Authenticated,
			CreatedAt:     msg.CreatedAt,
		}
		if err := store.RecordRuleHit(ctx, hit); err != nil {
			log.WarnContext(ctx, "Failed to record rule hit", "session_id", sessionID, "rule", reply.Rule, "error", err)
		}
	}
}

func channelOf(sessionID string) string {
	if handlers.IsTelegramSession(sessionID) {
		return database.ChannelTelegram
	}
	return database.ChannelWidget
}
