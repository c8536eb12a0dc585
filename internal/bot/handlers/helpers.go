package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/carebot/internal/database"
	"github.com/edgard/carebot/internal/responder"
)

// sessionPrefix scopes Telegram chats inside the shared session manager.
const sessionPrefix = "tg:"

// SessionID returns the conversation session id of a Telegram chat.
func SessionID(chatID int64) string {
	return sessionPrefix + strconv.FormatInt(chatID, 10)
}

// IsTelegramSession reports whether a session id was produced by SessionID.
func IsTelegramSession(id string) bool {
	return strings.HasPrefix(id, sessionPrefix)
}

func reply(ctx context.Context, b *tgbot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

// commandArgs returns the text following a "/command" or "/command@bot"
// prefix, trimmed.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	idx := strings.IndexAny(text, " \t\n")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+1:])
}

// withBotName replaces the @botname placeholder with the bot's username.
func withBotName(text string, botInfo *models.User) string {
	if botInfo == nil || botInfo.Username == "" {
		return text
	}
	return strings.ReplaceAll(text, "@botname", "@"+botInfo.Username)
}

// withName fills the {name} placeholder of a configured message.
func withName(text, name string) string {
	return strings.ReplaceAll(text, responder.NamePlaceholder, name)
}

func formatStats(header string, counts []database.RuleHitCount) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, c := range counts {
		fmt.Fprintf(&sb, "- %s: %d\n", c.Rule, c.Count)
	}
	return strings.TrimRight(sb.String(), "\n")
}
