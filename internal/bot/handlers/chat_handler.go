package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/carebot/internal/conversation"
)

// NewChatHandler returns the default handler. Every private, non-command
// text message is submitted to the chat's conversation session; the reply
// arrives after the typing delay through the relay.
func NewChatHandler(deps HandlerDeps) bot.HandlerFunc {
	return chatHandler{deps}.Handle
}

type chatHandler struct {
	deps HandlerDeps
}

func (h chatHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "chat")

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}
	if msg.Chat.Type != models.ChatTypePrivate {
		log.DebugContext(ctx, "Ignoring non-private chat message", "chat_id", msg.Chat.ID, "chat_type", msg.Chat.Type)
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		reply(ctx, b, log, msg.Chat.ID, withBotName(h.deps.Config.Messages.Help, h.deps.Config.Telegram.BotInfo))
		return
	}

	authCtx := h.deps.Directory.Context(ctx, msg.From.ID)
	_, err := h.session(ctx, b, msg.Chat.ID).Submit(msg.Text, authCtx)
	if errors.Is(err, conversation.ErrSessionDisposed) {
		// Swept between lookup and submit.
		_, err = h.session(ctx, b, msg.Chat.ID).Submit(msg.Text, authCtx)
	}
	if err != nil {
		if errors.Is(err, conversation.ErrEmptyMessage) {
			return
		}
		log.ErrorContext(ctx, "Failed to submit message", "error", err, "chat_id", msg.Chat.ID)
		reply(ctx, b, log, msg.Chat.ID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.DebugContext(ctx, "Message submitted", "chat_id", msg.Chat.ID, "auth", authCtx.String())
}

func (h chatHandler) session(ctx context.Context, b *bot.Bot, chatID int64) *conversation.Session {
	s, created := h.deps.Sessions.GetOrCreate(SessionID(chatID))
	if created {
		h.deps.Logger.InfoContext(ctx, "Telegram conversation started", "chat_id", chatID, "session_id", s.ID())
		h.deps.Relay.Attach(ctx, b, chatID, s)
	}
	return s
}
