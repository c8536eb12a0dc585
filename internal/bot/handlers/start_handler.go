package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler greets the user, by name when registered. The conversation
// session itself is created lazily by the first free-text message.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	authCtx := h.deps.Directory.Context(ctx, update.Message.From.ID)
	log.InfoContext(ctx, "Handling /start command", "chat_id", update.Message.Chat.ID, "user_id", update.Message.From.ID, "auth", authCtx.String())

	text := h.deps.Config.Messages.Welcome
	if authCtx.Authenticated {
		text = withName(h.deps.Config.Messages.WelcomeBack, authCtx.Name())
	}
	reply(ctx, b, log, update.Message.Chat.ID, withBotName(text, h.deps.Config.Telegram.BotInfo))
}
