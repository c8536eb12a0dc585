package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/carebot/internal/database"
)

// NewRegisterHandler returns a handler for /register <display name>. A
// registered Telegram user is answered with the authenticated templates.
func NewRegisterHandler(deps HandlerDeps) bot.HandlerFunc {
	return registerHandler{deps}.Handle
}

type registerHandler struct {
	deps HandlerDeps
}

func (h registerHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "register")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Register handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	name := commandArgs(update.Message.Text)
	if name == "" {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.RegisterUsage)
		return
	}

	user := &database.User{
		Platform:    database.PlatformTelegram,
		UserID:      userID,
		DisplayName: name,
	}
	if err := h.deps.Store.SaveUser(ctx, user); err != nil {
		log.ErrorContext(ctx, "Failed to save user", "error", err, "user_id", userID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "User registered", "user_id", userID, "chat_id", chatID)
	reply(ctx, b, log, chatID, withName(h.deps.Config.Messages.Registered, name))
}
