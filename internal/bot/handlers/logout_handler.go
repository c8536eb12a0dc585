package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/carebot/internal/database"
)

// NewLogoutHandler returns a handler for /logout. It removes the stored
// registration so later messages get the anonymous templates.
func NewLogoutHandler(deps HandlerDeps) bot.HandlerFunc {
	return logoutHandler{deps}.Handle
}

type logoutHandler struct {
	deps HandlerDeps
}

func (h logoutHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "logout")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Logout handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	existed, err := h.deps.Store.DeleteUser(ctx, database.PlatformTelegram, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to delete user", "error", err, "user_id", userID)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if !existed {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.NotRegistered)
		return
	}

	log.InfoContext(ctx, "User logged out", "user_id", userID)
	reply(ctx, b, log, chatID, h.deps.Config.Messages.LoggedOut)
}
