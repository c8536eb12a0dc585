package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 365
)

// NewStatsHandler returns a handler for /stats [days], reporting how often
// each rule answered in the given window.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil {
		log.WarnContext(ctx, "Stats handler received update with nil message", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	days := statsWindow(commandArgs(update.Message.Text))
	since := h.deps.clock().Now().Add(-time.Duration(days) * 24 * time.Hour)

	counts, err := h.deps.Store.RuleHitCounts(ctx, since)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load rule hit counts", "error", err)
		reply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if len(counts) == 0 {
		reply(ctx, b, log, chatID, h.deps.Config.Messages.NoStats)
		return
	}

	log.InfoContext(ctx, "Sending rule statistics", "days", days, "rules", len(counts))
	reply(ctx, b, log, chatID, formatStats(h.deps.Config.Messages.StatsHeader, counts))
}

// statsWindow parses the optional day count, falling back to the default for
// anything that is not a positive number.
func statsWindow(arg string) int {
	days, err := strconv.Atoi(arg)
	if err != nil || days <= 0 {
		return defaultStatsDays
	}
	return min(days, maxStatsDays)
}
