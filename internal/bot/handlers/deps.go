package handlers

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/carebot/internal/auth"
	"github.com/edgard/carebot/internal/config"
	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/database"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Sessions  *conversation.Manager
	Directory *auth.Directory
	Relay     *Relay
	Clock     clockwork.Clock
}

func (d HandlerDeps) clock() clockwork.Clock {
	if d.Clock == nil {
		return clockwork.NewRealClock()
	}
	return d.Clock
}
