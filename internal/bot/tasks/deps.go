// Package tasks implements the scheduled maintenance jobs of carebot.
package tasks

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/carebot/internal/config"
	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/database"
)

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Sessions *conversation.Manager
	Config   *config.Config
	Clock    clockwork.Clock
}
