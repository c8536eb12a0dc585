package auth

import (
	"context"
	"log/slog"

	"github.com/edgard/carebot/internal/database"
	"github.com/edgard/carebot/internal/logger"
	"github.com/edgard/carebot/internal/responder"
)

// UserLookup is the part of the store the directory needs.
type UserLookup interface {
	GetUser(ctx context.Context, platform string, userID int64) (*database.User, error)
}

// Directory derives the auth context of platform users from their stored
// registration. Unregistered users and lookup failures are anonymous.
type Directory struct {
	users    UserLookup
	platform string
	logger   *slog.Logger
}

func NewDirectory(users UserLookup, platform string, log *slog.Logger) *Directory {
	if log == nil {
		log = logger.Discard()
	}
	return &Directory{
		users:    users,
		platform: platform,
		logger:   log.With("component", "auth_directory", "platform", platform),
	}
}

func (d *Directory) Context(ctx context.Context, userID int64) responder.AuthContext {
	if d == nil || d.users == nil || userID == 0 {
		return responder.Anonymous()
	}
	user, err := d.users.GetUser(ctx, d.platform, userID)
	if err != nil {
		d.logger.WarnContext(ctx, "User lookup failed, treating as anonymous", "user_id", userID, "error", err)
		return responder.Anonymous()
	}
	if user == nil {
		return responder.Anonymous()
	}
	return responder.Authenticated(user.DisplayName)
}
