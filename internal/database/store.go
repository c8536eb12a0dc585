package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/carebot/internal/logger"
)

// Store defines the database operations used by carebot.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveUser inserts or updates the user identified by platform and user id.
	SaveUser(ctx context.Context, user *User) error

	// GetUser returns the user or nil, nil if not registered.
	GetUser(ctx context.Context, platform string, userID int64) (*User, error)

	// DeleteUser removes a registration. It reports whether a row existed.
	DeleteUser(ctx context.Context, platform string, userID int64) (bool, error)

	// RecordRuleHit stores one answered message.
	RecordRuleHit(ctx context.Context, hit *RuleHit) error

	// RuleHitCounts aggregates hits per rule since the given time, most
	// frequent first.
	RuleHitCounts(ctx context.Context, since time.Time) ([]RuleHitCount, error)

	// DeleteRuleHitsBefore removes hits older than cutoff and returns how many
	// were deleted.
	DeleteRuleHitsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs VACUUM and ANALYZE.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, log *slog.Logger) Store {
	if log == nil {
		log = logger.Discard()
	}
	return &sqlxStore{
		db:     db,
		logger: log.With("component", "store"),
		now:    time.Now,
	}
}

// dbTime normalises timestamps so the text encoding used by the driver
// compares correctly in SQL.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveUser(ctx context.Context, user *User) error {
	if user == nil {
		return errors.New("cannot save nil user")
	}
	if user.Platform == "" {
		return errors.New("user must have a platform")
	}
	if user.UserID == 0 {
		return errors.New("user must have a non-zero user_id")
	}
	user.DisplayName = strings.TrimSpace(user.DisplayName)
	if user.DisplayName == "" {
		return errors.New("user must have a display name")
	}

	now := dbTime(s.now())
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `
		INSERT INTO users (platform, user_id, display_name, created_at, updated_at)
		VALUES (:platform, :user_id, :display_name, :created_at, :updated_at)
		ON CONFLICT (platform, user_id) DO UPDATE SET
			display_name = excluded.display_name,
			updated_at = excluded.updated_at;
	`
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		s.logger.ErrorContext(ctx, "Error saving user", "platform", user.Platform, "user_id", user.UserID, "error", err)
		return fmt.Errorf("failed to save user %s/%d: %w", user.Platform, user.UserID, err)
	}

	s.logger.DebugContext(ctx, "User saved", "platform", user.Platform, "user_id", user.UserID)
	return nil
}

func (s *sqlxStore) GetUser(ctx context.Context, platform string, userID int64) (*User, error) {
	if userID == 0 {
		return nil, errors.New("user_id cannot be zero")
	}

	var user User
	query := `SELECT id, created_at, updated_at, platform, user_id, display_name
	          FROM users WHERE platform = ? AND user_id = ?`
	err := s.db.GetContext(ctx, &user, query, platform, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching user", "user_id", userID, "error", err)
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "platform", platform, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user %s/%d: %w", platform, userID, err)
	}
	return &user, nil
}

func (s *sqlxStore) DeleteUser(ctx context.Context, platform string, userID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE platform = ? AND user_id = ?`, platform, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting user", "platform", platform, "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to delete user %s/%d: %w", platform, userID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count", "error", err)
		return true, nil
	}
	return affected > 0, nil
}

func (s *sqlxStore) RecordRuleHit(ctx context.Context, hit *RuleHit) error {
	if hit == nil {
		return errors.New("cannot record nil rule hit")
	}
	if hit.Rule == "" || hit.Channel == "" {
		return errors.New("rule hit must have a rule and a channel")
	}
	if hit.CreatedAt.IsZero() {
		hit.CreatedAt = s.now()
	}
	hit.CreatedAt = dbTime(hit.CreatedAt)

	query := `
		INSERT INTO rule_hits (rule, channel, authenticated, created_at)
		VALUES (:rule, :channel, :authenticated, :created_at);
	`
	result, err := s.db.NamedExecContext(ctx, query, hit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording rule hit", "rule", hit.Rule, "error", err)
		return fmt.Errorf("failed to record rule hit %q: %w", hit.Rule, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		hit.ID = id
	}
	return nil
}

func (s *sqlxStore) RuleHitCounts(ctx context.Context, since time.Time) ([]RuleHitCount, error) {
	var counts []RuleHitCount
	query := `
		SELECT rule, COUNT(*) AS count
		FROM rule_hits
		WHERE created_at >= ?
		GROUP BY rule
		ORDER BY count DESC, rule ASC;
	`
	if err := s.db.SelectContext(ctx, &counts, query, dbTime(since)); err != nil {
		s.logger.ErrorContext(ctx, "Error aggregating rule hits", "error", err)
		return nil, fmt.Errorf("failed to aggregate rule hits: %w", err)
	}
	return counts, nil
}

func (s *sqlxStore) DeleteRuleHitsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rule_hits WHERE created_at < ?`, dbTime(cutoff))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old rule hits", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete rule hits before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Deleted old rule hits", "count", count, "cutoff", cutoff)
	return count, nil
}

// RunSQLMaintenance executes VACUUM and ANALYZE on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// VACUUM must run outside a transaction.
	for _, stmt := range []string{"VACUUM;", "ANALYZE;"} {
		_, err := s.db.ExecContext(ctx, stmt)
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			s.logger.WarnContext(ctx, "Database maintenance timed out or was cancelled", "statement", stmt, "error", err)
			return fmt.Errorf("database maintenance timed out: %w", err)
		case err != nil:
			s.logger.ErrorContext(ctx, "Database maintenance failed", "statement", stmt, "error", err)
			return fmt.Errorf("failed to execute %s: %w", strings.TrimSuffix(stmt, ";"), err)
		}
	}

	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
