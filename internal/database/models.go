package database

import "time"

// Platform identifiers stored with users and rule hits.
const (
	PlatformTelegram = "telegram"
	ChannelWidget    = "widget"
	ChannelTelegram  = "telegram"
)

// User is a chat user who registered a display name. Registration makes the
// user authenticated for the rule engine.
type User struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Platform    string `db:"platform"`
	UserID      int64  `db:"user_id"`
	DisplayName string `db:"display_name"`
}

// RuleHit records which rule answered a message.
type RuleHit struct {
	ID            int64     `db:"id"`
	Rule          string    `db:"rule"`
	Channel       string    `db:"channel"`
	Authenticated bool      `db:"authenticated"`
	CreatedAt     time.Time `db:"created_at"`
}

// RuleHitCount is an aggregated row of RuleHitCounts.
type RuleHitCount struct {
	Rule  string `db:"rule"`
	Count int64  `db:"count"`
}
