// Package config loads the carebot configuration from defaults, an optional
// YAML file and CAREBOT_* environment variables, and validates the result.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/carebot/internal/responder"
)

// Config is the root configuration of every carebot component.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Widget    WidgetConfig    `mapstructure:"widget"`
	Responder ResponderConfig `mapstructure:"responder"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// HTTPConfig configures the chat widget API.
type HTTPConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr"             validate:"required_if=Enabled true"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s,max=5m"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s,max=5m"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=1m"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// AuthConfig configures the bearer tokens issued to logged in widget users.
// An empty secret disables token verification; every visitor is anonymous.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"    validate:"omitempty,min=16"`
	Issuer   string        `mapstructure:"issuer"    validate:"required"`
	TokenTTL time.Duration `mapstructure:"token_ttl" validate:"min=1m,max=720h"`
}

type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Token       string `mapstructure:"token"         validate:"required_if=Enabled true"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required_if=Enabled true"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// WidgetConfig holds the conversation behaviour shared by all channels.
type WidgetConfig struct {
	Welcome     string        `mapstructure:"welcome"      validate:"required"`
	TypingDelay time.Duration `mapstructure:"typing_delay" validate:"min=0s,max=1m"`
	ReplyPolicy string        `mapstructure:"reply_policy" validate:"oneof=serialize overlap"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=1m"`
}

// ResponderConfig overrides the built-in rule set. Empty rules or fallback
// templates keep the defaults.
type ResponderConfig struct {
	CallToAction string           `mapstructure:"call_to_action"`
	Rules        []responder.Rule `mapstructure:"rules"    validate:"dive"`
	Fallback     FallbackConfig   `mapstructure:"fallback"`
}

type FallbackConfig struct {
	Authenticated string `mapstructure:"authenticated"`
	Anonymous     string `mapstructure:"anonymous"`
}

// Rule returns the fallback as a responder rule.
func (f FallbackConfig) Rule() responder.Rule {
	return responder.Rule{
		Name:          responder.RuleFallback,
		Authenticated: f.Authenticated,
		Anonymous:     f.Anonymous,
	}
}

type DatabaseConfig struct {
	Path             string        `mapstructure:"path"               validate:"required"`
	RuleHitRetention time.Duration `mapstructure:"rule_hit_retention" validate:"min=1h"`
}

type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a registered task on a cron schedule (seconds field
// included).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds the fixed Telegram texts that do not go through the
// rule engine.
type MessagesConfig struct {
	Welcome              string `mapstructure:"welcome"                validate:"required"`
	WelcomeBack          string `mapstructure:"welcome_back"           validate:"required"`
	Help                 string `mapstructure:"help"                   validate:"required"`
	RegisterUsage        string `mapstructure:"register_usage"         validate:"required"`
	Registered           string `mapstructure:"registered"             validate:"required"`
	LoggedOut            string `mapstructure:"logged_out"             validate:"required"`
	NotRegistered        string `mapstructure:"not_registered"         validate:"required"`
	StatsHeader          string `mapstructure:"stats_header"           validate:"required"`
	NoStats              string `mapstructure:"no_stats"               validate:"required"`
	GeneralError         string `mapstructure:"general_error"          validate:"required"`
	ErrorUnauthorizedMsg string `mapstructure:"error_unauthorized_msg" validate:"required"`
}
