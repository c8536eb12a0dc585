package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/responder"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultHTTPAddr            = ":8080"
	DefaultHTTPReadTimeout     = 15 * time.Second
	DefaultHTTPWriteTimeout    = 15 * time.Second
	DefaultHTTPShutdownTimeout = 10 * time.Second

	DefaultAuthIssuer   = "carebot"
	DefaultAuthTokenTTL = 24 * time.Hour

	DefaultReplyPolicy = "serialize"
	DefaultIdleTimeout = 30 * time.Minute

	DefaultDBPath           = "carebot.db"
	DefaultRuleHitRetention = 90 * 24 * time.Hour

	TaskSQLMaintenance   = "sql_maintenance"
	TaskSessionSweep     = "session_sweep"
	TaskRuleHitRetention = "rule_hit_retention"
)

// DefaultMessages are the Telegram texts used when the config file sets none.
var DefaultMessages = MessagesConfig{
	Welcome:              "Xin chào! Tôi là trợ lý ảo của CareLink. Hãy nhắn cho tôi câu hỏi của bạn về đặt lịch khám, bác sĩ hoặc quyên góp.",
	WelcomeBack:          "Chào {name}! Rất vui được gặp lại bạn. Hãy nhắn cho tôi câu hỏi về đặt lịch khám, bác sĩ hoặc quyên góp.",
	Help:                 "Các lệnh hỗ trợ:\n/start - bắt đầu trò chuyện\n/register <tên> - đăng ký tên hiển thị\n/logout - đăng xuất\n/help - xem hướng dẫn",
	RegisterUsage:        "Cách dùng: /register <tên hiển thị>",
	Registered:           "Đăng ký thành công! Xin chào {name}.",
	LoggedOut:            "Bạn đã đăng xuất.",
	NotRegistered:        "Bạn chưa đăng ký. Dùng /register <tên> để đăng ký.",
	StatsHeader:          "Thống kê câu trả lời:\n",
	NoStats:              "Chưa có dữ liệu thống kê.",
	GeneralError:         "Đã xảy ra lỗi. Vui lòng thử lại sau.",
	ErrorUnauthorizedMsg: "Bạn không có quyền sử dụng lệnh này.",
}

// DefaultTasks are the scheduled tasks enabled out of the box.
var DefaultTasks = map[string]TaskConfig{
	TaskSQLMaintenance:   {Enabled: true, Schedule: "0 0 4 * * *"},
	TaskSessionSweep:     {Enabled: true, Schedule: "0 */5 * * * *"},
	TaskRuleHitRetention: {Enabled: true, Schedule: "0 30 4 * * *"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", DefaultHTTPAddr)
	v.SetDefault("http.read_timeout", DefaultHTTPReadTimeout)
	v.SetDefault("http.write_timeout", DefaultHTTPWriteTimeout)
	v.SetDefault("http.shutdown_timeout", DefaultHTTPShutdownTimeout)
	v.SetDefault("http.allowed_origins", []string{})

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", DefaultAuthIssuer)
	v.SetDefault("auth.token_ttl", DefaultAuthTokenTTL)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("widget.welcome", conversation.DefaultWelcome)
	v.SetDefault("widget.typing_delay", conversation.DefaultTypingDelay)
	v.SetDefault("widget.reply_policy", DefaultReplyPolicy)
	v.SetDefault("widget.idle_timeout", DefaultIdleTimeout)

	v.SetDefault("responder.call_to_action", responder.DefaultCallToAction)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.rule_hit_retention", DefaultRuleHitRetention)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.welcome_back", DefaultMessages.WelcomeBack)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.register_usage", DefaultMessages.RegisterUsage)
	v.SetDefault("messages.registered", DefaultMessages.Registered)
	v.SetDefault("messages.logged_out", DefaultMessages.LoggedOut)
	v.SetDefault("messages.not_registered", DefaultMessages.NotRegistered)
	v.SetDefault("messages.stats_header", DefaultMessages.StatsHeader)
	v.SetDefault("messages.no_stats", DefaultMessages.NoStats)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.error_unauthorized_msg", DefaultMessages.ErrorUnauthorizedMsg)
}
