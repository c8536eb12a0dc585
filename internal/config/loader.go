package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/responder"
)

// EnvPrefix is the prefix of every environment override, e.g.
// CAREBOT_TELEGRAM_TOKEN for telegram.token.
const EnvPrefix = "CAREBOT"

var ErrConfiguration = errors.New("configuration error")

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional)
// 3. CAREBOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("%w: failed to read config file %s: %w", ErrConfiguration, path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrConfiguration, err)
	}
	applyResponderDefaults(&cfg.Responder)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return err
	}
	if _, err := conversation.ParsePolicy(c.Widget.ReplyPolicy); err != nil {
		return err
	}
	if _, err := c.Engine(); err != nil {
		return fmt.Errorf("invalid responder rules: %w", err)
	}
	return nil
}

// ReplyPolicy returns the parsed widget reply policy.
func (c *Config) ReplyPolicy() conversation.ReplyPolicy {
	p, _ := conversation.ParsePolicy(c.Widget.ReplyPolicy)
	return p
}

// Engine builds the rule engine described by the responder section.
func (c *Config) Engine() (*responder.Engine, error) {
	return responder.New(c.Responder.Rules, c.Responder.Fallback.Rule(), c.Responder.CallToAction)
}

func applyResponderDefaults(rc *ResponderConfig) {
	if len(rc.Rules) == 0 {
		rc.Rules = responder.DefaultRules()
	}
	def := responder.DefaultFallback()
	if strings.TrimSpace(rc.Fallback.Authenticated) == "" {
		rc.Fallback.Authenticated = def.Authenticated
	}
	if strings.TrimSpace(rc.Fallback.Anonymous) == "" {
		rc.Fallback.Anonymous = def.Anonymous
	}
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
