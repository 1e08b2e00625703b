package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	BotModePolling = "polling"
	BotModeWebhook = "webhook"
)

type BotConfig struct {
	Token       string  `env:"BOT_TOKEN"`
	APIBaseURL  string  `env:"BOT_API_BASE_URL" envDefault:"https://api.telegram.org"`
	AdminIDs    []int64 `env:"BOT_ADMIN_IDS" envSeparator:","`
	Mode        string  `env:"BOT_MODE" envDefault:"polling"`
	PollTimeout int     `env:"BOT_POLL_TIMEOUT_SECONDS" envDefault:"30"`
	Workers     int     `env:"BOT_WORKERS" envDefault:"4"`

	BackoffBaseMS int `env:"BOT_BACKOFF_BASE_MS" envDefault:"1000"`
	BackoffMaxMS  int `env:"BOT_BACKOFF_MAX_MS" envDefault:"60000"`

	WebhookURL    string `env:"BOT_WEBHOOK_URL"`
	WebhookSecret string `env:"BOT_WEBHOOK_SECRET"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	switch cfg.Mode {
	case BotModePolling:
	case BotModeWebhook:
		if strings.TrimSpace(cfg.WebhookURL) == "" {
			return cfg, fmt.Errorf("BOT_WEBHOOK_URL is required when BOT_MODE=%s", BotModeWebhook)
		}
	default:
		return cfg, fmt.Errorf("unknown BOT_MODE %q", cfg.Mode)
	}
	return cfg, nil
}

// IsAdmin reports whether userID may run host-only commands.
func (c BotConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
