package config

import "github.com/caarlos0/env/v11"

type PushConfig struct {
	Enabled        bool   `env:"PUSH_ENABLED" envDefault:"false"`
	ConfigPath     string `env:"PUSH_CONFIG_PATH"`
	ConfigJSON     string `env:"PUSH_CONFIG_JSON"`
	ConfigReloadMS int    `env:"PUSH_CONFIG_RELOAD_MS" envDefault:"1000"`
	Workers        int    `env:"PUSH_WORKERS" envDefault:"2"`
	RetryMax       int    `env:"PUSH_RETRY_MAX" envDefault:"3"`
	RetryBaseMS    int    `env:"PUSH_RETRY_BASE_MS" envDefault:"500"`
}

func LoadPush() (PushConfig, error) {
	var cfg PushConfig
	err := env.Parse(&cfg)
	return cfg, err
}
