package config

import "github.com/caarlos0/env/v11"

type LedgerConfig struct {
	// StatusPolicy is "amount" (left once cash-out total is non-zero) or
	// "cashout" (left once any cash-out was recorded).
	StatusPolicy string `env:"LEDGER_STATUS_POLICY" envDefault:"amount"`
}

func LoadLedger() (LedgerConfig, error) {
	var cfg LedgerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
