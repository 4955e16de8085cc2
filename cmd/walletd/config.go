package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Tanishq1604/HD-wallet/internal/logging"
	"github.com/Tanishq1604/HD-wallet/internal/metrics"
)

type config struct {
	LogFormat logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	Port      string            `envconfig:"PORT" default:"8080"`

	// Seed phrase environment variable name, not the phrase itself.
	SeedPhraseVar string `envconfig:"SEED_PHRASE_VAR" default:"SEED_PHRASE"`

	ConfirmTimeout time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"60s"`

	Ethereum ethereumConfig
	Solana   solanaConfig
	Tron     tronConfig
	Neo      neoConfig

	Metrics metrics.Config
}

type ethereumConfig struct {
	RPCURL         string `envconfig:"ETH_RPC_URL" required:"true"`
	DerivationPath string `envconfig:"ETH_DERIVATION_PATH" default:"m/44'/60'/0'/0/0"`
}

type solanaConfig struct {
	RPCURL         string `envconfig:"SOLANA_RPC_URL" required:"true"`
	DerivationPath string `envconfig:"SOLANA_DERIVATION_PATH" default:"m/44'/501'/0'/0/0"`
}

type tronConfig struct {
	APIURL         string `envconfig:"TRON_API_URL" required:"true"`
	APIKey         string `envconfig:"TRON_API_KEY"`
	DerivationPath string `envconfig:"TRON_DERIVATION_PATH" default:"m/44'/195'/0'/0/0"`
}

type neoConfig struct {
	RPCURL         string `envconfig:"NEO_RPC_URL" required:"true"`
	DerivationPath string `envconfig:"NEO_DERIVATION_PATH" default:"m/44'/888'/0'/0/0"`
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
