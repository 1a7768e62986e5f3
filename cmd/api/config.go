package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/pixelforge/coinledger/internal/config"
	"github.com/pixelforge/coinledger/internal/services/ledger"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:""`

	Postgres config.PostgresConfig
	Ledger   ledgerConfig
}

type ledgerConfig struct {
	MaxCoins           int64         `env:"LEDGER_MAX_COINS" envDefault:"100000000"`
	MaxTokens          int64         `env:"LEDGER_MAX_TOKENS" envDefault:"100000000"`
	StartingCoins      int64         `env:"LEDGER_STARTING_COINS" envDefault:"0"`
	StartingTokens     int64         `env:"LEDGER_STARTING_TOKENS" envDefault:"0"`
	AllowTransfers     bool          `env:"LEDGER_ALLOW_TRANSFERS" envDefault:"true"`
	TransferTaxPercent float64       `env:"LEDGER_TRANSFER_TAX_PERCENT" envDefault:"0"`
	LogTransactions    bool          `env:"LEDGER_LOG_TRANSACTIONS" envDefault:"true"`
	LeaderboardRefresh time.Duration `env:"LEDGER_LEADERBOARD_REFRESH" envDefault:"5m"`
	AutoFlushInterval  time.Duration `env:"LEDGER_AUTO_FLUSH_INTERVAL" envDefault:"5m"`
}

func (c apiConfig) ledgerConfig() ledger.Config {
	return ledger.Config{
		MaxCoins:           c.Ledger.MaxCoins,
		MaxTokens:          c.Ledger.MaxTokens,
		StartingCoins:      c.Ledger.StartingCoins,
		StartingTokens:     c.Ledger.StartingTokens,
		AllowTransfers:     c.Ledger.AllowTransfers,
		TransferTaxPercent: c.Ledger.TransferTaxPercent,
		LogTransactions:    c.Ledger.LogTransactions,
		LeaderboardRefresh: c.Ledger.LeaderboardRefresh,
		AutoFlushInterval:  c.Ledger.AutoFlushInterval,
	}
}

func (c apiConfig) kafkaBrokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}

	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
