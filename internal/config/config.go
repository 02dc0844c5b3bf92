// Package config loads TokenWise settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name, e.g. TOKENWISE_STORE.
const Prefix = "TOKENWISE"

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all settings shared by the CLI and the server.
// Groups are embedded so every variable carries the TOKENWISE_ prefix;
// envconfig falls back to the bare name (e.g. LOG_LEVEL) when the
// prefixed one is unset.
type Config struct {
	AppConfig
	StoreConfig
	SolanaConfig
	RefreshConfig
	DisplayConfig
	HTTPConfig
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type StoreConfig struct {
	Backend       string `envconfig:"STORE" default:"sqlite"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"tokenwise.db"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN"`
}

type SolanaConfig struct {
	RPCEndpoint  string  `envconfig:"SOLANA_RPC_ENDPOINT" default:"https://api.mainnet-beta.solana.com"`
	WSEndpoint   string  `envconfig:"SOLANA_WS_ENDPOINT"`
	RPCRateLimit float64 `envconfig:"RPC_RATE_LIMIT" default:"10"`
}

type RefreshConfig struct {
	TargetMint  string        `envconfig:"TARGET_MINT" default:"8BtoThi2ZoXnF7QQK1Wjmh2JuBw9FjVvhnGMVZ2vpump"`
	URL         string        `envconfig:"REFRESH_URL" default:"http://localhost:3000/api/refresh"`
	HolderLimit int           `envconfig:"HOLDER_LIMIT" default:"30"`
	Interval    time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m"`
	Lookback    time.Duration `envconfig:"LOOKBACK" default:"168h"`
}

type DisplayConfig struct {
	Timezone        string `envconfig:"DISPLAY_TIMEZONE" default:"Asia/Kolkata"`
	SymbolCacheSize int    `envconfig:"SYMBOL_CACHE_SIZE" default:"1024"`
}

type HTTPConfig struct {
	Addr string `envconfig:"HTTP_ADDR" default:":3000"`
}

// Load reads .env (if present) and then the environment.
// Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.StoreConfig.Backend {
	case StoreSQLite, StoreMemory:
	case StorePostgres:
		if c.StoreConfig.PostgresDSN == "" {
			return fmt.Errorf("%s_POSTGRES_DSN is required for the postgres store", Prefix)
		}
	default:
		return fmt.Errorf("unknown store %q (want sqlite, postgres or memory)", c.StoreConfig.Backend)
	}
	if c.RefreshConfig.HolderLimit <= 0 {
		return fmt.Errorf("%s_HOLDER_LIMIT must be positive, got %d", Prefix, c.RefreshConfig.HolderLimit)
	}
	if c.SolanaConfig.RPCRateLimit < 0 {
		return fmt.Errorf("%s_RPC_RATE_LIMIT must not be negative", Prefix)
	}
	return nil
}

// Location loads the display timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayConfig.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.DisplayConfig.Timezone, err)
	}
	return loc, nil
}
