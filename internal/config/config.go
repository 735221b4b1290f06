package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Pipeline YAML (team, league, fetch limits, attribution params).
	// Empty means the embedded defaults.
	PipelineConfigPath string

	// Storage
	StoreDriver  string // "sqlite", "postgres" or "csv"
	StoreDSN     string // sqlite file path or postgres DSN
	DataDir      string // root for the csv store
	SchedulePath string // cleaned season schedule CSV

	// Progress fanout
	FanoutPort int    // 0 disables the server
	FanoutAddr string // host:port used by cmd/watch

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		PipelineConfigPath: envStr("PIPELINE_CONFIG_PATH", ""),

		StoreDriver:  envStr("STORE_DRIVER", "sqlite"),
		StoreDSN:     envStr("STORE_DSN", "data/match_stats.db"),
		DataDir:      envStr("DATA_DIR", "data"),
		SchedulePath: envStr("SCHEDULE_PATH", "data/team_stat.csv"),

		FanoutPort: envInt("FANOUT_PORT", 0),
		FanoutAddr: envStr("FANOUT_ADDR", "localhost:8766"),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
