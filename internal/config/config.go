package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath     string
	ServerPort string
	LogLevel   string

	// TrackInterval is how often the tracker loop reconciles every
	// tracked player. Reconciliation is idempotent per calendar day, so
	// running more than once a day is safe.
	TrackInterval time.Duration

	// TrackBatchSize bounds how many players are reconciled
	// concurrently within one batch.
	TrackBatchSize int

	// InactiveRecheckCooldown skips upstream rechecks of a
	// locally-inactive player until this much time has passed since the
	// last check. Zero disables the cooldown.
	InactiveRecheckCooldown time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:         getEnv("DB_PATH", "scoresaber.db"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TrackInterval:  getEnvDuration("TRACK_INTERVAL", time.Hour),
		TrackBatchSize: getEnvInt("TRACK_BATCH_SIZE", 25),

		InactiveRecheckCooldown: getEnvDuration("INACTIVE_RECHECK_COOLDOWN", 0),
	}

	if cfg.TrackBatchSize < 1 {
		return nil, fmt.Errorf("TRACK_BATCH_SIZE must be at least 1")
	}
	if cfg.TrackInterval < time.Minute {
		return nil, fmt.Errorf("TRACK_INTERVAL must be at least one minute")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("track_interval", cfg.TrackInterval).
		Int("track_batch_size", cfg.TrackBatchSize).
		Dur("inactive_recheck_cooldown", cfg.InactiveRecheckCooldown).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
