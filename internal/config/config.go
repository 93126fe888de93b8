// Package config loads all runtime configuration from the environment so that
// deployments can tune matching fairness vs. latency without code changes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Telegram
	BotToken string

	// Database
	PostgresDSN string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// HTTP API
	AppPort   string
	JWTSecret string

	// Request stream
	StreamName   string
	StreamGroup  string
	StreamMaxLen int64
	ConsumerName string

	// Matching
	MaxWaitWindow     time.Duration
	ProactiveDelay    time.Duration
	RoomTTL           time.Duration
	RelaxDatingAfter  int
	RelaxTopicAfter   int
	RelaxFluencyAfter int
}

func Load() (*Config, error) {
	cfg := &Config{
		BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),

		PostgresDSN: getEnv("POSTGRES_DSN",
			"host=localhost user=user password=password dbname=linguamatch port=5432 sslmode=disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AppPort:   getEnv("APP_PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET_KEY", ""),

		StreamName:   getEnv("MATCH_STREAM", "match:requests"),
		StreamGroup:  getEnv("MATCH_STREAM_GROUP", "matchers"),
		StreamMaxLen: int64(getEnvInt("MATCH_STREAM_MAXLEN", 100000)),
		ConsumerName: getEnv("MATCH_CONSUMER_NAME", "matcher-1"),

		MaxWaitWindow:     getEnvDuration("MAX_WAIT_WINDOW", 150*time.Second),
		ProactiveDelay:    getEnvDuration("PROACTIVE_DELAY", 3*time.Second),
		RoomTTL:           getEnvDuration("ROOM_TTL", time.Hour),
		RelaxDatingAfter:  getEnvInt("RELAX_DATING_AFTER", 5),
		RelaxTopicAfter:   getEnvInt("RELAX_TOPIC_AFTER", 10),
		RelaxFluencyAfter: getEnvInt("RELAX_FLUENCY_AFTER", 15),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if cfg.ProactiveDelay > cfg.MaxWaitWindow {
		return nil, fmt.Errorf("PROACTIVE_DELAY (%s) exceeds MAX_WAIT_WINDOW (%s)",
			cfg.ProactiveDelay, cfg.MaxWaitWindow)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		// Bare numbers are treated as seconds, matching the ops convention
		// for the older deployment tooling.
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
