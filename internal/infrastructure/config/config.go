package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr            string
	LogLevel        string
	CORSAllowOrigin string

	// Push channel tuning
	HeartbeatInterval time.Duration
	ClientBuffer      int

	// Per-session diagnostics queue (most-recent-N)
	CommandQueueSize int

	// Idle session eviction; TTL <= 0 disables the sweep
	SessionIdleTTL time.Duration
	SweepInterval  time.Duration

	// Publish rate limit (token bucket); Rate <= 0 disables it
	PublishRate  float64
	PublishBurst int
}

func FromEnv() Config {
	cfg := Config{
		Addr:            getEnv("ADDR", ":9480"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),
	}
	cfg.HeartbeatInterval = time.Duration(getEnvInt("HEARTBEAT_INTERVAL_MS", 30000)) * time.Millisecond
	cfg.ClientBuffer = getEnvInt("CLIENT_BUFFER", 32)
	cfg.CommandQueueSize = getEnvInt("COMMAND_QUEUE_SIZE", 100)
	cfg.SessionIdleTTL = time.Duration(getEnvInt("SESSION_IDLE_TTL_MIN", 120)) * time.Minute
	cfg.SweepInterval = time.Duration(getEnvInt("SWEEP_INTERVAL_MIN", 5)) * time.Minute
	cfg.PublishRate = getEnvFloat("PUBLISH_RATE", 0)
	cfg.PublishBurst = getEnvInt("PUBLISH_BURST", 10)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
