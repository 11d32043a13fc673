package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string
	GinMode       string

	RedisAddress   string
	StatusCacheTTL time.Duration

	LogLevel string

	AdminUsername string
	AdminPassword string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		GinMode:       os.Getenv("GIN_MODE"),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin@site.local"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "Admin123!"
	}

	cfg.StatusCacheTTL = parseDuration(os.Getenv("STATUS_CACHE_TTL"), 5*time.Minute)

	return cfg
}

// parseDuration falls back to def on empty or malformed values.
func parseDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("invalid duration %q, using %s", v, def)
		return def
	}
	return d
}
