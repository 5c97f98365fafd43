package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds the runtime settings for the auction server.
type Config struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string
	// DatabaseURL selects the Postgres auction store when set; the
	// in-memory store is used otherwise.
	DatabaseURL string
	// LifecycleTick is how often time-expired active auctions are swept.
	LifecycleTick time.Duration
}

// Load reads configuration from the environment (.env is autoloaded).
func Load() Config {
	return Config{
		Addr:          ":" + GetEnv("PORT", "8000"),
		DatabaseURL:   GetEnv("DATABASE_URL", ""),
		LifecycleTick: time.Duration(GetIntEnv("LIFECYCLE_TICK_SECONDS", 10)) * time.Second,
	}
}

// GetEnv retrieves an environment variable;
// return default variable when missing.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func GetIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
