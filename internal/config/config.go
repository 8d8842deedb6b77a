// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	Env   string
	Port  string
	Debug bool

	// Record store
	DBPath string

	// Report ingestion
	ReportBaseURL string
	FetchTimeout  time.Duration
	ArtifactDir   string

	// Response cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheResetAt  string // daily wall-clock reset time, "15:04" layout
}

// Defaults returns the built-in configuration used when no environment
// overrides are present.
func Defaults() Config {
	return Config{
		Env:           "development",
		Port:          "8080",
		DBPath:        "spimex.db",
		ReportBaseURL: "https://spimex.com/upload/reports/oil_xls",
		FetchTimeout:  5 * time.Second,
		ArtifactDir:   ".",
		RedisAddr:     "localhost:6379",
		CacheResetAt:  "14:11",
	}
}

// Load reads the optional .env file, applies SPIMEX_* environment variable
// overrides on top of the defaults, and returns the final Config.
func Load() Config {
	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	cfg := Defaults()

	setStr(&cfg.Env, "ENV")
	setStr(&cfg.Port, "PORT")
	setBool(&cfg.Debug, "DEBUG")

	setStr(&cfg.DBPath, "SPIMEX_DB_PATH")

	setStr(&cfg.ReportBaseURL, "SPIMEX_REPORT_BASE_URL")
	setDuration(&cfg.FetchTimeout, "SPIMEX_FETCH_TIMEOUT")
	setStr(&cfg.ArtifactDir, "SPIMEX_ARTIFACT_DIR")

	setStr(&cfg.RedisAddr, "SPIMEX_REDIS_ADDR")
	setStr(&cfg.RedisPassword, "SPIMEX_REDIS_PASSWORD")
	setInt(&cfg.RedisDB, "SPIMEX_REDIS_DB")
	setStr(&cfg.CacheResetAt, "SPIMEX_CACHE_RESET")

	return cfg
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
