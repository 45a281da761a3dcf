// config.go

// Environment variable loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Identity modes select which Bungie user fields make up the compared identity.
const (
	// IdentityGlobal compares against "bungieGlobalDisplayName#bungieGlobalDisplayNameCode".
	IdentityGlobal = "global"
	// IdentityLegacy compares against the pre-Cross-Save "displayName" field.
	IdentityLegacy = "legacy"
)

// Record store backends.
const (
	StoreAirtable = "airtable"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreNone     = "none"
)

const defaultRedirectURI = "https://vanguard-bungie-verify-c7de395776dd.herokuapp.com/callback"

// Config holds all env configuration vars for the verification service.
// Built once at startup and never mutated afterwards.
type Config struct {
	Port     string
	LogLevel slog.Level

	// Bungie OAuth client. ClientSecret is only set for confidential clients.
	BungieClientID     string
	BungieClientSecret string
	BungieAPIKey       string
	BungieBaseURL      string
	RedirectURI        string
	IdentityMode       string
	BungieTimeout      time.Duration

	// RecordStore picks the backend that receives verification results.
	RecordStore string

	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTableName string
	AirtableBaseURL   string

	DatabaseURL string
	RedisURL    string
}

// LoadConfig reads environment variables and returns a validated Config.
// A .env file in the working directory is loaded first if present; it never
// overrides variables already set in the process environment.
// Returns an error if required variables for the selected backend are missing.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{}

	// Port defaults to 3000
	cfg.Port = envString("PORT", "3000")

	// Parse log level, default to info
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	cfg.BungieClientID = os.Getenv("BUNGIE_CLIENT_ID")
	if cfg.BungieClientID == "" {
		return nil, fmt.Errorf("BUNGIE_CLIENT_ID is required")
	}
	cfg.BungieAPIKey = os.Getenv("BUNGIE_API_KEY")
	if cfg.BungieAPIKey == "" {
		return nil, fmt.Errorf("BUNGIE_API_KEY is required")
	}
	cfg.BungieClientSecret = os.Getenv("BUNGIE_CLIENT_SECRET")
	cfg.BungieBaseURL = strings.TrimRight(envString("BUNGIE_BASE_URL", "https://www.bungie.net"), "/")
	cfg.RedirectURI = envString("REDIRECT_URI", defaultRedirectURI)
	cfg.BungieTimeout = envDuration("BUNGIE_TIMEOUT", 10*time.Second)

	cfg.IdentityMode = strings.ToLower(envString("BUNGIE_IDENTITY_MODE", IdentityGlobal))
	if cfg.IdentityMode != IdentityGlobal && cfg.IdentityMode != IdentityLegacy {
		return nil, fmt.Errorf("BUNGIE_IDENTITY_MODE must be %q or %q, got %q", IdentityGlobal, IdentityLegacy, cfg.IdentityMode)
	}

	cfg.RecordStore = strings.ToLower(envString("RECORD_STORE", StoreAirtable))
	switch cfg.RecordStore {
	case StoreAirtable:
		cfg.AirtableAPIKey = os.Getenv("AIRTABLE_API_KEY")
		cfg.AirtableBaseID = os.Getenv("AIRTABLE_BASE_ID")
		cfg.AirtableTableName = os.Getenv("AIRTABLE_TABLE_NAME")
		cfg.AirtableBaseURL = strings.TrimRight(envString("AIRTABLE_BASE_URL", "https://api.airtable.com"), "/")
		if cfg.AirtableAPIKey == "" || cfg.AirtableBaseID == "" || cfg.AirtableTableName == "" {
			return nil, fmt.Errorf("AIRTABLE_API_KEY, AIRTABLE_BASE_ID and AIRTABLE_TABLE_NAME are required when RECORD_STORE=airtable")
		}
	case StorePostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when RECORD_STORE=postgres")
		}
	case StoreRedis:
		cfg.RedisURL = os.Getenv("REDIS_URL")
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when RECORD_STORE=redis")
		}
	case StoreNone:
	default:
		return nil, fmt.Errorf("RECORD_STORE must be one of airtable, postgres, redis, none; got %q", cfg.RecordStore)
	}

	return cfg, nil
}

// envString reads an env var, returning def if missing.
func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration reads an env var as time.Duration, returning def if missing or unparseable.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
