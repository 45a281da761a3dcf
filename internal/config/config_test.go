package config

import (
	"log/slog"
	"testing"
	"time"
)

// --- LoadConfig ---

func TestLoadConfig(t *testing.T) {
	// Helper sets the minimum required env vars for a valid config
	setRequired := func(t *testing.T) {
		t.Helper()
		t.Setenv("BUNGIE_CLIENT_ID", "12345")
		t.Setenv("BUNGIE_API_KEY", "api-key")
		t.Setenv("RECORD_STORE", "airtable")
		t.Setenv("AIRTABLE_API_KEY", "pat-key")
		t.Setenv("AIRTABLE_BASE_ID", "appBase")
		t.Setenv("AIRTABLE_TABLE_NAME", "Applications")
		t.Setenv("BUNGIE_IDENTITY_MODE", "")
		t.Setenv("PORT", "")
		t.Setenv("REDIRECT_URI", "")
		t.Setenv("BUNGIE_BASE_URL", "")
		t.Setenv("BUNGIE_TIMEOUT", "")
		t.Setenv("LOG_LEVEL", "")
	}

	t.Run("returns valid config with all required vars", func(t *testing.T) {
		setRequired(t)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.BungieClientID != "12345" {
			t.Errorf("BungieClientID: expected %q, got %q", "12345", cfg.BungieClientID)
		}
		if cfg.AirtableTableName != "Applications" {
			t.Errorf("AirtableTableName: expected %q, got %q", "Applications", cfg.AirtableTableName)
		}
		if cfg.RecordStore != StoreAirtable {
			t.Errorf("RecordStore: expected %q, got %q", StoreAirtable, cfg.RecordStore)
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Port != "3000" {
			t.Errorf("Port: expected %q, got %q", "3000", cfg.Port)
		}
		if cfg.RedirectURI != defaultRedirectURI {
			t.Errorf("RedirectURI: expected %q, got %q", defaultRedirectURI, cfg.RedirectURI)
		}
		if cfg.BungieBaseURL != "https://www.bungie.net" {
			t.Errorf("BungieBaseURL: expected bungie.net, got %q", cfg.BungieBaseURL)
		}
		if cfg.IdentityMode != IdentityGlobal {
			t.Errorf("IdentityMode: expected %q, got %q", IdentityGlobal, cfg.IdentityMode)
		}
		if cfg.BungieTimeout != 10*time.Second {
			t.Errorf("BungieTimeout: expected 10s, got %v", cfg.BungieTimeout)
		}
		if cfg.LogLevel != slog.LevelInfo {
			t.Errorf("LogLevel: expected info, got %v", cfg.LogLevel)
		}
		if cfg.AirtableBaseURL != "https://api.airtable.com" {
			t.Errorf("AirtableBaseURL: expected api.airtable.com, got %q", cfg.AirtableBaseURL)
		}
	})

	t.Run("errors when BUNGIE_CLIENT_ID is missing", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BUNGIE_CLIENT_ID", "")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for missing BUNGIE_CLIENT_ID, got nil")
		}
	})

	t.Run("errors when BUNGIE_API_KEY is missing", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BUNGIE_API_KEY", "")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for missing BUNGIE_API_KEY, got nil")
		}
	})

	t.Run("errors when airtable selected without credentials", func(t *testing.T) {
		setRequired(t)
		t.Setenv("AIRTABLE_BASE_ID", "")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for missing AIRTABLE_BASE_ID, got nil")
		}
	})

	t.Run("postgres backend requires DATABASE_URL", func(t *testing.T) {
		setRequired(t)
		t.Setenv("RECORD_STORE", "postgres")
		t.Setenv("DATABASE_URL", "")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for missing DATABASE_URL, got nil")
		}

		t.Setenv("DATABASE_URL", "postgres://localhost/verify")
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.DatabaseURL != "postgres://localhost/verify" {
			t.Errorf("DatabaseURL: got %q", cfg.DatabaseURL)
		}
	})

	t.Run("redis backend requires REDIS_URL", func(t *testing.T) {
		setRequired(t)
		t.Setenv("RECORD_STORE", "redis")
		t.Setenv("REDIS_URL", "")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for missing REDIS_URL, got nil")
		}
	})

	t.Run("none backend needs no credentials", func(t *testing.T) {
		setRequired(t)
		t.Setenv("RECORD_STORE", "none")
		t.Setenv("AIRTABLE_API_KEY", "")

		if _, err := LoadConfig(); err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
	})

	t.Run("rejects unknown record store", func(t *testing.T) {
		setRequired(t)
		t.Setenv("RECORD_STORE", "sheets")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for unknown RECORD_STORE, got nil")
		}
	})

	t.Run("legacy identity mode is opt-in", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BUNGIE_IDENTITY_MODE", "LEGACY")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.IdentityMode != IdentityLegacy {
			t.Errorf("IdentityMode: expected %q, got %q", IdentityLegacy, cfg.IdentityMode)
		}
	})

	t.Run("rejects unknown identity mode", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BUNGIE_IDENTITY_MODE", "both")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for unknown BUNGIE_IDENTITY_MODE, got nil")
		}
	})

	t.Run("trims trailing slash from base urls", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BUNGIE_BASE_URL", "http://localhost:8080/")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.BungieBaseURL != "http://localhost:8080" {
			t.Errorf("BungieBaseURL: expected trailing slash trimmed, got %q", cfg.BungieBaseURL)
		}
	})

	t.Run("invalid timeout falls back to default", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BUNGIE_TIMEOUT", "soon")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.BungieTimeout != 10*time.Second {
			t.Errorf("BungieTimeout: expected default 10s, got %v", cfg.BungieTimeout)
		}
	})
}
