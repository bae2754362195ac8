package config

import (
	"testing"
)

func TestLoadRequiresDatabaseCredentials(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")

	if _, err := Load(); err == nil {
		t.Error("Expected load to fail without database credentials")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DB_USER", "storefront")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("Expected host db.internal, got %s", cfg.Database.Host)
	}
	if cfg.Database.Port != 6432 {
		t.Errorf("Expected port 6432, got %d", cfg.Database.Port)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("Expected addr :9090, got %s", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_NAME", "db")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("STORAGE_BUCKET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected default addr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.StorageBucket != "product-images" {
		t.Errorf("Expected default bucket, got %s", cfg.StorageBucket)
	}
}

func TestValidateBot(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateBot(); err == nil {
		t.Error("Expected bot validation to fail without a token")
	}

	cfg.BotToken = "token"
	if err := cfg.ValidateBot(); err == nil {
		t.Error("Expected bot validation to fail without an admin chat")
	}

	cfg.AdminChatID = 42
	if err := cfg.ValidateBot(); err != nil {
		t.Errorf("Expected bot validation to pass, got %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SOME_INT", "notanint")
	if got := envInt("SOME_INT", 7); got != 7 {
		t.Errorf("Expected fallback 7 for a bad int, got %d", got)
	}

	t.Setenv("SOME_STR", "")
	if got := envOr("SOME_STR", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
}
