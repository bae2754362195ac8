// Package config loads the application configuration from the environment,
// with an optional .env file for development. Configuration is validated
// eagerly at startup; a bad configuration stops the process instead of
// producing half-wired services.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/kustore/storefront/store/postgres"
)

// Config is the full application configuration.
type Config struct {
	Database *postgres.Config

	// HTTPAddr is the storefront API listen address.
	HTTPAddr string

	// BotToken and AdminChatID configure the admin bot. Updates from any
	// other chat are ignored.
	BotToken    string
	AdminChatID int64

	// NotifyEndpoint and NotifyToken configure order notifications. An
	// empty endpoint disables notifications.
	NotifyEndpoint string
	NotifyToken    string

	// Storage bucket for product images.
	StorageURL    string
	StorageBucket string
	StorageToken  string

	LogLevel string
}

// Load reads the environment, with .env as a fallback for values not
// already set. Missing required values are an error here, not later.
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	db := postgres.NewConfig(
		envOr("DB_HOST", postgres.DefaultHost),
		envInt("DB_PORT", postgres.DefaultPort),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
	)
	if mode := os.Getenv("DB_SSLMODE"); mode != "" {
		db.SSLMode = mode
	}

	cfg := &Config{
		Database:       db,
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		BotToken:       os.Getenv("BOT_TOKEN"),
		AdminChatID:    int64(envInt("ADMIN_CHAT_ID", 0)),
		NotifyEndpoint: os.Getenv("NOTIFY_ENDPOINT"),
		NotifyToken:    os.Getenv("NOTIFY_TOKEN"),
		StorageURL:     os.Getenv("STORAGE_URL"),
		StorageBucket:  envOr("STORAGE_BUCKET", "product-images"),
		StorageToken:   os.Getenv("STORAGE_TOKEN"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
	}

	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateBot checks the fields the admin bot binary needs.
func (c *Config) ValidateBot() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.AdminChatID == 0 {
		return fmt.Errorf("ADMIN_CHAT_ID is required")
	}
	return nil
}

// ValidateStorage checks the fields image uploads need.
func (c *Config) ValidateStorage() error {
	if c.StorageURL == "" {
		return fmt.Errorf("STORAGE_URL is required")
	}
	if c.StorageToken == "" {
		return fmt.Errorf("STORAGE_TOKEN is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
