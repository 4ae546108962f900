// Package auth provides authentication via magic link email, sessions,
// and per-user API keys for the mobile client.
package auth

import (
	"os"

	"github.com/karimzahran/sakan/internal/notify"
)

// Config holds authentication configuration.
type Config struct {
	SMTP    notify.SMTPConfig
	DevMode bool
	BaseURL string // e.g. http://localhost:8080
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		SMTP: notify.SMTPConfig{
			Host: os.Getenv("SAKAN_SMTP_HOST"),
			Port: envOrDefault("SAKAN_SMTP_PORT", "587"),
			User: os.Getenv("SAKAN_SMTP_USER"),
			Pass: os.Getenv("SAKAN_SMTP_PASS"),
			From: os.Getenv("SAKAN_SMTP_FROM"),
		},
		DevMode: os.Getenv("SAKAN_DEV_MODE") == "true",
		BaseURL: envOrDefault("SAKAN_BASE_URL", "http://localhost:8080"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
