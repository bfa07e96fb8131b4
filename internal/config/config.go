// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	DBPath          string
	AllowedOrigins  []string
	AnonymousUserID string // platform account that cannot take part, e.g. anonymous group posts
	AdminUserIDs    []string
	DefaultLocale   string
	Session         SessionConfig
	Notify          NotifyConfig
	RateLimit       RateLimitConfig
}

// SessionConfig controls idle-session garbage collection and the offline mailbox.
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	MailboxSize   int
	MailboxTTL    time.Duration
}

// NotifyConfig bounds private-message fan-out.
type NotifyConfig struct {
	Concurrency int
	Timeout     time.Duration
}

// RateLimitConfig throttles commands per user.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./data/wolfbot.db"),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		AnonymousUserID: getEnv("ANONYMOUS_USER_ID", "80000000"),
		AdminUserIDs:    getEnvList("ADMIN_USER_IDS", nil),
		DefaultLocale:   getEnv("DEFAULT_LOCALE", "en"),
		Session: SessionConfig{
			IdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 6*time.Hour),
			SweepInterval: getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
			MailboxSize:   getEnvInt("MAILBOX_SIZE", 50),
			MailboxTTL:    getEnvDuration("MAILBOX_TTL", 24*time.Hour),
		},
		Notify: NotifyConfig{
			Concurrency: getEnvInt("NOTIFY_CONCURRENCY", 16),
			Timeout:     getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			Limit:  getEnvInt("COMMAND_RATE_LIMIT", 30),
			Window: getEnvDuration("COMMAND_RATE_WINDOW", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS cannot be empty")
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be > 0")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	if c.Session.MailboxSize <= 0 {
		return fmt.Errorf("MAILBOX_SIZE must be > 0")
	}
	if c.Notify.Concurrency < 0 {
		return fmt.Errorf("NOTIFY_CONCURRENCY must be >= 0")
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("COMMAND_RATE_LIMIT and COMMAND_RATE_WINDOW must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
