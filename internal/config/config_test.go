package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Session.IdleTTL != 6*time.Hour {
		t.Errorf("Expected 6h idle TTL, got %v", cfg.Session.IdleTTL)
	}
	if cfg.AnonymousUserID != "80000000" {
		t.Errorf("Expected anonymous user 80000000, got %s", cfg.AnonymousUserID)
	}
	if len(cfg.AdminUserIDs) != 0 {
		t.Errorf("Expected no admins by default, got %v", cfg.AdminUserIDs)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Setenv("MAILBOX_SIZE", "not-a-number")
	t.Setenv("ADMIN_USER_IDS", "10001, 10002")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.Notify.Timeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %v", cfg.Notify.Timeout)
	}
	if cfg.Session.MailboxSize != 50 {
		t.Errorf("Expected malformed MAILBOX_SIZE to fall back to 50, got %d", cfg.Session.MailboxSize)
	}
	if len(cfg.AdminUserIDs) != 2 || cfg.AdminUserIDs[0] != "10001" {
		t.Errorf("Unexpected admins: %v", cfg.AdminUserIDs)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", ""},
		{"DB_PATH", ""},
		{"ALLOWED_ORIGINS", " , "},
		{"SESSION_IDLE_TTL", "0s"},
		{"COMMAND_RATE_LIMIT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
