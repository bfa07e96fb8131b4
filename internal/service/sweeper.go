package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/wolfbot/internal/game"
)

// MailboxPruner drops undelivered messages older than a cutoff.
type MailboxPruner interface {
	PruneExpired(maxAge time.Duration) int
}

// SweeperConfig controls the idle sweeper.
type SweeperConfig struct {
	Interval   time.Duration
	SessionTTL time.Duration
	MailboxTTL time.Duration
}

// StartSweeper runs a background goroutine that periodically removes idle
// empty sessions and expires undelivered private messages.
func StartSweeper(ctx context.Context, registry *game.Registry, mailbox MailboxPruner, cfg SweeperConfig, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(cfg.Interval)
	go func() {
		defer ticker.Stop()
		logger.Info("Sweeper started", "interval", cfg.Interval, "session_ttl", cfg.SessionTTL, "mailbox_ttl", cfg.MailboxTTL)

		for {
			select {
			case <-ticker.C:
				sweep(registry, mailbox, cfg, logger)
			case <-ctx.Done():
				logger.Info("Sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(registry *game.Registry, mailbox MailboxPruner, cfg SweeperConfig, logger *slog.Logger) (sessions, messages int) {
	if registry != nil && cfg.SessionTTL > 0 {
		sessions = registry.Sweep(cfg.SessionTTL)
	}
	if mailbox != nil && cfg.MailboxTTL > 0 {
		messages = mailbox.PruneExpired(cfg.MailboxTTL)
	}
	if sessions > 0 || messages > 0 {
		logger.Info("Sweeper cleanup completed", "sessions", sessions, "messages", messages)
	}
	return sessions, messages
}
