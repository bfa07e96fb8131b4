package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Sender delivers a private message to a single user.
type Sender interface {
	SendPrivate(ctx context.Context, userID, text string) error
}

// Config bounds a fan-out.
type Config struct {
	// Concurrency caps in-flight sends; 0 means unbounded.
	Concurrency int
	// Timeout applies to each send; 0 means none beyond the caller's ctx.
	Timeout time.Duration
}

// Failure is a message that could not be delivered.
type Failure struct {
	UserID string
	Err    error
}

// Report summarizes one fan-out.
type Report struct {
	Sent     int
	Failures []Failure
}

// Err joins every delivery failure, or returns nil.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("deliver to %s: %w", f.UserID, f.Err))
	}
	return errors.Join(errs...)
}

// FailedUsers lists the recipients whose delivery failed.
func (r Report) FailedUsers() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.UserID)
	}
	return out
}

// Notifier fans messages out to a Sender concurrently.
type Notifier struct {
	sender Sender
	cfg    Config
	logger *slog.Logger
}

// New creates a Notifier.
func New(sender Sender, cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{sender: sender, cfg: cfg, logger: logger}
}

// Dispatch sends every message on its own goroutine and returns once all of
// them have either been delivered or failed. Recipients are not ordered.
func (n *Notifier) Dispatch(ctx context.Context, msgs []Message) Report {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		report Report
	)
	if n.cfg.Concurrency > 0 {
		g.SetLimit(n.cfg.Concurrency)
	}

	for _, m := range msgs {
		g.Go(func() error {
			err := n.send(ctx, m)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, Failure{UserID: m.UserID, Err: err})
				n.logger.Warn("Private message delivery failed", "user_id", m.UserID, "error", err)
				return nil
			}
			report.Sent++
			return nil
		})
	}
	_ = g.Wait()

	return report
}

func (n *Notifier) send(ctx context.Context, m Message) error {
	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}
	return n.sender.SendPrivate(ctx, m.UserID, m.Text)
}
