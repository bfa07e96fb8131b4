// Package store provides persistence for board presets and operator rights.
package store

import (
	"context"
	"errors"

	"github.com/ashureev/wolfbot/internal/domain"
)

var (
	// ErrPresetNotFound is returned when a write targets a preset that does not exist.
	ErrPresetNotFound = errors.New("preset not found")
	// ErrAliasTaken is returned when an alias already names a different preset.
	ErrAliasTaken = errors.New("alias already used by another preset")
)

// Repository defines the interface for persisting presets and operators.
type Repository interface {
	// GetPreset retrieves a preset by its name or any of its aliases.
	// Returns nil, nil when nothing matches.
	GetPreset(ctx context.Context, nameOrAlias string) (*domain.Preset, error)

	// ListPresets returns every preset ordered by name.
	ListPresets(ctx context.Context) ([]*domain.Preset, error)

	// UpsertPreset creates or updates a preset's board.
	UpsertPreset(ctx context.Context, preset *domain.Preset) error

	// SetAliases replaces the alias set of an existing preset.
	SetAliases(ctx context.Context, name string, aliases []string) error

	// SeedPresets inserts presets that do not exist yet and returns how many were added.
	SeedPresets(ctx context.Context, presets []*domain.Preset) (int64, error)

	// GetOperator retrieves a user's operator record. Returns nil, nil for ordinary users.
	GetOperator(ctx context.Context, userID string) (*domain.Operator, error)

	// SetOperator creates or updates an operator record.
	SetOperator(ctx context.Context, op *domain.Operator) error

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
