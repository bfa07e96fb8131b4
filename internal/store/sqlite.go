package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/wolfbot/internal/domain"
	"github.com/ashureev/wolfbot/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	writeRetries   = 3
	writeBaseDelay = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL for concurrent readers; foreign keys so aliases follow their preset.
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS presets (
		name TEXT PRIMARY KEY,
		board TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS preset_aliases (
		alias TEXT PRIMARY KEY,
		name TEXT NOT NULL REFERENCES presets(name) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_preset_aliases_name ON preset_aliases(name);

	CREATE TABLE IF NOT EXISTS operators (
		user_id TEXT PRIMARY KEY,
		level INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// withRetry runs a write, retrying with exponential backoff while SQLite
// reports the database as busy or locked.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := 0; i < writeRetries; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == writeRetries-1 {
			break
		}

		delay := writeBaseDelay * time.Duration(1<<i) // 50ms, 100ms
		slog.Debug("SQLite busy, retrying", "op", op, "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetPreset retrieves a preset by name or alias.
func (s *SQLiteStore) GetPreset(ctx context.Context, nameOrAlias string) (*domain.Preset, error) {
	query := `
		SELECT name, board, created_at, updated_at
		FROM presets
		WHERE name = ? OR name = (SELECT name FROM preset_aliases WHERE alias = ?)
		LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, nameOrAlias, nameOrAlias)

	var preset domain.Preset
	var createdAt, updatedAt int64
	err := row.Scan(&preset.Name, &preset.Board, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan preset row: %w", err)
	}
	preset.CreatedAt = time.Unix(createdAt, 0)
	preset.UpdatedAt = time.Unix(updatedAt, 0)

	aliases, err := s.aliases(ctx, preset.Name)
	if err != nil {
		return nil, err
	}
	preset.Aliases = aliases
	return &preset, nil
}

func (s *SQLiteStore) aliases(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT alias FROM preset_aliases WHERE name = ? ORDER BY alias`, name)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close alias rows", "error", closeErr)
		}
	}()

	var out []string
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, fmt.Errorf("scan alias row: %w", err)
		}
		out = append(out, alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aliases: %w", err)
	}
	return out, nil
}

// ListPresets returns every preset ordered by name.
func (s *SQLiteStore) ListPresets(ctx context.Context) ([]*domain.Preset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, board, created_at, updated_at FROM presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query presets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close preset rows", "error", closeErr)
		}
	}()

	var presets []*domain.Preset
	for rows.Next() {
		var p domain.Preset
		var createdAt, updatedAt int64
		if err := rows.Scan(&p.Name, &p.Board, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan preset row: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		p.UpdatedAt = time.Unix(updatedAt, 0)
		presets = append(presets, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presets: %w", err)
	}

	for _, p := range presets {
		if p.Aliases, err = s.aliases(ctx, p.Name); err != nil {
			return nil, err
		}
	}
	return presets, nil
}

// UpsertPreset creates or updates a preset's board.
func (s *SQLiteStore) UpsertPreset(ctx context.Context, preset *domain.Preset) error {
	query := `
	INSERT INTO presets (name, board, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		board = excluded.board,
		updated_at = excluded.updated_at`

	now := time.Now()
	createdAt := preset.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return withRetry(ctx, "upsert preset", func() error {
		_, err := s.db.ExecContext(ctx, query, preset.Name, preset.Board, createdAt.Unix(), now.Unix())
		return err
	})
}

// SetAliases replaces the alias set of an existing preset. An alias may not
// name another preset or be held by another preset's alias set.
func (s *SQLiteStore) SetAliases(ctx context.Context, name string, aliases []string) error {
	return withRetry(ctx, "set aliases", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer func() {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Warn("failed to roll back alias update", "error", rbErr)
			}
		}()

		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM presets WHERE name = ?`, name).Scan(&exists); err != nil {
			return fmt.Errorf("check preset: %w", err)
		}
		if exists == 0 {
			return ErrPresetNotFound
		}

		clean := normalizeAliases(name, aliases)
		for _, alias := range clean {
			var owner string
			err := tx.QueryRowContext(ctx, `
				SELECT name FROM preset_aliases WHERE alias = ?
				UNION SELECT name FROM presets WHERE name = ?`, alias, alias).Scan(&owner)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("check alias %q: %w", alias, err)
			}
			if err == nil && owner != name {
				return fmt.Errorf("%w: %q belongs to %q", ErrAliasTaken, alias, owner)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM preset_aliases WHERE name = ?`, name); err != nil {
			return fmt.Errorf("delete aliases: %w", err)
		}
		for _, alias := range clean {
			if _, err := tx.ExecContext(ctx, `INSERT INTO preset_aliases (alias, name) VALUES (?, ?)`, alias, name); err != nil {
				return fmt.Errorf("insert alias %q: %w", alias, err)
			}
		}
		return tx.Commit()
	})
}

func normalizeAliases(name string, aliases []string) []string {
	seen := map[string]bool{name: true}
	var out []string
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// SeedPresets inserts presets that do not exist yet along with their aliases.
func (s *SQLiteStore) SeedPresets(ctx context.Context, presets []*domain.Preset) (int64, error) {
	var added int64
	err := withRetry(ctx, "seed presets", func() error {
		added = 0
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer func() {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Warn("failed to roll back preset seed", "error", rbErr)
			}
		}()

		now := time.Now().Unix()
		for _, p := range presets {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO presets (name, board, created_at, updated_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(name) DO NOTHING`, p.Name, p.Board, now, now)
			if err != nil {
				return fmt.Errorf("insert preset %q: %w", p.Name, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("preset rows affected: %w", err)
			}
			added += n
			for _, alias := range normalizeAliases(p.Name, p.Aliases) {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO preset_aliases (alias, name) VALUES (?, ?)
					ON CONFLICT(alias) DO NOTHING`, alias, p.Name); err != nil {
					return fmt.Errorf("insert alias %q: %w", alias, err)
				}
			}
		}
		return tx.Commit()
	})
	return added, err
}

// GetOperator retrieves a user's operator record.
func (s *SQLiteStore) GetOperator(ctx context.Context, userID string) (*domain.Operator, error) {
	row := s.db.QueryRowContext(ctx, `SELECT user_id, level, updated_at FROM operators WHERE user_id = ?`, userID)

	var op domain.Operator
	var updatedAt int64
	err := row.Scan(&op.UserID, &op.Level, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan operator row: %w", err)
	}
	op.UpdatedAt = time.Unix(updatedAt, 0)
	return &op, nil
}

// SetOperator creates or updates an operator record.
func (s *SQLiteStore) SetOperator(ctx context.Context, op *domain.Operator) error {
	query := `
	INSERT INTO operators (user_id, level, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		level = excluded.level,
		updated_at = excluded.updated_at`

	return withRetry(ctx, "set operator", func() error {
		_, err := s.db.ExecContext(ctx, query, op.UserID, op.Level, time.Now().Unix())
		return err
	})
}
