package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ashureev/wolfbot/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "data", "wolfbot.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return repo
}

func TestSQLite_PresetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)

	if got, err := repo.GetPreset(ctx, "missing"); err != nil || got != nil {
		t.Fatalf("Expected nil, nil for missing preset, got %v, %v", got, err)
	}

	if err := repo.UpsertPreset(ctx, &domain.Preset{Name: "classic", Board: "pwbynls"}); err != nil {
		t.Fatalf("UpsertPreset: %v", err)
	}
	if err := repo.SetAliases(ctx, "classic", []string{"c7", " seven ", "c7", "classic"}); err != nil {
		t.Fatalf("SetAliases: %v", err)
	}

	for _, key := range []string{"classic", "c7", "seven"} {
		p, err := repo.GetPreset(ctx, key)
		if err != nil || p == nil {
			t.Fatalf("GetPreset(%q): %v, %v", key, p, err)
		}
		if p.Name != "classic" || p.Board != "pwbynls" {
			t.Errorf("GetPreset(%q) = %+v", key, p)
		}
		if len(p.Aliases) != 2 || p.Aliases[0] != "c7" || p.Aliases[1] != "seven" {
			t.Errorf("Expected aliases [c7 seven], got %v", p.Aliases)
		}
	}

	if err := repo.UpsertPreset(ctx, &domain.Preset{Name: "classic", Board: "pwbw"}); err != nil {
		t.Fatalf("UpsertPreset update: %v", err)
	}
	p, _ := repo.GetPreset(ctx, "c7")
	if p == nil || p.Board != "pwbw" {
		t.Errorf("Expected updated board via alias, got %+v", p)
	}
}

func TestSQLite_SetAliasesConflicts(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)

	_ = repo.UpsertPreset(ctx, &domain.Preset{Name: "a", Board: "pw"})
	_ = repo.UpsertPreset(ctx, &domain.Preset{Name: "b", Board: "pwbw"})
	if err := repo.SetAliases(ctx, "a", []string{"small"}); err != nil {
		t.Fatalf("SetAliases: %v", err)
	}

	if err := repo.SetAliases(ctx, "b", []string{"small"}); !errors.Is(err, ErrAliasTaken) {
		t.Errorf("Expected ErrAliasTaken for alias of another preset, got %v", err)
	}
	if err := repo.SetAliases(ctx, "b", []string{"a"}); !errors.Is(err, ErrAliasTaken) {
		t.Errorf("Expected ErrAliasTaken for another preset's name, got %v", err)
	}
	if err := repo.SetAliases(ctx, "nope", []string{"x"}); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("Expected ErrPresetNotFound, got %v", err)
	}

	// Replacing the alias set drops the old alias.
	if err := repo.SetAliases(ctx, "a", []string{"tiny"}); err != nil {
		t.Fatalf("SetAliases replace: %v", err)
	}
	if p, _ := repo.GetPreset(ctx, "small"); p != nil {
		t.Errorf("Expected old alias to be gone, got %+v", p)
	}
}

func TestSQLite_SeedPresets(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)

	seed := []*domain.Preset{
		{Name: "classic", Board: "pwbynls", Aliases: []string{"c7"}},
		{Name: "standard12", Board: "ppppwwwwynlc"},
	}
	added, err := repo.SeedPresets(ctx, seed)
	if err != nil || added != 2 {
		t.Fatalf("Expected 2 presets added, got %d, %v", added, err)
	}

	_ = repo.UpsertPreset(ctx, &domain.Preset{Name: "classic", Board: "pw"})
	added, err = repo.SeedPresets(ctx, seed)
	if err != nil || added != 0 {
		t.Fatalf("Expected reseed to add nothing, got %d, %v", added, err)
	}
	if p, _ := repo.GetPreset(ctx, "c7"); p == nil || p.Board != "pw" {
		t.Errorf("Expected seeding to keep edited board, got %+v", p)
	}

	all, err := repo.ListPresets(ctx)
	if err != nil {
		t.Fatalf("ListPresets: %v", err)
	}
	if len(all) != 2 || all[0].Name != "classic" || all[1].Name != "standard12" {
		t.Errorf("Unexpected preset list: %+v", all)
	}
}

func TestSQLite_Operators(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)

	if op, err := repo.GetOperator(ctx, "u1"); err != nil || op != nil {
		t.Fatalf("Expected nil operator, got %v, %v", op, err)
	}
	if err := repo.SetOperator(ctx, &domain.Operator{UserID: "u1", Level: domain.LevelModerator}); err != nil {
		t.Fatalf("SetOperator: %v", err)
	}
	if err := repo.SetOperator(ctx, &domain.Operator{UserID: "u1", Level: domain.LevelAdmin}); err != nil {
		t.Fatalf("SetOperator update: %v", err)
	}
	op, err := repo.GetOperator(ctx, "u1")
	if err != nil || op == nil || op.Level != domain.LevelAdmin {
		t.Errorf("Expected admin operator, got %+v, %v", op, err)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
