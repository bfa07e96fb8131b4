package catalog

import (
	"errors"
	"testing"
)

func TestNew_RejectsDuplicateCodes(t *testing.T) {
	_, err := New(
		RoleSpec{Code: 'p', Name: "civilian"},
		RoleSpec{Code: 'p', Name: "peasant"},
	)
	if err == nil {
		t.Fatal("Expected error for duplicate code, got nil")
	}
}

func TestDefault_CodesUnique(t *testing.T) {
	seen := make(map[rune]bool)
	for _, r := range Default().Roles() {
		if seen[r.Code] {
			t.Errorf("Code %q registered twice", r.Code)
		}
		seen[r.Code] = true
	}
}

func TestParseBoard(t *testing.T) {
	tests := []struct {
		name    string
		board   string
		wantLen int
		wantErr bool
	}{
		{name: "example board", board: "pwbw", wantLen: 4},
		{name: "seven seats", board: "pwbynls", wantLen: 7},
		{name: "surrounding space trimmed", board: " pw ", wantLen: 2},
		{name: "empty", board: "", wantErr: true},
		{name: "unknown code", board: "pwz", wantErr: true},
		{name: "upper case not accepted", board: "PW", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Default().ParseBoard(tt.board)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBoard) {
					t.Fatalf("Expected ErrInvalidBoard, got %v", err)
				}
				if Default().Valid(tt.board) {
					t.Errorf("Valid(%q) = true, want false", tt.board)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if b.Len() != tt.wantLen {
				t.Errorf("Expected len %d, got %d", tt.wantLen, b.Len())
			}
		})
	}
}

func TestBoard_Composition(t *testing.T) {
	b, err := Default().ParseBoard("pwbwp")
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}

	got := b.Composition()
	want := []struct {
		name string
		n    int
	}{
		{"civilian", 2},
		{"werewolf", 2},
		{"white_wolf_king", 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Role.Name != w.name || got[i].N != w.n {
			t.Errorf("Entry %d: expected %s x%d, got %s x%d", i, w.name, w.n, got[i].Role.Name, got[i].N)
		}
	}
	if b.Codes() != "pwbwp" {
		t.Errorf("Expected codes pwbwp, got %s", b.Codes())
	}
}

func TestLookup_Factions(t *testing.T) {
	for code, want := range map[rune]Faction{'p': Villager, 'w': Wolf, 'b': Wolf, 'h': Other} {
		r, ok := Default().Lookup(code)
		if !ok {
			t.Fatalf("Lookup(%q) not found", code)
		}
		if r.Faction != want {
			t.Errorf("Lookup(%q).Faction = %v, want %v", code, r.Faction, want)
		}
	}
}
