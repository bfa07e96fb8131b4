// Package catalog provides the static role table used to build game boards.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBoard is returned when a board string is empty or contains a code
// the catalog does not know.
var ErrInvalidBoard = errors.New("invalid board")

// Faction groups roles that share private knowledge.
type Faction int

const (
	// Villager roles know nothing beyond their own role.
	Villager Faction = iota
	// Wolf roles learn the seats of every other Wolf-faction role.
	Wolf
	// Other covers roles aligned with neither side at the table.
	Other
)

// String returns the faction name.
func (f Faction) String() string {
	switch f {
	case Villager:
		return "villager"
	case Wolf:
		return "wolf"
	case Other:
		return "other"
	default:
		return fmt.Sprintf("faction(%d)", int(f))
	}
}

// RoleSpec describes a single role.
type RoleSpec struct {
	Code    rune
	Name    string
	Faction Faction
}

// Catalog maps one-letter codes to roles.
type Catalog struct {
	roles map[rune]RoleSpec
	order []rune
}

// New builds a catalog from the given roles. Codes must be unique.
func New(roles ...RoleSpec) (*Catalog, error) {
	c := &Catalog{roles: make(map[rune]RoleSpec, len(roles))}
	for _, r := range roles {
		if r.Name == "" {
			return nil, fmt.Errorf("role %q: name cannot be empty", r.Code)
		}
		if _, dup := c.roles[r.Code]; dup {
			return nil, fmt.Errorf("duplicate role code %q", r.Code)
		}
		c.roles[r.Code] = r
		c.order = append(c.order, r.Code)
	}
	return c, nil
}

var defaultCatalog = mustNew(
	RoleSpec{Code: 'p', Name: "civilian", Faction: Villager},
	RoleSpec{Code: 'w', Name: "werewolf", Faction: Wolf},
	RoleSpec{Code: 'b', Name: "white_wolf_king", Faction: Wolf},
	RoleSpec{Code: 'k', Name: "wolf_king", Faction: Wolf},
	RoleSpec{Code: 'y', Name: "seer", Faction: Villager},
	RoleSpec{Code: 'n', Name: "witch", Faction: Villager},
	RoleSpec{Code: 'l', Name: "hunter", Faction: Villager},
	RoleSpec{Code: 's', Name: "guard", Faction: Villager},
	RoleSpec{Code: 'c', Name: "idiot", Faction: Villager},
	RoleSpec{Code: 'm', Name: "cupid", Faction: Villager},
	RoleSpec{Code: 'h', Name: "hidden_wolf", Faction: Other},
	RoleSpec{Code: 'x', Name: "wild_child", Faction: Other},
)

func mustNew(roles ...RoleSpec) *Catalog {
	c, err := New(roles...)
	if err != nil {
		panic("catalog: " + err.Error())
	}
	return c
}

// Default returns the built-in role catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Lookup returns the role for a code.
func (c *Catalog) Lookup(code rune) (RoleSpec, bool) {
	r, ok := c.roles[code]
	return r, ok
}

// Roles returns every role in registration order.
func (c *Catalog) Roles() []RoleSpec {
	out := make([]RoleSpec, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.roles[code])
	}
	return out
}

// Valid reports whether every code in board is known and board is non-empty.
func (c *Catalog) Valid(board string) bool {
	_, err := c.ParseBoard(board)
	return err == nil
}

// ParseBoard resolves a string of role codes into a Board.
func (c *Catalog) ParseBoard(board string) (Board, error) {
	board = strings.TrimSpace(board)
	if board == "" {
		return Board{}, fmt.Errorf("%w: empty", ErrInvalidBoard)
	}
	roles := make([]RoleSpec, 0, len(board))
	for _, code := range board {
		r, ok := c.roles[code]
		if !ok {
			return Board{}, fmt.Errorf("%w: unknown role code %q", ErrInvalidBoard, code)
		}
		roles = append(roles, r)
	}
	return Board{roles: roles}, nil
}
