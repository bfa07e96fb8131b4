package catalog

import "strings"

// Board is the ordered multiset of roles a session is dealt from.
// The zero value is an empty board.
type Board struct {
	roles []RoleSpec
}

// Count is one entry of a board's role composition.
type Count struct {
	Role RoleSpec
	N    int
}

// Len returns the number of player seats the board defines.
func (b Board) Len() int {
	return len(b.roles)
}

// Roles returns a copy of the board's roles in configured order.
func (b Board) Roles() []RoleSpec {
	out := make([]RoleSpec, len(b.roles))
	copy(out, b.roles)
	return out
}

// Codes returns the board as a code string, e.g. "pwbw".
func (b Board) Codes() string {
	var sb strings.Builder
	for _, r := range b.roles {
		sb.WriteRune(r.Code)
	}
	return sb.String()
}

// Composition counts roles in the order each first appears on the board.
func (b Board) Composition() []Count {
	var out []Count
	index := make(map[rune]int)
	for _, r := range b.roles {
		if i, ok := index[r.Code]; ok {
			out[i].N++
			continue
		}
		index[r.Code] = len(out)
		out = append(out, Count{Role: r, N: 1})
	}
	return out
}
