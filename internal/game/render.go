package game

import (
	"fmt"
	"strings"

	"github.com/ashureev/wolfbot/internal/catalog"
)

const emptySlot = "empty"

// Mention formats a user id the way the chat transport expects.
func Mention(userID string) string {
	return "@" + userID
}

// Render builds the roster text for a snapshot. Identical snapshots always
// render identically: seats ascend and the composition follows board order.
func Render(snap Snapshot, showRoles bool) string {
	return render(snap, snap.State.String(), showRoles)
}

// RenderReveal renders the end-of-game roster with every role shown.
func RenderReveal(snap Snapshot) string {
	return render(snap, "finished", true)
}

func render(snap Snapshot, status string, showRoles bool) string {
	lines := make([]string, 0, len(snap.Seats)+2)
	lines = append(lines, fmt.Sprintf("Status: %s | Board: %s", status, Composition(snap.Board)))
	lines = append(lines, fmt.Sprintf("0 (judge): %s", slotText(snap.Judge)))

	for i, userID := range snap.Seats {
		seat := i + 1
		if snap.State != Running || i >= len(snap.Players) {
			lines = append(lines, fmt.Sprintf("%d: %s", seat, slotText(userID)))
			continue
		}
		p := snap.Players[i]
		line := fmt.Sprintf("%d: %s", seat, slotText(p.UserID))
		if showRoles {
			line += " [" + p.Role.Name + "]"
		}
		if !p.Alive {
			line += " (dead)"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Composition spells out a board as "<name>x<count>" pairs in board order.
func Composition(b catalog.Board) string {
	counts := b.Composition()
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%sx%d", c.Role.Name, c.N))
	}
	return strings.Join(parts, ", ")
}

func slotText(userID string) string {
	if userID == "" {
		return emptySlot
	}
	return Mention(userID)
}
