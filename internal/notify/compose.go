// Package notify composes and delivers the private messages that follow a
// deal or a death.
package notify

import (
	"fmt"
	"strings"

	"github.com/ashureev/wolfbot/internal/catalog"
	"github.com/ashureev/wolfbot/internal/game"
)

// Message is one private message to one user.
type Message struct {
	UserID string
	Text   string
}

// ComposeDeal builds the role reveal for every player plus the judge's
// seat-to-role list. Wolf-faction players also learn their teammates' seats.
func ComposeDeal(deal game.Deal) []Message {
	var wolves []game.Seat
	for _, p := range deal.Players {
		if p.Role.Faction == catalog.Wolf {
			wolves = append(wolves, p.Seat)
		}
	}

	msgs := make([]Message, 0, len(deal.Players)+1)
	for _, p := range deal.Players {
		text := fmt.Sprintf("You are seat %d. Your role is %s.", p.Seat, p.Role.Name)
		if p.Role.Faction == catalog.Wolf {
			text += " Your wolf teammates: " + seatList(wolves, p.Seat) + "."
		}
		msgs = append(msgs, Message{UserID: p.UserID, Text: text})
	}

	var sb strings.Builder
	sb.WriteString("You are the judge.")
	for _, p := range deal.Players {
		fmt.Fprintf(&sb, "\n%d: %s", p.Seat, p.Role.Name)
	}
	msgs = append(msgs, Message{UserID: deal.Judge, Text: sb.String()})
	return msgs
}

// ComposeAlive builds the judge's list of players still alive.
func ComposeAlive(deal game.Deal) Message {
	var sb strings.Builder
	sb.WriteString("Still alive:")
	for _, p := range deal.Players {
		if p.Alive {
			fmt.Fprintf(&sb, "\n%d: %s", p.Seat, p.Role.Name)
		}
	}
	return Message{UserID: deal.Judge, Text: sb.String()}
}

func seatList(seats []game.Seat, self game.Seat) string {
	parts := make([]string, 0, len(seats))
	for _, s := range seats {
		if s != self {
			parts = append(parts, fmt.Sprintf("%d", s))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
