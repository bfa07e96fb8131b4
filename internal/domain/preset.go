// Package domain contains the persisted record types for the werewolf bot.
package domain

import (
	"time"
)

// Preset is a named board configuration, e.g. "standard12" -> "ppppwwwwynlc".
type Preset struct {
	Name      string    `json:"name"`
	Board     string    `json:"board"`
	Aliases   []string  `json:"aliases,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Seats returns the number of player seats the preset defines.
func (p *Preset) Seats() int {
	return len([]rune(p.Board))
}
