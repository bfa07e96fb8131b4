package domain

import (
	"time"
)

// Operator levels. Level 0 is an ordinary user.
const (
	LevelNone      = 0
	LevelModerator = 1
	LevelAdmin     = 2
)

// Operator grants a chat user moderation rights over tables.
type Operator struct {
	UserID    string    `json:"user_id"`
	Level     int       `json:"level"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidLevel reports whether level is a known operator level.
func ValidLevel(level int) bool {
	return level >= LevelNone && level <= LevelAdmin
}

// CanModerate returns true if the operator may kick players, clear tables,
// force-stop a running game or edit presets.
func (o *Operator) CanModerate() bool {
	return o != nil && o.Level >= LevelModerator
}

// CanGrant returns true if the operator may change other users' levels.
func (o *Operator) CanGrant() bool {
	return o != nil && o.Level >= LevelAdmin
}
