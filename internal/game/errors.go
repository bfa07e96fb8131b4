package game

import "errors"

// Lifecycle conflicts.
var (
	ErrGameStarted    = errors.New("game already started")
	ErrGameNotStarted = errors.New("game not started")
	ErrSessionClosed  = errors.New("session closed")
)

// Seat and identity conflicts.
var (
	ErrPlayerFull        = errors.New("all player seats are taken")
	ErrPlayerInReadyPool = errors.New("user already holds a seat")
	ErrPlayerSeatTaken   = errors.New("seat already taken")
	ErrSeatEmpty         = errors.New("seat is empty")
	ErrNotJoined         = errors.New("user has not joined")
	ErrInvalidSeat       = errors.New("invalid seat")
	ErrInvalidUser       = errors.New("user id required")
)

// Start preconditions.
var (
	ErrPlayerNotEnough = errors.New("not every player seat is filled")
	ErrJudgeNotFound   = errors.New("no judge seated")
)

// ErrPlayerAlreadyDead reports a repeated kill. State is left unchanged.
var ErrPlayerAlreadyDead = errors.New("player already dead")

// Registry conditions.
var (
	ErrSeatsOccupied   = errors.New("table still has occupants")
	ErrJoinedElsewhere = errors.New("user already seated in another group")
	ErrNoSession       = errors.New("no session for group")
)
