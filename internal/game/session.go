// Package game implements the werewolf table: seats, judge, role dealing and
// death marking for one group, plus the registry that maps groups to tables.
package game

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ashureev/wolfbot/internal/catalog"
	"github.com/google/uuid"
)

// Seat is a numbered slot at the table. Seat 0 belongs to the judge.
type Seat int

// JudgeSeat is the judge's slot; it is never dealt a role.
const JudgeSeat Seat = 0

// State is the lifecycle state of a Session.
type State int

const (
	// Forming accepts seat changes.
	Forming State = iota
	// Running has roles dealt and accepts deaths.
	Running
)

// String returns the state name.
func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "forming"
}

// Player is a seated user with a dealt role.
type Player struct {
	Seat   Seat
	UserID string
	Role   catalog.RoleSpec
	Alive  bool
}

// Deal is an immutable copy of the dealt table, safe to use without the
// session lock.
type Deal struct {
	ID      string
	Judge   string
	Players []Player // ordered by seat
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	State   State
	Board   catalog.Board
	Judge   string
	Seats   []string // Seats[i] occupies seat i+1; "" when empty
	Players []Player // populated only while Running
}

// Target names who a kick applies to: a seat, the judge, or a user.
type Target struct {
	seat   Seat
	userID string
	byUser bool
}

// SeatTarget addresses a numbered seat.
func SeatTarget(seat Seat) Target { return Target{seat: seat} }

// JudgeTarget addresses the judge slot.
func JudgeTarget() Target { return Target{seat: JudgeSeat} }

// UserTarget addresses whichever slot the user holds.
func UserTarget(userID string) Target { return Target{userID: userID, byUser: true} }

func (t Target) String() string {
	switch {
	case t.byUser:
		return "user " + t.userID
	case t.seat == JudgeSeat:
		return "judge"
	default:
		return fmt.Sprintf("seat %d", t.seat)
	}
}

type cachedText struct {
	text  string
	dirty bool
}

// Option configures a Session.
type Option func(*Session)

// WithRand sets the shuffle source. The source must not be shared with
// another session.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithClock overrides the clock used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is one werewolf table. All methods are safe for concurrent use.
type Session struct {
	mu    sync.Mutex
	board catalog.Board
	rng   *rand.Rand
	now   func() time.Time

	state    State
	judge    string
	seats    []string
	userSeat map[string]Seat
	players  []Player
	dealID   string

	retired    bool
	lastActive time.Time

	// indexed by showRoles: 0 hides roles, 1 shows them
	briefing [2]cachedText
}

// NewSession creates an empty Forming session for the given board.
func NewSession(board catalog.Board, opts ...Option) *Session {
	s := &Session{
		board:    board,
		seats:    make([]string, board.Len()),
		userSeat: make(map[string]Seat),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = newRand()
	}
	s.touch()
	return s
}

func newRand() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("game: read random seed: " + err.Error())
	}
	return rand.New(rand.NewChaCha8(seed))
}

// touch records a mutation: both briefing variants go stale.
func (s *Session) touch() {
	s.briefing[0].dirty = true
	s.briefing[1].dirty = true
	s.lastActive = s.now()
}

// Board returns the session's board.
func (s *Session) Board() catalog.Board {
	return s.board
}

// PlayerCount returns the number of numbered seats.
func (s *Session) PlayerCount() int {
	return len(s.seats)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Judge returns the judge's user id, or "" if the slot is empty.
func (s *Session) Judge() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.judge
}

// Has reports whether the user is the judge or holds a seat.
func (s *Session) Has(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMember(userID)
}

// Empty reports whether no seat is taken and there is no judge.
func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isEmpty()
}

// LastActive returns the time of the latest mutation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		State: s.state,
		Board: s.board,
		Judge: s.judge,
		Seats: append([]string(nil), s.seats...),
	}
	if s.state == Running {
		snap.Players = append([]Player(nil), s.players...)
	}
	return snap
}

func (s *Session) hasMember(userID string) bool {
	if userID != "" && userID == s.judge {
		return true
	}
	_, ok := s.userSeat[userID]
	return ok
}

func (s *Session) isEmpty() bool {
	return s.judge == "" && len(s.userSeat) == 0
}

func (s *Session) members() []string {
	var out []string
	if s.judge != "" {
		out = append(out, s.judge)
	}
	for _, u := range s.seats {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (s *Session) validSeat(seat Seat) bool {
	return seat >= JudgeSeat && int(seat) <= len(s.seats)
}

// Join seats a user, or makes them judge when seat is JudgeSeat.
func (s *Session) Join(userID string, seat Seat) error {
	if userID == "" {
		return ErrInvalidUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return ErrSessionClosed
	}
	if !s.validSeat(seat) {
		return fmt.Errorf("%w: %d not in [0..%d]", ErrInvalidSeat, seat, len(s.seats))
	}
	if s.state == Running {
		return ErrGameStarted
	}
	if seat != JudgeSeat && len(s.userSeat) == len(s.seats) {
		return ErrPlayerFull
	}
	if s.hasMember(userID) {
		return ErrPlayerInReadyPool
	}

	if seat == JudgeSeat {
		if s.judge != "" {
			return fmt.Errorf("judge: %w", ErrPlayerSeatTaken)
		}
		s.judge = userID
	} else {
		if s.seats[seat-1] != "" {
			return fmt.Errorf("seat %d: %w", seat, ErrPlayerSeatTaken)
		}
		s.seats[seat-1] = userID
		s.userSeat[userID] = seat
	}
	s.touch()
	return nil
}

// Leave frees whatever slot the user holds and returns it.
func (s *Session) Leave(userID string) (Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return 0, ErrSessionClosed
	}
	if s.state == Running {
		return 0, ErrGameStarted
	}
	seat, ok := s.seatOf(userID)
	if !ok {
		return 0, ErrNotJoined
	}
	s.vacate(seat)
	return seat, nil
}

// Kick removes the occupant of the target slot and returns their user id.
func (s *Session) Kick(t Target) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return "", ErrSessionClosed
	}
	if s.state == Running {
		return "", ErrGameStarted
	}

	seat := t.seat
	if t.byUser {
		var ok bool
		if seat, ok = s.seatOf(t.userID); !ok {
			return "", ErrNotJoined
		}
	} else if !s.validSeat(seat) {
		return "", fmt.Errorf("%w: %d not in [0..%d]", ErrInvalidSeat, seat, len(s.seats))
	}

	userID := s.occupant(seat)
	if userID == "" {
		return "", fmt.Errorf("%s: %w", t, ErrSeatEmpty)
	}
	s.vacate(seat)
	return userID, nil
}

func (s *Session) seatOf(userID string) (Seat, bool) {
	if userID != "" && userID == s.judge {
		return JudgeSeat, true
	}
	seat, ok := s.userSeat[userID]
	return seat, ok
}

func (s *Session) occupant(seat Seat) string {
	if seat == JudgeSeat {
		return s.judge
	}
	return s.seats[seat-1]
}

func (s *Session) vacate(seat Seat) {
	if seat == JudgeSeat {
		s.judge = ""
	} else {
		delete(s.userSeat, s.seats[seat-1])
		s.seats[seat-1] = ""
	}
	s.touch()
}

// Start deals the board onto the seated players and moves to Running.
func (s *Session) Start() (Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return Deal{}, ErrSessionClosed
	}
	if s.state == Running {
		return Deal{}, ErrGameStarted
	}
	if len(s.userSeat) < len(s.seats) {
		return Deal{}, fmt.Errorf("%w: %d of %d seated", ErrPlayerNotEnough, len(s.userSeat), len(s.seats))
	}
	if s.judge == "" {
		return Deal{}, ErrJudgeNotFound
	}

	s.deal()
	s.state = Running
	s.touch()
	return s.currentDeal(), nil
}

// deal shuffles the seat order and hands out the board's roles along it.
// Every seat-to-role assignment consistent with the board is equally likely.
func (s *Session) deal() {
	order := make([]Seat, len(s.seats))
	for i := range order {
		order[i] = Seat(i + 1)
	}
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	roles := s.board.Roles()
	players := make([]Player, len(order))
	for i, seat := range order {
		players[seat-1] = Player{
			Seat:   seat,
			UserID: s.seats[seat-1],
			Role:   roles[i],
			Alive:  true,
		}
	}
	s.players = players
	s.dealID = uuid.NewString()
}

func (s *Session) currentDeal() Deal {
	return Deal{
		ID:      s.dealID,
		Judge:   s.judge,
		Players: append([]Player(nil), s.players...),
	}
}

// Deal returns the current deal, e.g. to resend role messages.
func (s *Session) Deal() (Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return Deal{}, ErrSessionClosed
	}
	if s.state != Running {
		return Deal{}, ErrGameNotStarted
	}
	return s.currentDeal(), nil
}

// Redeal reshuffles roles for a running game. Everyone is alive again.
func (s *Session) Redeal() (Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return Deal{}, ErrSessionClosed
	}
	if s.state != Running {
		return Deal{}, ErrGameNotStarted
	}
	s.deal()
	s.touch()
	return s.currentDeal(), nil
}

// Kill marks the player at seat dead.
func (s *Session) Kill(seat Seat) (Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return Deal{}, ErrSessionClosed
	}
	if s.state != Running {
		return Deal{}, ErrGameNotStarted
	}
	if seat <= JudgeSeat || int(seat) > len(s.seats) {
		return Deal{}, fmt.Errorf("%w: %d not in [1..%d]", ErrInvalidSeat, seat, len(s.seats))
	}
	p := &s.players[seat-1]
	if !p.Alive {
		return Deal{}, fmt.Errorf("seat %d: %w", seat, ErrPlayerAlreadyDead)
	}
	p.Alive = false
	s.touch()
	return s.currentDeal(), nil
}

// Stop ends a running game. It returns the full role reveal and leaves the
// session empty and Forming.
func (s *Session) Stop() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return "", ErrSessionClosed
	}
	if s.state != Running {
		return "", ErrGameNotStarted
	}
	reveal := RenderReveal(s.snapshot())
	s.reset()
	return reveal, nil
}

// Clear removes every occupant and the judge, returning who was removed.
// A running game is only cleared when force is set.
func (s *Session) Clear(force bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return nil, ErrSessionClosed
	}
	if s.state == Running && !force {
		return nil, ErrGameStarted
	}
	removed := s.members()
	s.reset()
	return removed, nil
}

func (s *Session) reset() {
	s.state = Forming
	s.judge = ""
	s.seats = make([]string, len(s.seats))
	s.userSeat = make(map[string]Seat)
	s.players = nil
	s.dealID = ""
	s.touch()
}

// Briefing returns the roster text, rebuilding it only after a mutation.
func (s *Session) Briefing(showRoles bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &s.briefing[0]
	if showRoles {
		c = &s.briefing[1]
	}
	if c.dirty {
		c.text = Render(s.snapshot(), showRoles)
		c.dirty = false
	}
	return c.text
}

// retireIfEmpty retires the session when nobody occupies it.
func (s *Session) retireIfEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired || !s.isEmpty() {
		return s.retired
	}
	s.retired = true
	return true
}

// retireIfIdle retires an empty session untouched since cutoff.
func (s *Session) retireIfIdle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return true
	}
	if !s.isEmpty() || s.lastActive.After(cutoff) {
		return false
	}
	s.retired = true
	return true
}
