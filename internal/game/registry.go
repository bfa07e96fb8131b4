package game

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/wolfbot/internal/catalog"
)

// Registry maps group ids to their session and tracks which group each user
// is seated in.
type Registry struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	sessions map[string]*Session
	claims   map[string]string // userID -> groupID
	opts     []Option
	now      func() time.Time
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSessionOptions applies opts to every session the registry creates.
func WithSessionOptions(opts ...Option) RegistryOption {
	return func(r *Registry) { r.opts = append(r.opts, opts...) }
}

// WithRegistryClock overrides the clock for the registry and its sessions.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
		r.opts = append(r.opts, WithClock(now))
	}
}

// NewRegistry creates an empty registry backed by cat.
func NewRegistry(cat *catalog.Catalog, logger *slog.Logger, opts ...RegistryOption) *Registry {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		catalog:  cat,
		sessions: make(map[string]*Session),
		claims:   make(map[string]string),
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the role catalog boards are parsed against.
func (r *Registry) Catalog() *catalog.Catalog {
	return r.catalog
}

// Create installs a new session for the group. An existing session is
// replaced only when it is empty.
func (r *Registry) Create(groupID, board string) (*Session, error) {
	b, err := r.catalog.ParseBoard(board)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sessions[groupID]; ok && !old.retireIfEmpty() {
		return nil, ErrSeatsOccupied
	}
	s := NewSession(b, r.opts...)
	r.sessions[groupID] = s
	r.logger.Info("Session created", "group_id", groupID, "board", b.Codes())
	return s, nil
}

// Get returns the group's session.
func (r *Registry) Get(groupID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[groupID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Join seats userID in groupID's session. A user holds a slot in one group
// at a time; the cross-group check and the seating happen under the registry
// lock, so concurrent joins for the same user cannot both succeed.
func (r *Registry) Join(groupID, userID string, seat Seat) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[groupID]
	if !ok {
		return nil, ErrNoSession
	}
	if other, ok := r.claims[userID]; ok && other != groupID {
		if held, live := r.sessions[other]; live && held.Has(userID) {
			return nil, fmt.Errorf("%w: %s", ErrJoinedElsewhere, other)
		}
	}
	if err := s.Join(userID, seat); err != nil {
		return nil, err
	}
	r.claims[userID] = groupID
	return s, nil
}

// Release drops the claims the users hold on groupID. A claim survives while
// its user is still seated there.
func (r *Registry) Release(groupID string, userIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sessions[groupID]
	for _, u := range userIDs {
		if r.claims[u] != groupID {
			continue
		}
		if s != nil && s.Has(u) {
			continue
		}
		delete(r.claims, u)
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes empty sessions that have been idle for longer than idle and
// returns how many were removed.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for groupID, s := range r.sessions {
		if !s.retireIfIdle(cutoff) {
			continue
		}
		delete(r.sessions, groupID)
		for u, g := range r.claims {
			if g == groupID {
				delete(r.claims, u)
			}
		}
		removed++
		r.logger.Debug("Idle session removed", "group_id", groupID)
	}
	return removed
}
