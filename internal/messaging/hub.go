package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// ErrUndelivered is returned when a user is connected but every write failed.
// The message is still queued in the mailbox.
var ErrUndelivered = errors.New("message not delivered")

// conn is the slice of *websocket.Conn the hub writes through.
type conn interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Hub tracks live websocket connections per chat user.
type Hub struct {
	mu      sync.RWMutex
	active  map[string]map[string]conn // userID -> connectionID -> conn
	mailbox *Mailbox
	logger  *slog.Logger
}

// NewHub creates a hub backed by mailbox for offline users.
func NewHub(mailbox *Mailbox, logger *slog.Logger) *Hub {
	if mailbox == nil {
		mailbox = NewMailbox(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		active:  make(map[string]map[string]conn),
		mailbox: mailbox,
		logger:  logger,
	}
}

// Mailbox returns the hub's offline queue.
func (h *Hub) Mailbox() *Mailbox { return h.mailbox }

// Register adds a connection for a user, replacing any previous connection
// with the same ID.
func (h *Hub) Register(userID, connID string, c conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[userID]; !exists {
		h.active[userID] = make(map[string]conn)
	}
	if existing, exists := h.active[userID][connID]; exists && existing != c {
		_ = existing.Close(websocket.StatusNormalClosure, "connection replaced")
	}
	h.active[userID][connID] = c
	h.logger.Info("Message connection registered", "user_id", userID, "conn_id", connID)
}

// Unregister removes a connection if it is still the current one for connID.
func (h *Hub) Unregister(userID, connID string, c conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.active[userID]
	if !ok {
		return
	}
	if current, exists := conns[connID]; exists && current == c {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.active, userID)
		}
		h.logger.Info("Message connection unregistered", "user_id", userID, "conn_id", connID)
	}
}

// Online reports whether userID has at least one live connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active[userID]) > 0
}

// SendPrivate writes text to every connection of userID. Offline users get
// the message queued and nil is returned. If the user is connected but no
// write succeeds, the message is queued and ErrUndelivered is returned.
func (h *Hub) SendPrivate(ctx context.Context, userID, text string) error {
	h.mu.RLock()
	conns := make([]conn, 0, len(h.active[userID]))
	for _, c := range h.active[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		h.mailbox.Enqueue(userID, text)
		h.logger.Debug("Recipient offline, message queued", "user_id", userID)
		return nil
	}

	data, err := encodeFrame(frame{Type: frameMessage, Text: text})
	if err != nil {
		return err
	}

	var errs []error
	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(conns) {
		h.mailbox.Enqueue(userID, text)
		return fmt.Errorf("%w: %w", ErrUndelivered, errors.Join(errs...))
	}
	return nil
}
