package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/wolfbot/internal/identity"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	frameMessage = "message"
	framePing    = "ping"
	framePong    = "pong"
)

// frame is the JSON envelope exchanged with clients.
type frame struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	QueuedAt int64  `json:"queued_at,omitempty"`
}

func encodeFrame(f frame) ([]byte, error) {
	return json.Marshal(f)
}

// Handler upgrades GET /ws/messages and keeps the connection registered in the hub.
type Handler struct {
	hub            *Hub
	allowedOrigins []string
	logger         *slog.Logger
}

// NewHandler creates a websocket handler for private messages.
func NewHandler(hub *Hub, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, allowedOrigins: allowedOrigins, logger: logger}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "bye"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	connID := uuid.NewString()
	h.hub.Register(userID, connID, ws)
	defer h.hub.Unregister(userID, connID, ws)

	ctx := r.Context()
	h.replay(ctx, ws, userID)
	h.readLoop(ctx, ws, userID)
}

// replay flushes the user's mailbox onto a freshly registered connection.
// Anything that fails to write goes back into the mailbox.
func (h *Handler) replay(ctx context.Context, c conn, userID string) {
	pending := h.hub.mailbox.Drain(userID)
	for i, p := range pending {
		data, err := encodeFrame(frame{Type: frameMessage, Text: p.Text, QueuedAt: p.QueuedAt.Unix()})
		if err == nil {
			err = c.Write(ctx, websocket.MessageText, data)
		}
		if err != nil {
			h.logger.Warn("Mailbox replay interrupted", "user_id", userID, "remaining", len(pending)-i, "error", err)
			h.hub.mailbox.Requeue(userID, pending[i:])
			return
		}
	}
	if len(pending) > 0 {
		h.logger.Info("Mailbox replayed", "user_id", userID, "count", len(pending))
	}
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, userID string) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				h.logger.Debug("WebSocket read ended", "error", err, "user_id", userID)
			}
			return
		}

		var msg frame
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == framePing {
			data, _ := encodeFrame(frame{Type: framePong})
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := ws.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				h.logger.Debug("Failed to send pong", "error", err)
			}
		}
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	h.logger.Warn("WebSocket origin rejected", "origin", origin)
	return false
}
