// Package api provides the HTTP command surface a chat bot drives.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ashureev/wolfbot/internal/catalog"
	"github.com/ashureev/wolfbot/internal/game"
	"github.com/ashureev/wolfbot/internal/i18n"
	"github.com/ashureev/wolfbot/internal/service"
	"github.com/ashureev/wolfbot/internal/store"
	"golang.org/x/text/language"
)

// Handler provides common handler utilities.
type Handler struct {
	svc    *service.Service
	locale language.Tag
	logger *slog.Logger
}

// NewHandler creates a new Handler. locale is the fallback language for
// error messages.
func NewHandler(svc *service.Service, locale string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	tag, _ := i18n.ParseTag(locale)
	return &Handler{svc: svc, locale: tag, logger: logger}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// errorResponse is the body of every failed command.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// fail writes err as a localized error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, key := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Command failed", "path", r.URL.Path, "error", err)
	}
	tag := i18n.ResolveTag(r, h.locale)
	JSON(w, status, errorResponse{Error: key, Message: i18n.Text(tag, key)})
}

// classify maps an error onto an HTTP status and message key.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, i18n.KeyForbidden
	case errors.Is(err, game.ErrNoSession):
		return http.StatusNotFound, i18n.KeyNoSession
	case errors.Is(err, store.ErrPresetNotFound):
		return http.StatusNotFound, i18n.KeyPresetNotFound
	case errors.Is(err, errBadRequest), errors.Is(err, service.ErrInvalidPreset), errors.Is(err, service.ErrInvalidLevel):
		return http.StatusBadRequest, i18n.KeyBadRequest
	case errors.Is(err, catalog.ErrInvalidBoard):
		return http.StatusBadRequest, i18n.KeyInvalidBoard
	case errors.Is(err, game.ErrInvalidSeat):
		return http.StatusBadRequest, i18n.KeyInvalidSeat
	case errors.Is(err, game.ErrInvalidUser):
		return http.StatusBadRequest, i18n.KeyInvalidUser
	}

	for _, c := range conflicts {
		if errors.Is(err, c.err) {
			return http.StatusConflict, c.key
		}
	}
	return http.StatusInternalServerError, i18n.KeyInternal
}

var conflicts = []struct {
	err error
	key string
}{
	{game.ErrGameStarted, i18n.KeyGameStarted},
	{game.ErrGameNotStarted, i18n.KeyGameNotStarted},
	{game.ErrSessionClosed, i18n.KeySessionClosed},
	{game.ErrPlayerFull, i18n.KeyPlayerFull},
	{game.ErrPlayerInReadyPool, i18n.KeyAlreadyJoined},
	{game.ErrPlayerSeatTaken, i18n.KeySeatTaken},
	{game.ErrSeatEmpty, i18n.KeySeatEmpty},
	{game.ErrNotJoined, i18n.KeyNotJoined},
	{game.ErrPlayerNotEnough, i18n.KeyNotEnough},
	{game.ErrJudgeNotFound, i18n.KeyJudgeNotFound},
	{game.ErrPlayerAlreadyDead, i18n.KeyAlreadyDead},
	{game.ErrSeatsOccupied, i18n.KeySeatsOccupied},
	{game.ErrJoinedElsewhere, i18n.KeyJoinedElsewhere},
	{store.ErrAliasTaken, i18n.KeyAliasTaken},
}

var errBadRequest = errors.New("bad request")

// decode reads an optional JSON body into v. An empty body leaves v unchanged.
func decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
