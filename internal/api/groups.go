package api

import (
	"net/http"

	"github.com/ashureev/wolfbot/internal/game"
	"github.com/ashureev/wolfbot/internal/identity"
	"github.com/ashureev/wolfbot/internal/notify"
	"github.com/go-chi/chi/v5"
)

// GroupHandler handles per-group table commands.
type GroupHandler struct {
	*Handler
}

// NewGroupHandler creates a group command handler.
func NewGroupHandler(base *Handler) *GroupHandler {
	return &GroupHandler{Handler: base}
}

// RegisterRoutes registers group routes.
func (h *GroupHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/groups/{groupID}", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Post("/session", h.CreateSession)
		r.Post("/join", h.Join)
		r.Post("/leave", h.Leave)
		r.Post("/kick", h.Kick)
		r.Post("/clear", h.Clear)
		r.Post("/start", h.Start)
		r.Post("/resend", h.Resend)
		r.Post("/redeal", h.Redeal)
		r.Post("/kill", h.Kill)
		r.Post("/stop", h.Stop)
	})
}

type seatRequest struct {
	Seat *int `json:"seat"`
}

func (s seatRequest) seat() (game.Seat, error) {
	if s.Seat == nil {
		return 0, errBadRequest
	}
	return game.Seat(*s.Seat), nil
}

type createRequest struct {
	Board string `json:"board"`
	Seat  *int   `json:"seat"`
}

// kickRequest names exactly one of a seat, the judge slot or a user.
type kickRequest struct {
	Seat   *int   `json:"seat"`
	Judge  bool   `json:"judge"`
	UserID string `json:"user_id"`
}

func (k kickRequest) target() (game.Target, error) {
	set := 0
	var t game.Target
	if k.Seat != nil {
		set++
		t = game.SeatTarget(game.Seat(*k.Seat))
	}
	if k.Judge {
		set++
		t = game.JudgeTarget()
	}
	if k.UserID != "" {
		set++
		t = game.UserTarget(k.UserID)
	}
	if set != 1 {
		return game.Target{}, errBadRequest
	}
	return t, nil
}

type forceRequest struct {
	Force bool `json:"force"`
}

type deliveryResponse struct {
	Delivered int      `json:"delivered"`
	Failed    []string `json:"failed"`
	Briefing  string   `json:"briefing"`
}

func (h *GroupHandler) ids(r *http.Request) (groupID, userID string) {
	return chi.URLParam(r, "groupID"), identity.UserIDFromContext(r.Context())
}

// briefing writes the public table text after a successful command.
func (h *GroupHandler) briefing(w http.ResponseWriter, r *http.Request, status int, extra map[string]interface{}) {
	groupID, userID := h.ids(r)
	text, err := h.svc.Briefing(r.Context(), groupID, userID, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	body := map[string]interface{}{"briefing": text}
	for k, v := range extra {
		body[k] = v
	}
	JSON(w, status, body)
}

func (h *GroupHandler) delivered(w http.ResponseWriter, r *http.Request, report notify.Report) {
	groupID, userID := h.ids(r)
	text, err := h.svc.Briefing(r.Context(), groupID, userID, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, deliveryResponse{
		Delivered: report.Sent,
		Failed:    report.FailedUsers(),
		Briefing:  text,
	})
}

// Status returns the table text. ?roles=1 shows roles to the judge.
func (h *GroupHandler) Status(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	showRoles := r.URL.Query().Get("roles") == "1"
	text, err := h.svc.Briefing(r.Context(), groupID, userID, showRoles)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"briefing": text,
		"judge":    h.svc.IsJudge(groupID, userID),
	})
}

// CreateSession sets the group's board and seats the caller.
func (h *GroupHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	var req createRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Board == "" || req.Seat == nil {
		h.fail(w, r, errBadRequest)
		return
	}
	if err := h.svc.CreateSession(r.Context(), groupID, userID, req.Board, game.Seat(*req.Seat)); err != nil {
		h.fail(w, r, err)
		return
	}
	h.briefing(w, r, http.StatusCreated, nil)
}

// Join seats the caller.
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	var req seatRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	seat, err := req.seat()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Join(r.Context(), groupID, userID, seat); err != nil {
		h.fail(w, r, err)
		return
	}
	h.briefing(w, r, http.StatusOK, nil)
}

// Leave frees the caller's slot.
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	seat, err := h.svc.Leave(r.Context(), groupID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.briefing(w, r, http.StatusOK, map[string]interface{}{"seat": seat})
}

// Kick removes another user's slot.
func (h *GroupHandler) Kick(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	var req kickRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	target, err := req.target()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	kicked, err := h.svc.Kick(r.Context(), groupID, userID, target)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.briefing(w, r, http.StatusOK, map[string]interface{}{"kicked": kicked})
}

// Clear empties the table.
func (h *GroupHandler) Clear(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	var req forceRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	removed, err := h.svc.Clear(r.Context(), groupID, userID, req.Force)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	h.briefing(w, r, http.StatusOK, map[string]interface{}{"removed": removed})
}

// Start deals roles.
func (h *GroupHandler) Start(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	report, err := h.svc.Start(r.Context(), groupID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.delivered(w, r, report)
}

// Resend repeats the role messages.
func (h *GroupHandler) Resend(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	report, err := h.svc.Resend(r.Context(), groupID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.delivered(w, r, report)
}

// Redeal reshuffles roles.
func (h *GroupHandler) Redeal(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	report, err := h.svc.Redeal(r.Context(), groupID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.delivered(w, r, report)
}

// Kill marks a seat dead.
func (h *GroupHandler) Kill(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	var req seatRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	seat, err := req.seat()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.svc.Kill(r.Context(), groupID, userID, seat)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.delivered(w, r, report)
}

// Stop ends the game and returns the reveal.
func (h *GroupHandler) Stop(w http.ResponseWriter, r *http.Request) {
	groupID, userID := h.ids(r)
	var req forceRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	reveal, err := h.svc.Stop(r.Context(), groupID, userID, req.Force)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"reveal": reveal})
}
