package api

import (
	"net/http"

	"github.com/ashureev/wolfbot/internal/domain"
	"github.com/ashureev/wolfbot/internal/game"
	"github.com/ashureev/wolfbot/internal/identity"
	"github.com/go-chi/chi/v5"
)

// PresetHandler serves stored boards and the role catalog.
type PresetHandler struct {
	*Handler
}

// NewPresetHandler creates a preset handler.
func NewPresetHandler(base *Handler) *PresetHandler {
	return &PresetHandler{Handler: base}
}

// RegisterRoutes registers preset routes.
func (h *PresetHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/presets", h.List)
	r.Post("/api/presets", h.Save)
	r.Get("/api/roles", h.Roles)
}

type presetView struct {
	Name        string   `json:"name"`
	Board       string   `json:"board"`
	Composition string   `json:"composition"`
	Seats       int      `json:"seats"`
	Aliases     []string `json:"aliases"`
	UpdatedAt   int64    `json:"updated_at"`
}

func (h *PresetHandler) view(p *domain.Preset) presetView {
	v := presetView{
		Name:      p.Name,
		Board:     p.Board,
		Seats:     p.Seats(),
		Aliases:   p.Aliases,
		UpdatedAt: p.UpdatedAt.Unix(),
	}
	if v.Aliases == nil {
		v.Aliases = []string{}
	}
	if b, err := h.svc.Registry().Catalog().ParseBoard(p.Board); err == nil {
		v.Composition = game.Composition(b)
	}
	return v
}

// List returns every stored preset.
func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	presets, err := h.svc.Presets(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]presetView, 0, len(presets))
	for _, p := range presets {
		out = append(out, h.view(p))
	}
	JSON(w, http.StatusOK, out)
}

type savePresetRequest struct {
	Name    string   `json:"name"`
	Board   string   `json:"board"`
	Aliases []string `json:"aliases"`
}

// Save creates or updates a preset. Moderators only.
func (h *PresetHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req savePresetRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.svc.SavePreset(r.Context(), identity.UserIDFromContext(r.Context()), req.Name, req.Board, req.Aliases)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, h.view(p))
}

type roleView struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Faction string `json:"faction"`
}

// Roles lists the role codes boards are written in.
func (h *PresetHandler) Roles(w http.ResponseWriter, r *http.Request) {
	roles := h.svc.Roles()
	out := make([]roleView, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleView{Code: string(role.Code), Name: role.Name, Faction: role.Faction.String()})
	}
	JSON(w, http.StatusOK, out)
}
