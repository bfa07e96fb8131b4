package api

import (
	"net/http"

	"github.com/ashureev/wolfbot/internal/identity"
	"github.com/go-chi/chi/v5"
)

// OperatorHandler lets admins grant and revoke operator levels.
type OperatorHandler struct {
	*Handler
}

// NewOperatorHandler creates an operator handler.
func NewOperatorHandler(base *Handler) *OperatorHandler {
	return &OperatorHandler{Handler: base}
}

// RegisterRoutes registers operator routes.
func (h *OperatorHandler) RegisterRoutes(r chi.Router) {
	r.Put("/api/operators/{userID}", h.Grant)
}

type grantRequest struct {
	Level *int `json:"level"`
}

type operatorView struct {
	UserID string `json:"user_id"`
	Level  int    `json:"level"`
}

// Grant sets a user's operator level. 0 revokes.
func (h *OperatorHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Level == nil {
		h.fail(w, r, errBadRequest)
		return
	}
	actor := identity.UserIDFromContext(r.Context())
	op, err := h.svc.GrantOperator(r.Context(), actor, chi.URLParam(r, "userID"), *req.Level)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, operatorView{UserID: op.UserID, Level: op.Level})
}
