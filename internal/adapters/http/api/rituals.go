package api

import (
	"errors"
	"net/http"
	"strings"
)

// RitualsHandler toggles rituals.
type RitualsHandler struct {
	deps Dependencies
}

// NewRitualsHandler creates a new rituals handler.
func NewRitualsHandler(deps Dependencies) *RitualsHandler {
	return &RitualsHandler{deps: deps}
}

// HandleToggle handles POST /rituals/{id}/toggle requests.
func (h *RitualsHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	const op = "api.toggle_ritual"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, errors.New("missing ritual id")))
		return
	}
	ritual, err := h.deps.ToggleRitual(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ritual)
}
