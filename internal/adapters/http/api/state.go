package api

import (
	"net/http"

	"github.com/okian/grove/internal/domain/model"
	"github.com/okian/grove/internal/domain/types"
)

// StateHandler serves the dashboard snapshot and app-level transitions.
type StateHandler struct {
	deps Dependencies
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps Dependencies) *StateHandler {
	return &StateHandler{deps: deps}
}

type screenResponse struct {
	Screen types.Screen `json:"screen"`
}

type activateResponse struct {
	Reset bool `json:"reset"`
}

// HandleGetState handles GET /state requests.
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.State(r.Context())
	if err != nil {
		writeServiceError(w, "api.get_state", err)
		return
	}
	if st.Rituals == nil {
		st.Rituals = []model.Ritual{}
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleWelcome handles POST /welcome requests.
func (h *StateHandler) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.MarkWelcomeSeen(r.Context()); err != nil {
		writeServiceError(w, "api.welcome", err)
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Screen: h.deps.Screen()})
}

// HandleActivate handles POST /activate requests.
func (h *StateHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	reset, err := h.deps.Activate(r.Context())
	if err != nil {
		writeServiceError(w, "api.activate", err)
		return
	}
	writeJSON(w, http.StatusOK, activateResponse{Reset: reset})
}
