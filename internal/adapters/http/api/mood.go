package api

import (
	"net/http"

	"github.com/okian/grove/internal/domain/wellness"
)

// MoodHandler records mood selections.
type MoodHandler struct {
	deps Dependencies
}

// NewMoodHandler creates a new mood handler.
func NewMoodHandler(deps Dependencies) *MoodHandler {
	return &MoodHandler{deps: deps}
}

type moodRequest struct {
	Mood string `json:"mood"`
}

type moodResponse struct {
	Mood    wellness.Mood   `json:"mood"`
	Scores  wellness.Scores `json:"scores"`
	Overall float64         `json:"overall"`
}

// HandlePutMood handles PUT /mood requests.
func (h *MoodHandler) HandlePutMood(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_mood"
	var req moodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	mood, scores, err := h.deps.SetMood(r.Context(), req.Mood)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, moodResponse{Mood: mood, Scores: scores, Overall: scores.Overall()})
}
