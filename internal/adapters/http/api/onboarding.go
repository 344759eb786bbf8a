package api

import (
	"net/http"

	"github.com/okian/grove/internal/domain/growth"
	"github.com/okian/grove/internal/domain/onboarding"
)

// OnboardingHandler serves the questionnaire and accepts its answers.
type OnboardingHandler struct {
	deps Dependencies
}

// NewOnboardingHandler creates a new onboarding handler.
func NewOnboardingHandler(deps Dependencies) *OnboardingHandler {
	return &OnboardingHandler{deps: deps}
}

type optionResponse struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type questionResponse struct {
	Category onboarding.Category `json:"category"`
	Icon     string              `json:"icon"`
	Prompt   string              `json:"prompt"`
	Options  []optionResponse    `json:"options"`
}

// completeRequest carries one option index per question, in order.
type completeRequest struct {
	Answers []int `json:"answers"`
}

type completeResponse struct {
	Score      float64      `json:"score"`
	Stage      growth.Stage `json:"stage"`
	Title      string       `json:"title"`
	Message    string       `json:"message"`
	StartingXP int          `json:"starting_xp"`
}

// HandleQuestions handles GET /onboarding/questions requests.
func (h *OnboardingHandler) HandleQuestions(w http.ResponseWriter, _ *http.Request) {
	qs := h.deps.Questions()
	out := make([]questionResponse, 0, len(qs))
	for _, q := range qs {
		opts := make([]optionResponse, 0, len(q.Options))
		for i, o := range q.Options {
			opts = append(opts, optionResponse{Index: i, Text: o.Text, Score: o.Score})
		}
		out = append(out, questionResponse{Category: q.Category, Icon: q.Icon, Prompt: q.Prompt, Options: opts})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleComplete handles POST /onboarding/complete requests.
func (h *OnboardingHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	const op = "api.complete_onboarding"
	var req completeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.CompleteOnboarding(r.Context(), req.Answers)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{
		Score:      res.Score,
		Stage:      res.Stage,
		Title:      res.Stage.Title(),
		Message:    res.Stage.Message(),
		StartingXP: res.Stage.StartingXP(),
	})
}
