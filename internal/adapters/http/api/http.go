// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/grove/internal/app"
	"github.com/okian/grove/internal/domain/model"
	"github.com/okian/grove/internal/domain/onboarding"
	"github.com/okian/grove/internal/domain/progression"
	"github.com/okian/grove/internal/domain/types"
	"github.com/okian/grove/internal/domain/wellness"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	State(ctx context.Context) (types.Snapshot, error)
	Screen() types.Screen
	MarkWelcomeSeen(ctx context.Context) error

	Questions() []onboarding.Question
	CompleteOnboarding(ctx context.Context, answers []int) (onboarding.Result, error)

	Activate(ctx context.Context) (bool, error)
	ToggleRitual(ctx context.Context, id string) (model.Ritual, error)
	SetMood(ctx context.Context, mood string) (wellness.Mood, wellness.Scores, error)

	PendingEvents() []progression.Event
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	stateHandler      *StateHandler
	onboardingHandler *OnboardingHandler
	ritualsHandler    *RitualsHandler
	moodHandler       *MoodHandler
	eventsHandler     *EventsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		stateHandler:      NewStateHandler(deps),
		onboardingHandler: NewOnboardingHandler(deps),
		ritualsHandler:    NewRitualsHandler(deps),
		moodHandler:       NewMoodHandler(deps),
		eventsHandler:     NewEventsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /state", MetricsMiddleware(s.stateHandler.HandleGetState, "state"))
	mux.HandleFunc("POST /welcome", MetricsMiddleware(s.stateHandler.HandleWelcome, "welcome"))
	mux.HandleFunc("POST /activate", MetricsMiddleware(s.stateHandler.HandleActivate, "activate"))
	mux.HandleFunc("GET /onboarding/questions", MetricsMiddleware(s.onboardingHandler.HandleQuestions, "onboarding_questions"))
	mux.HandleFunc("POST /onboarding/complete", MetricsMiddleware(s.onboardingHandler.HandleComplete, "onboarding_complete"))
	mux.HandleFunc("POST /rituals/{id}/toggle", MetricsMiddleware(s.ritualsHandler.HandleToggle, "ritual_toggle"))
	mux.HandleFunc("PUT /mood", MetricsMiddleware(s.moodHandler.HandlePutMood, "mood"))
	mux.HandleFunc("GET /events", MetricsMiddleware(s.eventsHandler.HandleGetEvents, "events"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service and domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, progression.ErrRitualNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrOnboardingCompleted):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
