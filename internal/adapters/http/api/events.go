package api

import (
	"net/http"

	"github.com/okian/grove/internal/domain/progression"
)

// EventsHandler drains progression events for polling clients.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type eventsResponse struct {
	Events []progression.Event `json:"events"`
}

// HandleGetEvents handles GET /events requests. Each event is returned once.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, _ *http.Request) {
	events := h.deps.PendingEvents()
	if events == nil {
		events = []progression.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}
