// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/KaranNegi0102/EventManagementAPI/internal/model"
	"github.com/KaranNegi0102/EventManagementAPI/internal/repository"
	"github.com/KaranNegi0102/EventManagementAPI/internal/service"
)

// EventService is the service surface the handlers depend on.
type EventService interface {
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	GetEventDetails(ctx context.Context, eventID string) (*model.EventDetails, error)
	RegisterForEvent(ctx context.Context, eventID string, req model.RegisterRequest) error
	CancelRegistration(ctx context.Context, eventID string, userID int64) error
	ListUpcomingEvents(ctx context.Context) ([]model.Event, error)
	GetEventStats(ctx context.Context, eventID string) (*model.EventStats, error)
}

// EventHandler holds all HTTP handlers for the event registration API.
type EventHandler struct {
	svc    EventService
	logger zerolog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService, logger zerolog.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps domain errors to HTTP status codes. Unknown errors
// become a 500 with a fixed per-operation message so no internal detail
// reaches the client.
func (h *EventHandler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Event not found")
	case errors.Is(err, repository.ErrNotRegistered):
		writeError(w, http.StatusNotFound, "User not registered")
	case errors.Is(err, repository.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "User already registered")
	case errors.Is(err, repository.ErrEventInPast):
		writeError(w, http.StatusBadRequest, "Cannot register for past events")
	case errors.Is(err, repository.ErrEventFull):
		writeError(w, http.StatusBadRequest, "Event is already full")
	default:
		h.logger.Error().Err(err).Msg(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, model.CreateEventResponse{EventID: event.ID})
}

// ListUpcomingEvents handles GET /events/upcoming
func (h *EventHandler) ListUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListUpcomingEvents(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch upcoming events")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	details, err := h.svc.GetEventDetails(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch event details")
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// Register handles POST /events/{id}/register
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.RegisterForEvent(r.Context(), id, req); err != nil {
		h.writeServiceError(w, err, "Registration failed")
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "User registered successfully"})
}

// CancelRegistration handles DELETE /events/{id}/register/{userId}
func (h *EventHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "userId is invalid")
		return
	}

	if err := h.svc.CancelRegistration(r.Context(), id, userID); err != nil {
		h.writeServiceError(w, err, "Cancellation failed")
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Registration cancelled"})
}

// GetEventStats handles GET /events/{id}/stats
func (h *EventHandler) GetEventStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	stats, err := h.svc.GetEventStats(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch event stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
