package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaranNegi0102/EventManagementAPI/internal/model"
	"github.com/KaranNegi0102/EventManagementAPI/internal/repository"
	"github.com/KaranNegi0102/EventManagementAPI/internal/service"
)

// --- Mock EventService ---

type mockEventService struct {
	createFn   func(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	detailsFn  func(ctx context.Context, eventID string) (*model.EventDetails, error)
	registerFn func(ctx context.Context, eventID string, req model.RegisterRequest) error
	cancelFn   func(ctx context.Context, eventID string, userID int64) error
	upcomingFn func(ctx context.Context) ([]model.Event, error)
	statsFn    func(ctx context.Context, eventID string) (*model.EventStats, error)
}

func (m *mockEventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	return m.createFn(ctx, req)
}
func (m *mockEventService) GetEventDetails(ctx context.Context, eventID string) (*model.EventDetails, error) {
	return m.detailsFn(ctx, eventID)
}
func (m *mockEventService) RegisterForEvent(ctx context.Context, eventID string, req model.RegisterRequest) error {
	return m.registerFn(ctx, eventID, req)
}
func (m *mockEventService) CancelRegistration(ctx context.Context, eventID string, userID int64) error {
	return m.cancelFn(ctx, eventID, userID)
}
func (m *mockEventService) ListUpcomingEvents(ctx context.Context) ([]model.Event, error) {
	return m.upcomingFn(ctx)
}
func (m *mockEventService) GetEventStats(ctx context.Context, eventID string) (*model.EventStats, error) {
	return m.statsFn(ctx, eventID)
}

func newTestRouter(svc EventService) http.Handler {
	h := NewEventHandler(svc, zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/upcoming", h.ListUpcomingEvents)
		r.Get("/{id}", h.GetEvent)
		r.Post("/{id}/register", h.Register)
		r.Delete("/{id}/register/{userId}", h.CancelRegistration)
		r.Get("/{id}/stats", h.GetEventStats)
	})
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

// --- POST /events ---

func TestCreateEvent_Created(t *testing.T) {
	svc := &mockEventService{
		createFn: func(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
			return &model.Event{ID: "11111111-2222-3333-4444-555555555555", Title: req.Title}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/events",
		`{"title":"Launch","datetime":"2030-06-01T10:00:00Z","location":"HQ","capacity":2}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp model.CreateEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", resp.EventID)
}

func TestCreateEvent_ValidationError(t *testing.T) {
	svc := &mockEventService{
		createFn: func(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
			return nil, service.NewValidationError("capacity must be between 1 and 1000")
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/events",
		`{"title":"Launch","datetime":"2030-06-01T10:00:00Z","location":"HQ","capacity":5000}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "capacity must be between 1 and 1000", errorBody(t, rec))
}

func TestCreateEvent_MalformedBody(t *testing.T) {
	router := newTestRouter(&mockEventService{})

	rec := doRequest(t, router, http.MethodPost, "/events", `{"title":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "invalid request body")
}

func TestCreateEvent_StorageError(t *testing.T) {
	svc := &mockEventService{
		createFn: func(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
			return nil, context.DeadlineExceeded
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/events",
		`{"title":"Launch","datetime":"2030-06-01T10:00:00Z","location":"HQ","capacity":2}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Generic message only, no internal detail.
	assert.Equal(t, "Failed to create event", errorBody(t, rec))
}

// --- GET /events/{id} ---

func TestGetEvent_OK(t *testing.T) {
	svc := &mockEventService{
		detailsFn: func(ctx context.Context, eventID string) (*model.EventDetails, error) {
			return &model.EventDetails{
				Event:           model.Event{ID: eventID, Title: "Launch", Capacity: 2},
				RegisteredUsers: []model.User{{ID: 1, Name: "Asha", Email: "asha@example.com"}},
			}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/events/abc", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID              string       `json:"id"`
		Title           string       `json:"title"`
		RegisteredUsers []model.User `json:"registeredUsers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.ID)
	assert.Equal(t, "Launch", resp.Title)
	require.Len(t, resp.RegisteredUsers, 1)
}

func TestGetEvent_NotFound(t *testing.T) {
	svc := &mockEventService{
		detailsFn: func(ctx context.Context, eventID string) (*model.EventDetails, error) {
			return nil, repository.ErrNotFound
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/events/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Event not found", errorBody(t, rec))
}

// --- POST /events/{id}/register ---

func TestRegister_OK(t *testing.T) {
	svc := &mockEventService{
		registerFn: func(ctx context.Context, eventID string, req model.RegisterRequest) error {
			assert.Equal(t, "abc", eventID)
			assert.Equal(t, int64(7), req.UserID)
			return nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/events/abc/register", `{"userId":7}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp model.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "User registered successfully", resp.Message)
}

func TestRegister_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"event missing", repository.ErrNotFound, http.StatusNotFound, "Event not found"},
		{"duplicate", repository.ErrAlreadyRegistered, http.StatusConflict, "User already registered"},
		{"past event", repository.ErrEventInPast, http.StatusBadRequest, "Cannot register for past events"},
		{"full", repository.ErrEventFull, http.StatusBadRequest, "Event is already full"},
		{"validation", service.NewValidationError("userId is invalid"), http.StatusBadRequest, "userId is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEventService{
				registerFn: func(ctx context.Context, eventID string, req model.RegisterRequest) error {
					return tt.err
				},
			}
			router := newTestRouter(svc)

			rec := doRequest(t, router, http.MethodPost, "/events/abc/register", `{"userId":7}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, errorBody(t, rec))
		})
	}
}

func TestRegister_StorageError(t *testing.T) {
	svc := &mockEventService{
		registerFn: func(ctx context.Context, eventID string, req model.RegisterRequest) error {
			return context.DeadlineExceeded
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/events/abc/register", `{"userId":7}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Registration failed", errorBody(t, rec))
}

// --- DELETE /events/{id}/register/{userId} ---

func TestCancel_OK(t *testing.T) {
	svc := &mockEventService{
		cancelFn: func(ctx context.Context, eventID string, userID int64) error {
			assert.Equal(t, "abc", eventID)
			assert.Equal(t, int64(7), userID)
			return nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodDelete, "/events/abc/register/7", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp model.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Registration cancelled", resp.Message)
}

func TestCancel_NotRegistered(t *testing.T) {
	svc := &mockEventService{
		cancelFn: func(ctx context.Context, eventID string, userID int64) error {
			return repository.ErrNotRegistered
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodDelete, "/events/abc/register/7", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not registered", errorBody(t, rec))
}

func TestCancel_BadUserID(t *testing.T) {
	router := newTestRouter(&mockEventService{})

	rec := doRequest(t, router, http.MethodDelete, "/events/abc/register/seven", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "userId is invalid", errorBody(t, rec))
}

// --- GET /events/upcoming ---

func TestListUpcoming_OK(t *testing.T) {
	svc := &mockEventService{
		upcomingFn: func(ctx context.Context) ([]model.Event, error) {
			return []model.Event{{ID: "a", Title: "First"}, {ID: "b", Title: "Second"}}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/events/upcoming", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var events []model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "First", events[0].Title)
}

func TestListUpcoming_EmptyIsArray(t *testing.T) {
	svc := &mockEventService{
		upcomingFn: func(ctx context.Context) ([]model.Event, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/events/upcoming", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

// --- GET /events/{id}/stats ---

func TestStats_OK(t *testing.T) {
	svc := &mockEventService{
		statsFn: func(ctx context.Context, eventID string) (*model.EventStats, error) {
			return &model.EventStats{TotalRegistrations: 3, RemainingCapacity: 7, CapacityUsedPercent: 30}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/events/abc/stats", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["totalRegistrations"])
	assert.Equal(t, float64(7), resp["remainingCapacity"])
	assert.Equal(t, float64(30), resp["capacityUsedPercent"])
}

func TestStats_NotFound(t *testing.T) {
	svc := &mockEventService{
		statsFn: func(ctx context.Context, eventID string) (*model.EventStats, error) {
			return nil, repository.ErrNotFound
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/events/missing/stats", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- GET /health ---

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&mockEventService{})

	rec := doRequest(t, router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
