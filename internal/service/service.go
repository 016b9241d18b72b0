// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/KaranNegi0102/EventManagementAPI/internal/model"
)

// EventStore is the subset of event persistence the service depends on.
type EventStore interface {
	Create(ctx context.Context, title string, datetime time.Time, location string, capacity int) (*model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]model.Event, error)
	ListRegisteredUsers(ctx context.Context, eventID string) ([]model.User, error)
	CountRegistrations(ctx context.Context, eventID string) (int, error)
}

// RegistrationStore is the subset of registration persistence the service
// depends on.
type RegistrationStore interface {
	Register(ctx context.Context, eventID string, userID int64, now time.Time) error
	Cancel(ctx context.Context, eventID string, userID int64) error
}

// datetimeLayouts are the accepted event datetime formats, tried in order.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// EventService orchestrates event-related business operations.
type EventService struct {
	events        EventStore
	registrations RegistrationStore
	validate      *validator.Validate
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, registrations RegistrationStore) *EventService {
	return &EventService{
		events:        events,
		registrations: registrations,
		validate:      validator.New(),
	}
}

// CreateEvent validates the request, parses the datetime, and delegates to
// the repository. The datetime must be strictly in the future.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)

	if err := s.checkStruct(req); err != nil {
		return nil, err
	}

	datetime, err := parseDatetime(req.Datetime)
	if err != nil {
		return nil, NewValidationError("datetime must be a valid timestamp like YYYY-MM-DDTHH:MM:SS")
	}
	if !datetime.After(time.Now()) {
		return nil, NewValidationError("datetime must be in the future")
	}

	event, err := s.events.Create(ctx, req.Title, datetime, req.Location, req.Capacity)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// GetEventDetails returns an event together with all registered users.
func (s *EventService) GetEventDetails(ctx context.Context, eventID string) (*model.EventDetails, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	users, err := s.events.ListRegisteredUsers(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event details: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}

	return &model.EventDetails{Event: *event, RegisteredUsers: users}, nil
}

// RegisterForEvent validates the request and delegates the concurrency-safe
// registration to the repository layer.
func (s *EventService) RegisterForEvent(ctx context.Context, eventID string, req model.RegisterRequest) error {
	if err := s.checkStruct(req); err != nil {
		return err
	}
	return s.registrations.Register(ctx, eventID, req.UserID, time.Now().UTC())
}

// CancelRegistration removes a user's registration for an event.
func (s *EventService) CancelRegistration(ctx context.Context, eventID string, userID int64) error {
	if userID < 1 {
		return NewValidationError("userId is invalid")
	}
	return s.registrations.Cancel(ctx, eventID, userID)
}

// ListUpcomingEvents returns all events strictly after the current time,
// ordered by datetime then location.
func (s *EventService) ListUpcomingEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.ListUpcoming(ctx, time.Now().UTC())
}

// GetEventStats returns registration totals for an event.
func (s *EventService) GetEventStats(ctx context.Context, eventID string) (*model.EventStats, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	total, err := s.events.CountRegistrations(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event stats: %w", err)
	}

	percent := math.Round(float64(total)/float64(event.Capacity)*100*100) / 100

	return &model.EventStats{
		TotalRegistrations:  total,
		RemainingCapacity:   event.Capacity - total,
		CapacityUsedPercent: percent,
	}, nil
}

// checkStruct runs the validator over a request and converts any failures
// into a ValidationError with one message per offending field.
func (s *EventService) checkStruct(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("invalid request")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return NewValidationError(msgs...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Title":
		return "title is required"
	case "Datetime":
		return "datetime is required"
	case "Location":
		return "location is required"
	case "Capacity":
		return "capacity must be between 1 and 1000"
	case "UserID":
		return "userId is invalid"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func parseDatetime(raw string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable datetime %q", raw)
}
