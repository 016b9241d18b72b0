// Package model defines the core domain types for the event registration system.
package model

import "time"

// Event represents a scheduled occurrence with finite attendee capacity.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Datetime  time.Time `json:"datetime"`
	Location  string    `json:"location"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an attendee. Users pre-exist in the database; this service only
// references them through registrations.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Registration binds one user to one event, unique per pair.
type Registration struct {
	UserID    int64     `json:"user_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EventDetails is an event together with its registered attendees.
type EventDetails struct {
	Event
	RegisteredUsers []User `json:"registeredUsers"`
}

// EventStats summarises how full an event is.
type EventStats struct {
	TotalRegistrations  int     `json:"totalRegistrations"`
	RemainingCapacity   int     `json:"remainingCapacity"`
	CapacityUsedPercent float64 `json:"capacityUsedPercent"`
}

// CreateEventRequest is the payload for creating a new event. Datetime stays
// a string here; the service parses it and checks it is in the future.
type CreateEventRequest struct {
	Title    string `json:"title" validate:"required"`
	Datetime string `json:"datetime" validate:"required"`
	Location string `json:"location" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,min=1,max=1000"`
}

// RegisterRequest is the payload for registering a user for an event.
type RegisterRequest struct {
	UserID int64 `json:"userId" validate:"required,min=1"`
}

// CreateEventResponse carries the generated identifier of a new event.
type CreateEventResponse struct {
	EventID string `json:"eventId"`
}

// MessageResponse is a simple confirmation envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
