// Package repository implements all database queries for the event
// registration system. It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KaranNegi0102/EventManagementAPI/internal/model"
)

// ErrNotFound is returned when a requested event does not exist.
var ErrNotFound = errors.New("event not found")

// ErrEventFull is returned when an event has no remaining capacity.
var ErrEventFull = errors.New("event is already full")

// ErrAlreadyRegistered is returned when the same user registers twice.
var ErrAlreadyRegistered = errors.New("user already registered")

// ErrNotRegistered is returned when cancelling a registration that does not exist.
var ErrNotRegistered = errors.New("user not registered")

// ErrEventInPast is returned when registering for an event that has already started.
var ErrEventInPast = errors.New("cannot register for past events")

// uniqueViolation is the PostgreSQL error code raised when an insert breaks
// a unique constraint.
const uniqueViolation = "23505"

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, title string, datetime time.Time, location string, capacity int) (*model.Event, error) {
	event := &model.Event{
		ID:        uuid.New().String(),
		Title:     title,
		Datetime:  datetime,
		Location:  location,
		Capacity:  capacity,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, datetime, location, capacity, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.Title, event.Datetime, event.Location, event.Capacity, event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT id, title, datetime, location, capacity, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.Datetime, &e.Location, &e.Capacity, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// ListUpcoming returns all events strictly after now, ordered by datetime
// ascending then location ascending.
func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, datetime, location, capacity, created_at
		 FROM events
		 WHERE datetime > $1
		 ORDER BY datetime ASC, location ASC`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Datetime, &e.Location, &e.Capacity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListRegisteredUsers returns the users registered for an event, joined
// through the registrations table, in storage order.
func (r *EventRepository) ListRegisteredUsers(ctx context.Context, eventID string) ([]model.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT users.id, users.name, users.email
		 FROM registrations
		 JOIN users ON registrations.user_id = users.id
		 WHERE registrations.event_id = $1`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registered users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountRegistrations returns the number of registrations for an event.
func (r *EventRepository) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Register performs a concurrency-safe registration inside a single
// transaction. SELECT ... FOR UPDATE takes a row-level lock on the event, so
// concurrent attempts are serialised and the capacity check cannot race with
// the insert: with a naive read-then-write sequence two transactions can both
// observe free capacity and both insert, overbooking the event.
//
// The UNIQUE(user_id, event_id) constraint backs up the duplicate check, so
// a duplicate insert fails deterministically even outside this code path.
func (r *RegistrationRepository) Register(ctx context.Context, eventID string, userID int64, now time.Time) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row for the duration of the transaction.
	var datetime time.Time
	var capacity int
	err = tx.QueryRow(ctx,
		`SELECT datetime, capacity FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&datetime, &capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	// Registration at exactly the event start time is still allowed; only
	// strictly-past events are rejected.
	if datetime.Before(now) {
		return ErrEventInPast
	}

	var registered bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID,
	).Scan(&registered)
	if err != nil {
		return fmt.Errorf("check existing registration: %w", err)
	}
	if registered {
		return ErrAlreadyRegistered
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("count registrations: %w", err)
	}
	if count >= capacity {
		return ErrEventFull
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (user_id, event_id, created_at) VALUES ($1, $2, $3)`,
		userID, eventID, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Cancel deletes a registration. The single DELETE is atomic, so no
// select-then-delete window exists; zero affected rows means the user was
// never registered.
func (r *RegistrationRepository) Cancel(ctx context.Context, eventID string, userID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM registrations WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotRegistered
	}
	return nil
}
