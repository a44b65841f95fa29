package attendee

import (
	"context"
	"errors"

	domain "outreach/internal/domain/attendee"
)

var ErrNotFound = errors.New("attendee not found")

// Totals summarises registrations for one event.
type Totals struct {
	Registrations int
	Headcount     int // registrations plus guests
}

// Store persists Attendee state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Attendee, error)
	// Create inserts a registration, returning domain.ErrAlreadyRegistered
	// when the email is already registered for the event.
	Create(ctx context.Context, value domain.Attendee) error
	Delete(ctx context.Context, id string) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.Attendee, error)
	TotalsByEvent(ctx context.Context, eventIDs ...string) (map[string]Totals, error)
	Count(ctx context.Context) (int, error)
}
