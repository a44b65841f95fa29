package event

import (
	"errors"
	"time"
)

// Max length constants.
const (
	MaxTitleLength       = 200
	MaxLocationLength    = 200
	MaxDescriptionLength = 5000
)

// Domain errors
var (
	ErrEmptyTitle          = errors.New("event title cannot be empty")
	ErrTitleTooLong        = errors.New("event title cannot exceed 200 characters")
	ErrLocationTooLong     = errors.New("event location cannot exceed 200 characters")
	ErrDescriptionTooLong  = errors.New("event description cannot exceed 5000 characters")
	ErrMissingStart        = errors.New("event start is required")
	ErrEndNotAfterStart    = errors.New("event end must be after its start")
	ErrRegistrationsClosed = errors.New("registration for this event has closed")
)

// Event is a scheduled gathering visitors can register for.
// INVARIANT: EndsAt is strictly after StartsAt. Both are stored in UTC.
type Event struct {
	ID          string
	Title       string
	Description string // markdown
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	CreatedBy   string // profile ID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the event's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(e.Location) > MaxLocationLength {
		return ErrLocationTooLong
	}
	if len(e.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if e.StartsAt.IsZero() {
		return ErrMissingStart
	}
	if !e.EndsAt.After(e.StartsAt) {
		return ErrEndNotAfterStart
	}
	return nil
}

// IsOpen reports whether registrations are still accepted at now.
// Registration closes once the event has ended.
func (e *Event) IsOpen(now time.Time) bool {
	return now.Before(e.EndsAt)
}

// IsUpcoming reports whether the event has not started yet at now.
func (e *Event) IsUpcoming(now time.Time) bool {
	return now.Before(e.StartsAt)
}

// Duration returns the scheduled length of the event.
func (e *Event) Duration() time.Duration {
	return e.EndsAt.Sub(e.StartsAt)
}
