package attendee

import (
	"errors"
	"strings"
	"time"
)

// Max length constants.
const (
	MaxNameLength  = 100
	MaxEmailLength = 254
	MaxPhoneLength = 40
	MaxGuests      = 10
)

// Domain errors
var (
	ErrMissingEvent      = errors.New("attendee must reference an event")
	ErrEmptyFirstName    = errors.New("first name cannot be empty")
	ErrEmptyLastName     = errors.New("last name cannot be empty")
	ErrNameTooLong       = errors.New("names cannot exceed 100 characters")
	ErrInvalidEmail      = errors.New("a valid email is required")
	ErrPhoneTooLong      = errors.New("phone cannot exceed 40 characters")
	ErrInvalidGuests     = errors.New("guests must be between 0 and 10")
	ErrAlreadyRegistered = errors.New("this email is already registered for the event")
)

// Attendee is one registration for an event.
type Attendee struct {
	ID        string
	EventID   string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Guests    int
	CreatedAt time.Time
}

// Validate checks the attendee's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (a *Attendee) Validate() error {
	if a.EventID == "" {
		return ErrMissingEvent
	}
	if strings.TrimSpace(a.FirstName) == "" {
		return ErrEmptyFirstName
	}
	if strings.TrimSpace(a.LastName) == "" {
		return ErrEmptyLastName
	}
	if len(a.FirstName) > MaxNameLength || len(a.LastName) > MaxNameLength {
		return ErrNameTooLong
	}
	if a.Email == "" || len(a.Email) > MaxEmailLength || !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if len(a.Phone) > MaxPhoneLength {
		return ErrPhoneTooLong
	}
	if a.Guests < 0 || a.Guests > MaxGuests {
		return ErrInvalidGuests
	}
	return nil
}

// FullName joins first and last name.
func (a *Attendee) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Headcount is the attendee plus any guests they bring.
func (a *Attendee) Headcount() int {
	return 1 + a.Guests
}
