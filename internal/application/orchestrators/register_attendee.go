package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"outreach/internal/adapters/email"
	"outreach/internal/adapters/realtime"
	"outreach/internal/domain/attendee"
	"outreach/internal/domain/event"
)

// EventReader loads a single event.
type EventReader interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// AttendeeCreator inserts registrations.
type AttendeeCreator interface {
	Create(ctx context.Context, value attendee.Attendee) error
}

// RegisterAttendeeInput carries the public registration form.
type RegisterAttendeeInput struct {
	EventID   string `validate:"required"`
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
	Email     string `validate:"required,email,max=254"`
	Phone     string `validate:"max=40"`
	Guests    int    `validate:"gte=0,lte=10"`
}

// RegisterAttendeeDeps holds dependencies for RegisterAttendee.
type RegisterAttendeeDeps struct {
	Events    EventReader
	Attendees AttendeeCreator
	Publisher realtime.Publisher
	Mailer    email.Sender
	BaseURL   string
	Location  *time.Location
	Now       func() time.Time
}

// ExecuteRegisterAttendee records a registration and sends a confirmation email.
// PRE: input.EventID names an existing event
// POST: Attendee persisted and an attendee change published; email failures are logged, not returned
// INVARIANT: one registration per email per event
func ExecuteRegisterAttendee(ctx context.Context, input RegisterAttendeeInput, deps RegisterAttendeeDeps) (attendee.Attendee, error) {
	if err := checkInput(input); err != nil {
		return attendee.Attendee{}, err
	}
	now := clock(deps.Now)

	ev, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil {
		return attendee.Attendee{}, err
	}
	if !ev.IsOpen(now) {
		return attendee.Attendee{}, event.ErrRegistrationsClosed
	}

	a := attendee.Attendee{
		ID:        uuid.New().String(),
		EventID:   ev.ID,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:     strings.TrimSpace(input.Phone),
		Guests:    input.Guests,
		CreatedAt: now,
	}
	if err := a.Validate(); err != nil {
		return attendee.Attendee{}, err
	}
	if err := deps.Attendees.Create(ctx, a); err != nil {
		return attendee.Attendee{}, err
	}
	publish(deps.Publisher, realtime.TableAttendee, realtime.OpInsert, a.ID)
	slog.Info("attendee_registered", "event_id", ev.ID, "attendee_id", a.ID, "guests", a.Guests)

	sendConfirmation(ctx, ev, a, deps)
	return a, nil
}

func sendConfirmation(ctx context.Context, ev event.Event, a attendee.Attendee, deps RegisterAttendeeDeps) {
	if deps.Mailer == nil {
		return
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	msg, err := email.Confirmation{
		To:         a.Email,
		FirstName:  a.FirstName,
		EventTitle: ev.Title,
		Location:   ev.Location,
		StartsAt:   ev.StartsAt,
		Guests:     a.Guests,
		EventURL:   fmt.Sprintf("%s/events/%s", strings.TrimRight(deps.BaseURL, "/"), ev.ID),
		Loc:        loc,
	}.Build()
	if err != nil {
		slog.Error("email_failed", "kind", email.KindRegistrationConfirmation, "error", err)
		return
	}
	if _, err := deps.Mailer.Send(ctx, msg); err != nil {
		slog.Warn("email_failed", "kind", msg.Kind, "to", a.Email, "error", err)
	}
}

func publish(p realtime.Publisher, table, op, id string) {
	if p == nil {
		return
	}
	p.Publish(realtime.Change{Table: table, Op: op, ID: id})
}
