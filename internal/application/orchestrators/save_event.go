package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"outreach/internal/adapters/realtime"
	"outreach/internal/domain/event"
	"outreach/internal/domain/permission"
)

// EventStoreForSave defines the store interface needed by SaveEvent.
type EventStoreForSave interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	Save(ctx context.Context, value event.Event) error
}

// SaveEventInput carries the admin event form. Dates and times are local.
type SaveEventInput struct {
	ID          string // empty creates a new event
	ActorID     string
	ActorLevel  permission.Level
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=5000"`
	Location    string `validate:"max=200"`
	Schedule    event.LocalSchedule
}

// SaveEventDeps holds dependencies for SaveEvent.
type SaveEventDeps struct {
	Events    EventStoreForSave
	Publisher realtime.Publisher
	Location  *time.Location
	Now       func() time.Time
}

// ExecuteSaveEvent creates or updates an event from local form values.
// PRE: actor is a super admin
// POST: Event persisted in UTC and an event change published
// INVARIANT: the stored end is strictly after the stored start; a non-increasing end becomes start + 1 hour
func ExecuteSaveEvent(ctx context.Context, input SaveEventInput, deps SaveEventDeps) (event.Event, error) {
	if !input.ActorLevel.CanManageEvents() {
		return event.Event{}, ErrForbidden
	}
	if err := checkInput(input); err != nil {
		return event.Event{}, err
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	start, end, err := input.Schedule.ToUTC(loc)
	if err != nil {
		return event.Event{}, err
	}
	now := clock(deps.Now)

	op := realtime.OpUpdate
	var ev event.Event
	if input.ID == "" {
		op = realtime.OpInsert
		ev = event.Event{ID: uuid.New().String(), CreatedBy: input.ActorID, CreatedAt: now}
	} else {
		ev, err = deps.Events.GetByID(ctx, input.ID)
		if err != nil {
			return event.Event{}, err
		}
	}
	ev.Title = strings.TrimSpace(input.Title)
	ev.Description = strings.TrimSpace(input.Description)
	ev.Location = strings.TrimSpace(input.Location)
	ev.StartsAt = start
	ev.EndsAt = end
	ev.UpdatedAt = now

	if err := ev.Validate(); err != nil {
		return event.Event{}, err
	}
	if err := deps.Events.Save(ctx, ev); err != nil {
		return event.Event{}, fmt.Errorf("save event: %w", err)
	}
	publish(deps.Publisher, realtime.TableEvent, op, ev.ID)
	slog.Info("event_saved", "event_id", ev.ID, "op", op, "starts_at", ev.StartsAt, "actor", input.ActorID)
	return ev, nil
}

// EventDeleter removes events.
type EventDeleter interface {
	Delete(ctx context.Context, id string) error
}

// DeleteEventDeps holds dependencies for DeleteEvent.
type DeleteEventDeps struct {
	Events    EventDeleter
	Publisher realtime.Publisher
}

// ExecuteDeleteEvent removes an event and, by cascade, its attendees.
// PRE: actor is a super admin
// POST: Event and its registrations are gone; an event change published
func ExecuteDeleteEvent(ctx context.Context, actorLevel permission.Level, eventID string, deps DeleteEventDeps) error {
	if !actorLevel.CanManageEvents() {
		return ErrForbidden
	}
	if err := deps.Events.Delete(ctx, eventID); err != nil {
		return err
	}
	publish(deps.Publisher, realtime.TableEvent, realtime.OpDelete, eventID)
	slog.Info("event_deleted", "event_id", eventID)
	return nil
}
