package projections

import (
	"context"
	"time"

	"outreach/internal/domain/event"
)

// GetPublicEventResult is what the public event page shows.
type GetPublicEventResult struct {
	Event     event.Event
	Open      bool
	Headcount int
}

// QueryGetPublicEvent loads an event for the public registration page.
// POST: Open reports whether registration is still accepted at now
func QueryGetPublicEvent(ctx context.Context, eventID string, now time.Time, deps GetEventAttendeesDeps) (GetPublicEventResult, error) {
	ev, err := deps.EventStore.GetByID(ctx, eventID)
	if err != nil {
		return GetPublicEventResult{}, err
	}
	totals, err := deps.AttendeeStore.TotalsByEvent(ctx, ev.ID)
	if err != nil {
		return GetPublicEventResult{}, err
	}
	return GetPublicEventResult{
		Event:     ev,
		Open:      ev.IsOpen(now),
		Headcount: totals[ev.ID].Headcount,
	}, nil
}
