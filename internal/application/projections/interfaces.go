package projections

import (
	"context"

	attendeestore "outreach/internal/adapters/storage/attendee"
	eventstore "outreach/internal/adapters/storage/event"
	leadstore "outreach/internal/adapters/storage/lead"
	profilestore "outreach/internal/adapters/storage/profile"
	"outreach/internal/domain/attendee"
	"outreach/internal/domain/event"
	"outreach/internal/domain/permission"
	"outreach/internal/domain/profile"
)

// EventStore interface for event queries.
type EventStore interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	List(ctx context.Context, filter eventstore.ListFilter) ([]event.Event, error)
	Count(ctx context.Context, filter eventstore.ListFilter) (int, error)
}

// AttendeeStore interface for registration queries.
type AttendeeStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]attendee.Attendee, error)
	TotalsByEvent(ctx context.Context, eventIDs ...string) (map[string]attendeestore.Totals, error)
}

// ProfileStore interface for profile queries.
type ProfileStore interface {
	List(ctx context.Context, filter profilestore.ListFilter) ([]profile.Profile, error)
	Count(ctx context.Context, filter profilestore.ListFilter) (int, error)
}

// PermissionStore interface for grant queries.
type PermissionStore interface {
	List(ctx context.Context, levels ...permission.Level) ([]permission.Grant, error)
}

// LeadSummaryStore interface for pipeline counters.
type LeadSummaryStore interface {
	Summarize(ctx context.Context, assignedUserID *string) (leadstore.Summary, error)
}
