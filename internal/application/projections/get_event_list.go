package projections

import (
	"context"
	"time"

	eventstore "outreach/internal/adapters/storage/event"
	"outreach/internal/application/listutil"
	"outreach/internal/domain/event"
)

// GetEventListQuery carries input for the event list projection.
type GetEventListQuery struct {
	When eventstore.When
	Now  time.Time
	Page int
	Size int
}

// GetEventListDeps holds dependencies for the event list projection.
type GetEventListDeps struct {
	EventStore    EventStore
	AttendeeStore AttendeeStore
}

// EventRow is an event with its registration totals.
type EventRow struct {
	Event         event.Event
	Registrations int
	Headcount     int
}

// GetEventListResult is one page of events.
type GetEventListResult struct {
	Events   []EventRow
	PageInfo listutil.PageInfo
}

// QueryGetEventList lists events with registration totals.
// PRE: query.Now is set when When is Upcoming or Past
// POST: Returns at most PageInfo.Size rows; PageInfo.Page is clamped to the last page
func QueryGetEventList(ctx context.Context, query GetEventListQuery, deps GetEventListDeps) (GetEventListResult, error) {
	filter := eventstore.ListFilter{When: query.When, Now: query.Now}
	total, err := deps.EventStore.Count(ctx, filter)
	if err != nil {
		return GetEventListResult{}, err
	}
	pageInfo := listutil.NewPageInfo(query.Page, query.Size, total)
	filter.Limit = pageInfo.Size
	filter.Offset = pageInfo.Offset()

	events, err := deps.EventStore.List(ctx, filter)
	if err != nil {
		return GetEventListResult{}, err
	}
	rows, err := withTotals(ctx, events, deps.AttendeeStore)
	if err != nil {
		return GetEventListResult{}, err
	}
	return GetEventListResult{Events: rows, PageInfo: pageInfo}, nil
}

// QueryUpcomingEvents returns every event that has not ended, soonest first.
func QueryUpcomingEvents(ctx context.Context, now time.Time, store EventStore) ([]event.Event, error) {
	return store.List(ctx, eventListFilterUpcoming(now, 0))
}

func eventListFilterUpcoming(now time.Time, limit int) eventstore.ListFilter {
	return eventstore.ListFilter{When: eventstore.Upcoming, Now: now, Limit: limit}
}
