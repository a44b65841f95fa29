package projections

import (
	"context"
	"time"

	leadstore "outreach/internal/adapters/storage/lead"
	"outreach/internal/domain/event"
	"outreach/internal/domain/permission"
)

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	ProfileID string
	Level     permission.Level
	Now       time.Time
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	EventStore       EventStore
	AttendeeStore    AttendeeStore
	LeadSummaryStore LeadSummaryStore
}

// GetDashboardResult is the admin landing page.
type GetDashboardResult struct {
	Level          permission.Level
	AwaitingAccess bool
	Leads          *leadstore.Summary // nil when the viewer cannot see leads
	NextEvents     []EventRow
}

// dashboardEventCount is how many upcoming events the dashboard lists.
const dashboardEventCount = 5

// QueryGetDashboard builds the admin landing page for the viewer's level.
// PRE: none
// POST: Regular viewers get AwaitingAccess and nothing else; lead managers see
// counters for their own leads only; super admins see everything
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (GetDashboardResult, error) {
	res := GetDashboardResult{Level: query.Level}
	if !query.Level.CanViewLeads() {
		res.AwaitingAccess = true
		return res, nil
	}

	summary, err := deps.LeadSummaryStore.Summarize(ctx, query.Level.LeadScope(query.ProfileID))
	if err != nil {
		return GetDashboardResult{}, err
	}
	res.Leads = &summary

	if !query.Level.CanManageEvents() {
		return res, nil
	}
	events, err := deps.EventStore.List(ctx, eventListFilterUpcoming(query.Now, dashboardEventCount))
	if err != nil {
		return GetDashboardResult{}, err
	}
	res.NextEvents, err = withTotals(ctx, events, deps.AttendeeStore)
	if err != nil {
		return GetDashboardResult{}, err
	}
	return res, nil
}

func withTotals(ctx context.Context, events []event.Event, store AttendeeStore) ([]EventRow, error) {
	if len(events) == 0 {
		return []EventRow{}, nil
	}
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	totals, err := store.TotalsByEvent(ctx, ids...)
	if err != nil {
		return nil, err
	}
	rows := make([]EventRow, len(events))
	for i, ev := range events {
		t := totals[ev.ID]
		rows[i] = EventRow{Event: ev, Registrations: t.Registrations, Headcount: t.Headcount}
	}
	return rows, nil
}
