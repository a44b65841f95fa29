package projections

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"outreach/internal/domain/attendee"
	"outreach/internal/domain/event"
)

// GetEventAttendeesDeps holds dependencies for the attendee projection.
type GetEventAttendeesDeps struct {
	EventStore    EventStore
	AttendeeStore AttendeeStore
}

// GetEventAttendeesResult is an event with everyone registered for it.
type GetEventAttendeesResult struct {
	Event         event.Event
	Attendees     []attendee.Attendee
	Registrations int
	Headcount     int
}

// QueryGetEventAttendees loads an event and its registrations in sign-up order.
// PRE: eventID is non-empty
// POST: Headcount == Registrations + sum of guests
func QueryGetEventAttendees(ctx context.Context, eventID string, deps GetEventAttendeesDeps) (GetEventAttendeesResult, error) {
	ev, err := deps.EventStore.GetByID(ctx, eventID)
	if err != nil {
		return GetEventAttendeesResult{}, err
	}
	attendees, err := deps.AttendeeStore.ListByEvent(ctx, eventID)
	if err != nil {
		return GetEventAttendeesResult{}, err
	}
	res := GetEventAttendeesResult{Event: ev, Attendees: attendees, Registrations: len(attendees)}
	for _, a := range attendees {
		res.Headcount += a.Headcount()
	}
	return res, nil
}

var attendeeCSVHeader = []string{"First name", "Last name", "Email", "Phone", "Guests", "Registered at"}

// WriteAttendeesCSV writes the registrations as CSV with times in loc.
// PRE: loc is non-nil
func WriteAttendeesCSV(w io.Writer, attendees []attendee.Attendee, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(attendeeCSVHeader); err != nil {
		return err
	}
	for _, a := range attendees {
		record := []string{
			csvSafe(a.FirstName),
			csvSafe(a.LastName),
			csvSafe(a.Email),
			csvSafe(a.Phone),
			strconv.Itoa(a.Guests),
			a.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvSafe neutralises values a spreadsheet would evaluate as formulas.
func csvSafe(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
