package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Form layouts for the admin schedule inputs.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DefaultDuration is applied when an edit leaves the end at or before the start.
const DefaultDuration = time.Hour

var ErrInvalidSchedule = errors.New("date must be YYYY-MM-DD and time must be HH:MM")

// LocalSchedule is the start/end of an event as entered in the admin form,
// expressed in the organisation's local timezone.
type LocalSchedule struct {
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
}

// ParseLocal converts a local date and time into a UTC instant.
// PRE: loc is non-nil
// POST: Returns the UTC instant or ErrInvalidSchedule
func ParseLocal(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, ErrInvalidSchedule
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %s", ErrInvalidSchedule, date, clock)
	}
	return t.UTC(), nil
}

// FormatLocal renders a UTC instant as local date and time form values.
// PRE: loc is non-nil
func FormatLocal(t time.Time, loc *time.Location) (date, clock string) {
	if t.IsZero() {
		return "", ""
	}
	local := t.In(loc)
	return local.Format(DateLayout), local.Format(TimeLayout)
}

// EnsureEndAfterStart returns an end strictly after start.
// If end is zero, equal to, or before start, it becomes start + 1 hour.
// POST: result.After(start)
func EnsureEndAfterStart(start, end time.Time) time.Time {
	if end.IsZero() || !end.After(start) {
		return start.Add(DefaultDuration)
	}
	return end
}

// ToUTC resolves the local schedule into UTC start and end instants.
// A blank end time counts as a missing end. A missing or non-increasing end
// is auto-adjusted to start + 1 hour. A blank end date reuses the start date.
// PRE: loc is non-nil
// POST: end.After(start) when err is nil
func (s LocalSchedule) ToUTC(loc *time.Location) (start, end time.Time, err error) {
	start, err = ParseLocal(s.StartDate, s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if strings.TrimSpace(s.EndTime) != "" {
		endDate := s.EndDate
		if strings.TrimSpace(endDate) == "" {
			endDate = s.StartDate
		}
		end, err = ParseLocal(endDate, s.EndTime, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, EnsureEndAfterStart(start, end), nil
}

// LocalScheduleOf converts a stored event back into form values for editing.
func LocalScheduleOf(e Event, loc *time.Location) LocalSchedule {
	var s LocalSchedule
	s.StartDate, s.StartTime = FormatLocal(e.StartsAt, loc)
	s.EndDate, s.EndTime = FormatLocal(e.EndsAt, loc)
	return s
}
