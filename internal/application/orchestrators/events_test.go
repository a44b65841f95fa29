package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"outreach/internal/adapters/realtime"
	eventstore "outreach/internal/adapters/storage/event"
	"outreach/internal/domain/attendee"
	"outreach/internal/domain/event"
	"outreach/internal/domain/permission"
)

func saveEventDeps(e *env, loc *time.Location) SaveEventDeps {
	return SaveEventDeps{Events: e.events, Publisher: e.pub, Location: loc, Now: nowFn}
}

func TestExecuteSaveEvent_ConvertsLocalToUTC(t *testing.T) {
	e := newEnv(t)
	loc := time.FixedZone("NZST", 12*3600)

	ev, err := ExecuteSaveEvent(context.Background(), SaveEventInput{
		ActorID:    "admin",
		ActorLevel: permission.SuperAdmin,
		Title:      "  Friday Night Worship ",
		Location:   "Main hall",
		Schedule:   event.LocalSchedule{StartDate: "2026-06-05", StartTime: "19:30", EndDate: "2026-06-05", EndTime: "21:00"},
	}, saveEventDeps(e, loc))
	if err != nil {
		t.Fatalf("ExecuteSaveEvent() error = %v", err)
	}
	if ev.Title != "Friday Night Worship" {
		t.Errorf("title = %q", ev.Title)
	}
	want := time.Date(2026, 6, 5, 7, 30, 0, 0, time.UTC)
	stored, err := e.events.GetByID(context.Background(), ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.StartsAt.Equal(want) || stored.EndsAt.Sub(stored.StartsAt) != 90*time.Minute {
		t.Errorf("stored %v - %v, want start %v lasting 90m", stored.StartsAt, stored.EndsAt, want)
	}
	if back := event.LocalScheduleOf(stored, loc); back.StartTime != "19:30" || back.EndTime != "21:00" {
		t.Errorf("local round trip = %+v", back)
	}
	if got := e.pub.all(); len(got) != 1 || got[0] != (realtime.Change{Table: realtime.TableEvent, Op: realtime.OpInsert, ID: ev.ID}) {
		t.Errorf("published = %+v", got)
	}
}

func TestExecuteSaveEvent_EditKeepsEndAfterStart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	deps := saveEventDeps(e, time.UTC)
	input := SaveEventInput{
		ActorID:    "admin",
		ActorLevel: permission.SuperAdmin,
		Title:      "Community Dinner",
		Schedule:   event.LocalSchedule{StartDate: "2026-04-10", StartTime: "18:00", EndDate: "2026-04-10", EndTime: "20:00"},
	}
	ev, err := ExecuteSaveEvent(ctx, input, deps)
	if err != nil {
		t.Fatal(err)
	}

	// Move the start past the existing end.
	input.ID = ev.ID
	input.Schedule.StartTime = "22:00"
	edited, err := ExecuteSaveEvent(ctx, input, deps)
	if err != nil {
		t.Fatal(err)
	}
	if !edited.EndsAt.After(edited.StartsAt) || edited.EndsAt.Sub(edited.StartsAt) != time.Hour {
		t.Errorf("end = %v, want start+1h (%v)", edited.EndsAt, edited.StartsAt.Add(time.Hour))
	}
	if edited.CreatedBy != "admin" || !edited.CreatedAt.Equal(testNow) {
		t.Errorf("creation fields changed: %+v", edited)
	}
	if n, _ := e.events.Count(ctx, eventstore.ListFilter{}); n != 1 {
		t.Errorf("event count = %d, want 1", n)
	}
}

func TestExecuteSaveEvent_Rejects(t *testing.T) {
	e := newEnv(t)
	deps := saveEventDeps(e, time.UTC)
	sched := event.LocalSchedule{StartDate: "2026-04-10", StartTime: "18:00"}

	_, err := ExecuteSaveEvent(context.Background(), SaveEventInput{ActorLevel: permission.LeadManager, Title: "X", Schedule: sched}, deps)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("lead manager error = %v", err)
	}
	_, err = ExecuteSaveEvent(context.Background(), SaveEventInput{ActorLevel: permission.SuperAdmin, Schedule: sched}, deps)
	var ie *InputError
	if !errors.As(err, &ie) || ie.Field != "Title" {
		t.Errorf("missing title error = %v", err)
	}
	_, err = ExecuteSaveEvent(context.Background(), SaveEventInput{ActorLevel: permission.SuperAdmin, Title: "X", Schedule: event.LocalSchedule{StartDate: "10/04/2026", StartTime: "6pm"}}, deps)
	if !errors.Is(err, event.ErrInvalidSchedule) {
		t.Errorf("bad schedule error = %v", err)
	}
}

func seedEvent(t *testing.T, e *env, start time.Time) event.Event {
	t.Helper()
	ev := event.Event{ID: "ev-" + start.Format("0102150405"), Title: "Gathering", StartsAt: start, EndsAt: start.Add(2 * time.Hour), CreatedAt: testNow}
	if err := e.events.Save(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestExecuteRegisterAttendee(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev := seedEvent(t, e, testNow.Add(48*time.Hour))
	deps := RegisterAttendeeDeps{
		Events: e.events, Attendees: e.attendees, Publisher: e.pub, Mailer: e.mail,
		BaseURL: "https://example.org", Location: time.UTC, Now: nowFn,
	}
	input := RegisterAttendeeInput{EventID: ev.ID, FirstName: "Ana", LastName: "Smith", Email: "Ana@Example.org", Guests: 2}

	a, err := ExecuteRegisterAttendee(ctx, input, deps)
	if err != nil {
		t.Fatalf("register error = %v", err)
	}
	if a.Email != "ana@example.org" || a.Headcount() != 3 {
		t.Errorf("attendee = %+v", a)
	}
	sent := e.mail.Sent()
	if len(sent) != 1 || sent[0].To[0] != "ana@example.org" || !strings.Contains(sent[0].Text, "https://example.org/events/"+ev.ID) {
		t.Errorf("confirmation = %+v", sent)
	}

	if _, err := ExecuteRegisterAttendee(ctx, input, deps); !errors.Is(err, attendee.ErrAlreadyRegistered) {
		t.Errorf("duplicate error = %v, want ErrAlreadyRegistered", err)
	}

	input.Guests = 11
	input.Email = "other@example.org"
	var ie *InputError
	if _, err := ExecuteRegisterAttendee(ctx, input, deps); !errors.As(err, &ie) || ie.Field != "Guests" {
		t.Errorf("guests error = %v", err)
	}
}

func TestExecuteRegisterAttendee_ClosedAndMailFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	past := seedEvent(t, e, testNow.Add(-72*time.Hour))
	open := seedEvent(t, e, testNow.Add(time.Hour))
	e.mail.Err = errors.New("smtp down")
	deps := RegisterAttendeeDeps{Events: e.events, Attendees: e.attendees, Mailer: e.mail, Now: nowFn}

	_, err := ExecuteRegisterAttendee(ctx, RegisterAttendeeInput{EventID: past.ID, FirstName: "A", LastName: "B", Email: "a@b.org"}, deps)
	if !errors.Is(err, event.ErrRegistrationsClosed) {
		t.Errorf("closed event error = %v", err)
	}
	if _, err := ExecuteRegisterAttendee(ctx, RegisterAttendeeInput{EventID: open.ID, FirstName: "A", LastName: "B", Email: "a@b.org"}, deps); err != nil {
		t.Errorf("mail failure should not fail registration: %v", err)
	}
}

func TestExecuteDeleteEvent_CascadesAttendees(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev := seedEvent(t, e, testNow.Add(24*time.Hour))
	if err := e.attendees.Create(ctx, attendee.Attendee{ID: "a1", EventID: ev.ID, FirstName: "A", LastName: "B", Email: "a@b.org", CreatedAt: testNow}); err != nil {
		t.Fatal(err)
	}
	deps := DeleteEventDeps{Events: e.events, Publisher: e.pub}

	if err := ExecuteDeleteEvent(ctx, permission.LeadManager, ev.ID, deps); !errors.Is(err, ErrForbidden) {
		t.Errorf("lead manager error = %v", err)
	}
	if err := ExecuteDeleteEvent(ctx, permission.SuperAdmin, ev.ID, deps); err != nil {
		t.Fatal(err)
	}
	if _, err := e.attendees.GetByID(ctx, "a1"); err == nil {
		t.Error("attendee should be deleted with its event")
	}
	if err := ExecuteDeleteEvent(ctx, permission.SuperAdmin, ev.ID, deps); !errors.Is(err, eventstore.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}
