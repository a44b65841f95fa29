package event

import (
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

// TestEvent_Validate tests Event validation rules.
func TestEvent_Validate(t *testing.T) {
	start := time.Date(2026, 6, 5, 18, 0, 0, 0, time.UTC)
	valid := Event{
		ID:        "e1",
		Title:     "Friday Night Worship",
		Location:  "Main hall",
		StartsAt:  start,
		EndsAt:    start.Add(2 * time.Hour),
		CreatedBy: "p1",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid event, got: %v", err)
	}

	tests := []struct {
		name    string
		modify  func(e *Event)
		wantErr error
	}{
		{"empty title", func(e *Event) { e.Title = "" }, ErrEmptyTitle},
		{"title too long", func(e *Event) { e.Title = strings.Repeat("t", MaxTitleLength+1) }, ErrTitleTooLong},
		{"location too long", func(e *Event) { e.Location = strings.Repeat("l", MaxLocationLength+1) }, ErrLocationTooLong},
		{"description too long", func(e *Event) { e.Description = strings.Repeat("d", MaxDescriptionLength+1) }, ErrDescriptionTooLong},
		{"missing start", func(e *Event) { e.StartsAt = time.Time{} }, ErrMissingStart},
		{"end equals start", func(e *Event) { e.EndsAt = e.StartsAt }, ErrEndNotAfterStart},
		{"end before start", func(e *Event) { e.EndsAt = e.StartsAt.Add(-time.Minute) }, ErrEndNotAfterStart},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.modify(&e)
			if err := e.Validate(); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// TestEvent_IsOpen tests the registration window.
func TestEvent_IsOpen(t *testing.T) {
	start := time.Date(2026, 6, 5, 18, 0, 0, 0, time.UTC)
	e := Event{StartsAt: start, EndsAt: start.Add(time.Hour)}

	if !e.IsOpen(start.Add(-24 * time.Hour)) {
		t.Error("event should be open before it starts")
	}
	if !e.IsOpen(start.Add(30 * time.Minute)) {
		t.Error("event should be open while running")
	}
	if e.IsOpen(start.Add(time.Hour)) {
		t.Error("event should be closed once it ends")
	}
	if e.IsUpcoming(start) {
		t.Error("event is not upcoming at its start instant")
	}
}

// TestParseLocal tests local to UTC conversion.
func TestParseLocal(t *testing.T) {
	auckland := time.FixedZone("NZST", 12*3600)

	got, err := ParseLocal("2026-06-05", "19:30", auckland)
	if err != nil {
		t.Fatalf("ParseLocal() error: %v", err)
	}
	want := time.Date(2026, 6, 5, 7, 30, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("ParseLocal() = %v, want %v in UTC", got, want)
	}

	for _, bad := range [][2]string{{"", "10:00"}, {"2026-06-05", ""}, {"06/05/2026", "10:00"}, {"2026-06-05", "7pm"}} {
		if _, err := ParseLocal(bad[0], bad[1], auckland); !errors.Is(err, ErrInvalidSchedule) {
			t.Errorf("ParseLocal(%q, %q) error = %v, want ErrInvalidSchedule", bad[0], bad[1], err)
		}
	}
}

// TestParseLocal_DST verifies named zones honour daylight saving.
func TestParseLocal_DST(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	winter, _ := ParseLocal("2026-01-15", "10:00", loc)
	summer, _ := ParseLocal("2026-07-15", "10:00", loc)
	if winter.Hour() != 16 {
		t.Errorf("winter UTC hour = %d, want 16", winter.Hour())
	}
	if summer.Hour() != 15 {
		t.Errorf("summer UTC hour = %d, want 15", summer.Hour())
	}
}

// TestFormatLocal_RoundTrip verifies stored instants render back to the entered values.
func TestFormatLocal_RoundTrip(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	utc, err := ParseLocal("2026-12-31", "23:15", loc)
	if err != nil {
		t.Fatal(err)
	}
	date, clock := FormatLocal(utc, loc)
	if date != "2026-12-31" || clock != "23:15" {
		t.Fatalf("FormatLocal() = %s %s, want 2026-12-31 23:15", date, clock)
	}
	if d, c := FormatLocal(time.Time{}, loc); d != "" || c != "" {
		t.Fatalf("FormatLocal(zero) = %q %q, want empty", d, c)
	}
}

// TestEnsureEndAfterStart tests the +1 hour auto-adjustment.
func TestEnsureEndAfterStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		end  time.Time
		want time.Time
	}{
		{"zero end", time.Time{}, start.Add(time.Hour)},
		{"end equals start", start, start.Add(time.Hour)},
		{"end before start", start.Add(-3 * time.Hour), start.Add(time.Hour)},
		{"end after start kept", start.Add(90 * time.Minute), start.Add(90 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnsureEndAfterStart(start, tt.end)
			if !got.Equal(tt.want) {
				t.Fatalf("EnsureEndAfterStart() = %v, want %v", got, tt.want)
			}
			if !got.After(start) {
				t.Fatal("end must be strictly after start")
			}
		})
	}
}

// TestLocalSchedule_ToUTC covers edits that leave the end before the start.
func TestLocalSchedule_ToUTC(t *testing.T) {
	loc := time.FixedZone("local", 2*3600)

	t.Run("valid range", func(t *testing.T) {
		s := LocalSchedule{StartDate: "2026-04-10", StartTime: "18:00", EndDate: "2026-04-10", EndTime: "20:00"}
		start, end, err := s.ToUTC(loc)
		if err != nil {
			t.Fatal(err)
		}
		if end.Sub(start) != 2*time.Hour {
			t.Fatalf("duration = %v, want 2h", end.Sub(start))
		}
	})

	t.Run("start moved past end", func(t *testing.T) {
		s := LocalSchedule{StartDate: "2026-04-10", StartTime: "21:00", EndDate: "2026-04-10", EndTime: "20:00"}
		start, end, err := s.ToUTC(loc)
		if err != nil {
			t.Fatal(err)
		}
		if end.Sub(start) != time.Hour {
			t.Fatalf("end should be start+1h, got %v", end.Sub(start))
		}
	})

	t.Run("missing end date uses start date", func(t *testing.T) {
		s := LocalSchedule{StartDate: "2026-04-10", StartTime: "09:00", EndTime: "11:30"}
		start, end, err := s.ToUTC(loc)
		if err != nil {
			t.Fatal(err)
		}
		if end.Sub(start) != 150*time.Minute {
			t.Fatalf("duration = %v, want 2h30m", end.Sub(start))
		}
	})

	t.Run("no end at all", func(t *testing.T) {
		s := LocalSchedule{StartDate: "2026-04-10", StartTime: "09:00"}
		start, end, err := s.ToUTC(loc)
		if err != nil {
			t.Fatal(err)
		}
		if end.Sub(start) != time.Hour {
			t.Fatalf("duration = %v, want 1h", end.Sub(start))
		}
	})

	t.Run("end date with blank end time", func(t *testing.T) {
		s := LocalSchedule{StartDate: "2026-05-01", StartTime: "10:00", EndDate: "2026-05-01", EndTime: "  "}
		start, end, err := s.ToUTC(loc)
		if err != nil {
			t.Fatalf("ToUTC() error = %v", err)
		}
		if end.Sub(start) != time.Hour {
			t.Fatalf("duration = %v, want 1h", end.Sub(start))
		}
	})

	t.Run("malformed end time is rejected", func(t *testing.T) {
		s := LocalSchedule{StartDate: "2026-05-01", StartTime: "10:00", EndDate: "2026-05-01", EndTime: "25:99"}
		if _, _, err := s.ToUTC(loc); !errors.Is(err, ErrInvalidSchedule) {
			t.Fatalf("ToUTC() error = %v, want ErrInvalidSchedule", err)
		}
	})

	t.Run("round trip through stored event", func(t *testing.T) {
		s := LocalSchedule{StartDate: "2026-04-10", StartTime: "09:00", EndDate: "2026-04-11", EndTime: "17:00"}
		start, end, err := s.ToUTC(loc)
		if err != nil {
			t.Fatal(err)
		}
		back := LocalScheduleOf(Event{StartsAt: start, EndsAt: end}, loc)
		if back != s {
			t.Fatalf("LocalScheduleOf() = %+v, want %+v", back, s)
		}
	})
}
