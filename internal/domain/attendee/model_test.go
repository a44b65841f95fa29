package attendee_test

import (
	"strings"
	"testing"

	"outreach/internal/domain/attendee"
)

// TestAttendee_Validate tests validation of Attendee.
func TestAttendee_Validate(t *testing.T) {
	valid := attendee.Attendee{
		ID:        "a1",
		EventID:   "e1",
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Guests:    2,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid attendee, got %v", err)
	}

	tests := []struct {
		name    string
		modify  func(a *attendee.Attendee)
		wantErr error
	}{
		{"missing event", func(a *attendee.Attendee) { a.EventID = "" }, attendee.ErrMissingEvent},
		{"empty first name", func(a *attendee.Attendee) { a.FirstName = " " }, attendee.ErrEmptyFirstName},
		{"empty last name", func(a *attendee.Attendee) { a.LastName = "" }, attendee.ErrEmptyLastName},
		{"long name", func(a *attendee.Attendee) { a.FirstName = strings.Repeat("g", 101) }, attendee.ErrNameTooLong},
		{"missing email", func(a *attendee.Attendee) { a.Email = "" }, attendee.ErrInvalidEmail},
		{"bad email", func(a *attendee.Attendee) { a.Email = "grace" }, attendee.ErrInvalidEmail},
		{"long phone", func(a *attendee.Attendee) { a.Phone = strings.Repeat("1", 41) }, attendee.ErrPhoneTooLong},
		{"negative guests", func(a *attendee.Attendee) { a.Guests = -1 }, attendee.ErrInvalidGuests},
		{"too many guests", func(a *attendee.Attendee) { a.Guests = 11 }, attendee.ErrInvalidGuests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.modify(&a)
			if err := a.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestAttendee_Headcount tests headcount including guests.
func TestAttendee_Headcount(t *testing.T) {
	a := attendee.Attendee{FirstName: "Grace", LastName: "Hopper", Guests: 3}
	if a.Headcount() != 4 {
		t.Errorf("Headcount() = %d, want 4", a.Headcount())
	}
	if a.FullName() != "Grace Hopper" {
		t.Errorf("FullName() = %q", a.FullName())
	}
}
