package lead

import (
	"errors"
	"strings"
	"time"
)

// Decision constants describe what the visitor indicated on the saved form.
const (
	DecisionFirstTime    = "first_time"
	DecisionRededication = "rededication"
	DecisionMoreInfo     = "more_info"
)

// ValidDecisions contains all valid decision values.
var ValidDecisions = []string{DecisionFirstTime, DecisionRededication, DecisionMoreInfo}

// DecisionLabels maps decisions to display text.
var DecisionLabels = map[string]string{
	DecisionFirstTime:    "First-time decision",
	DecisionRededication: "Rededication",
	DecisionMoreInfo:     "Wants more information",
}

// Max length constants.
const (
	MaxNameLength  = 100
	MaxEmailLength = 254
	MaxPhoneLength = 40
	MaxNotesLength = 2000
)

// Domain errors
var (
	ErrEmptyFirstName   = errors.New("first name cannot be empty")
	ErrNameTooLong      = errors.New("names cannot exceed 100 characters")
	ErrNoContactMethod  = errors.New("an email or phone number is required")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrPhoneTooLong     = errors.New("phone cannot exceed 40 characters")
	ErrNotesTooLong     = errors.New("notes cannot exceed 2000 characters")
	ErrInvalidDecision  = errors.New("decision must be one of: first_time, rededication, more_info")
	ErrNotAssignedToYou = errors.New("this lead is not assigned to you")
)

// Lead is a saved-form submission tracked through the contact pipeline.
type Lead struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Decision       string
	Notes          string
	EventID        string // optional event the visitor attended
	Contacted      bool
	ContactedAt    time.Time
	AssignedUserID string // empty when unassigned
	AssignedAt     time.Time
	CreatedAt      time.Time
}

// Validate checks the lead's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.FirstName) == "" {
		return ErrEmptyFirstName
	}
	if len(l.FirstName) > MaxNameLength || len(l.LastName) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(l.Email) == "" && strings.TrimSpace(l.Phone) == "" {
		return ErrNoContactMethod
	}
	if l.Email != "" && !strings.Contains(l.Email, "@") {
		return ErrInvalidEmail
	}
	if len(l.Phone) > MaxPhoneLength {
		return ErrPhoneTooLong
	}
	if len(l.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if !isValidDecision(l.Decision) {
		return ErrInvalidDecision
	}
	return nil
}

// FullName joins first and last name.
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// IsAssigned reports whether the lead has an owner.
func (l *Lead) IsAssigned() bool {
	return l.AssignedUserID != ""
}

// IsAssignedTo reports whether profileID owns the lead.
func (l *Lead) IsAssignedTo(profileID string) bool {
	return profileID != "" && l.AssignedUserID == profileID
}

// MarkContacted flips the contacted flag and stamps or clears ContactedAt.
// POST: Contacted == contacted; ContactedAt set iff contacted
func (l *Lead) MarkContacted(contacted bool, now time.Time) {
	l.Contacted = contacted
	if contacted {
		l.ContactedAt = now
	} else {
		l.ContactedAt = time.Time{}
	}
}

// AssignTo sets the owner. An empty profileID unassigns the lead.
// POST: AssignedUserID == profileID; AssignedAt set iff assigned
func (l *Lead) AssignTo(profileID string, now time.Time) {
	l.AssignedUserID = profileID
	if profileID == "" {
		l.AssignedAt = time.Time{}
		return
	}
	l.AssignedAt = now
}

// DecisionLabel returns display text for the decision.
func (l *Lead) DecisionLabel() string {
	if label, ok := DecisionLabels[l.Decision]; ok {
		return label
	}
	return l.Decision
}

func isValidDecision(d string) bool {
	for _, v := range ValidDecisions {
		if v == d {
			return true
		}
	}
	return false
}
