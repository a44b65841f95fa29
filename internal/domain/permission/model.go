package permission

import (
	"errors"
	"strconv"
	"time"
)

// Level is a profile's access tier. Lower numbers carry more access.
type Level int

// Permission levels.
const (
	SuperAdmin  Level = 0 // full access
	LeadManager Level = 1 // leads assigned to self only
	Regular     Level = 2 // no admin access
)

// Domain errors
var (
	ErrInvalidLevel = errors.New("permission level must be 0, 1 or 2")
	ErrDemoteSelf   = errors.New("super admins cannot change their own permission level")
)

// ValidLevels lists every level in ascending order of numeric value.
var ValidLevels = []Level{SuperAdmin, LeadManager, Regular}

// Grant records the permission row for a profile.
// A profile without a grant is treated as Regular.
type Grant struct {
	ProfileID string
	Level     Level
	UpdatedAt time.Time
	UpdatedBy string
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= SuperAdmin && l <= Regular
}

// String returns a human label for the level.
func (l Level) String() string {
	switch l {
	case SuperAdmin:
		return "Super admin"
	case LeadManager:
		return "Lead manager"
	case Regular:
		return "Regular"
	}
	return "Unknown"
}

// Parse converts a form or query value into a Level.
// PRE: none
// POST: Returns a valid Level or ErrInvalidLevel
func Parse(s string) (Level, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return Regular, ErrInvalidLevel
	}
	l := Level(n)
	if !l.Valid() {
		return Regular, ErrInvalidLevel
	}
	return l, nil
}

// CanViewLeads reports whether the level may open the leads page.
func (l Level) CanViewLeads() bool {
	return l == SuperAdmin || l == LeadManager
}

// CanManageEvents reports whether the level may create, edit or delete events.
func (l Level) CanManageEvents() bool {
	return l == SuperAdmin
}

// CanManageUsers reports whether the level may change other profiles' levels.
func (l Level) CanManageUsers() bool {
	return l == SuperAdmin
}

// CanAssignLeads reports whether the level may assign or delete leads.
func (l Level) CanAssignLeads() bool {
	return l == SuperAdmin
}

// IsAssignable reports whether a profile at this level may own leads.
func (l Level) IsAssignable() bool {
	return l == SuperAdmin || l == LeadManager
}

// LeadScope returns the assignee restriction for a viewer's lead queries.
// PRE: l.CanViewLeads()
// POST: Returns nil for super admins (unrestricted), &profileID for lead managers
func (l Level) LeadScope(profileID string) *string {
	if l == SuperAdmin {
		return nil
	}
	id := profileID
	return &id
}
