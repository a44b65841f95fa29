package lead

import (
	"context"
	"errors"

	domain "outreach/internal/domain/lead"
)

var ErrNotFound = errors.New("lead not found")

// Store persists Lead state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Lead, error)
	Save(ctx context.Context, value domain.Lead) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Lead, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Summarize(ctx context.Context, assignedUserID *string) (Summary, error)
}

// ListFilter carries filtering parameters for List and Count.
// Rows are ordered newest first with id as tiebreak.
type ListFilter struct {
	Limit  int
	Offset int

	// Search matches first name, last name, email or phone, case-insensitively.
	Search        string
	HideContacted bool
	HideAssigned  bool

	// AssignedUserID restricts rows to one assignee. Nil means no restriction.
	AssignedUserID *string
}

// Summary is a set of pipeline counters.
type Summary struct {
	Total       int
	Uncontacted int
	Unassigned  int
}
