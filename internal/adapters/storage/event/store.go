package event

import (
	"context"
	"errors"
	"time"

	domain "outreach/internal/domain/event"
)

var ErrNotFound = errors.New("event not found")

// When selects events relative to a reference instant.
type When int

const (
	All      When = iota
	Upcoming      // not yet ended
	Past          // already ended
)

// Store persists Event state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, value domain.Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
// Upcoming lists soonest first; Past and All list most recent first.
type ListFilter struct {
	Limit  int
	Offset int
	When   When
	Now    time.Time
}
