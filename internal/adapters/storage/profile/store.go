package profile

import (
	"context"
	"errors"

	domain "outreach/internal/domain/profile"
)

var (
	ErrNotFound           = errors.New("profile not found")
	ErrEmailAlreadyExists = errors.New("a profile with this email already exists")
)

// Store persists Profile state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (domain.Profile, error)
	Save(ctx context.Context, value domain.Profile) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Profile, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
// A zero Limit returns every matching row.
type ListFilter struct {
	Limit  int
	Offset int
	Search string // case-insensitive match on email or full name
	IDs    []string
}
