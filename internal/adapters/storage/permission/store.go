package permission

import (
	"context"
	"errors"

	domain "outreach/internal/domain/permission"
)

var ErrNotFound = errors.New("permission grant not found")

// Store persists profile permission grants.
type Store interface {
	// Level returns the profile's level. A profile without a grant is Regular.
	Level(ctx context.Context, profileID string) (domain.Level, error)
	Get(ctx context.Context, profileID string) (domain.Grant, error)
	Save(ctx context.Context, grant domain.Grant) error
	List(ctx context.Context, levels ...domain.Level) ([]domain.Grant, error)
	CountByLevel(ctx context.Context, level domain.Level) (int, error)
}
