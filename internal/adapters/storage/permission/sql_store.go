package permission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/permission"
)

// SQLStore implements Store over the profile_permission table.
type SQLStore struct {
	db *storage.DB
}

// NewSQLStore creates a permission store.
func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Level looks up the profile's level on every call so changes apply immediately.
// PRE: profileID is non-empty
// POST: Returns the stored level, or Regular when no grant exists
func (s *SQLStore) Level(ctx context.Context, profileID string) (domain.Level, error) {
	g, err := s.Get(ctx, profileID)
	if errors.Is(err, ErrNotFound) {
		return domain.Regular, nil
	}
	if err != nil {
		return domain.Regular, err
	}
	return g.Level, nil
}

// Get retrieves the grant row for a profile.
// POST: Returns the grant or ErrNotFound
func (s *SQLStore) Get(ctx context.Context, profileID string) (domain.Grant, error) {
	query, args, err := s.db.Builder().
		Select("profile_id", "level", "updated_at", "updated_by").
		From("profile_permission").
		Where(sq.Eq{"profile_id": profileID}).
		ToSql()
	if err != nil {
		return domain.Grant{}, err
	}
	g, err := scanGrant(s.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		return domain.Grant{}, storage.NotFound(err, "get grant", ErrNotFound)
	}
	return g, nil
}

// Save upserts a grant.
// PRE: grant.Level.Valid()
// POST: The profile's level is grant.Level
func (s *SQLStore) Save(ctx context.Context, grant domain.Grant) error {
	if !grant.Level.Valid() {
		return domain.ErrInvalidLevel
	}
	query, args, err := s.db.Builder().
		Insert("profile_permission").
		Columns("profile_id", "level", "updated_at", "updated_by").
		Values(grant.ProfileID, int(grant.Level), storage.FormatTime(grant.UpdatedAt), storage.NullString(grant.UpdatedBy)).
		Suffix("ON CONFLICT(profile_id) DO UPDATE SET level=excluded.level, updated_at=excluded.updated_at, updated_by=excluded.updated_by").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save grant: %w", err)
	}
	return nil
}

// List returns grants, optionally restricted to the given levels.
func (s *SQLStore) List(ctx context.Context, levels ...domain.Level) ([]domain.Grant, error) {
	b := s.db.Builder().
		Select("profile_id", "level", "updated_at", "updated_by").
		From("profile_permission").
		OrderBy("level ASC", "profile_id ASC")
	if len(levels) > 0 {
		ints := make([]int, len(levels))
		for i, l := range levels {
			ints[i] = int(l)
		}
		b = b.Where(sq.Eq{"level": ints})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var grants []domain.Grant
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// CountByLevel counts grants at exactly level.
func (s *SQLStore) CountByLevel(ctx context.Context, level domain.Level) (int, error) {
	query, args, err := s.db.Builder().
		Select("COUNT(*)").
		From("profile_permission").
		Where(sq.Eq{"level": int(level)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count grants: %w", err)
	}
	return n, nil
}

func scanGrant(scan func(dest ...any) error) (domain.Grant, error) {
	var g domain.Grant
	var level int
	var updatedAt, updatedBy sql.NullString
	if err := scan(&g.ProfileID, &level, &updatedAt, &updatedBy); err != nil {
		return domain.Grant{}, err
	}
	g.Level = domain.Level(level)
	g.UpdatedBy = updatedBy.String
	var err error
	if g.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Grant{}, err
	}
	return g, nil
}
