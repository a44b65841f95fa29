package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/profile"
)

var columns = []string{"id", "email", "full_name", "password_hash", "created_at", "failed_logins", "locked_until"}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db *storage.DB
}

// NewSQLStore creates a profile store.
func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves a Profile by its ID.
// PRE: id is non-empty
// POST: Returns the profile or ErrNotFound
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	return s.getOne(ctx, sq.Eq{"id": id})
}

// GetByEmail retrieves a Profile by normalised email.
// PRE: email is non-empty
// POST: Returns the profile or ErrNotFound
func (s *SQLStore) GetByEmail(ctx context.Context, email string) (domain.Profile, error) {
	return s.getOne(ctx, sq.Eq{"email": domain.NormalizeEmail(email)})
}

func (s *SQLStore) getOne(ctx context.Context, where sq.Sqlizer) (domain.Profile, error) {
	query, args, err := s.db.Builder().Select(columns...).From("profile").Where(where).ToSql()
	if err != nil {
		return domain.Profile{}, err
	}
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		return domain.Profile{}, storage.NotFound(err, "get profile", ErrNotFound)
	}
	return p, nil
}

// Save inserts or updates a Profile. Emails are stored normalised.
// PRE: value has been validated
// POST: Profile persisted, or ErrEmailAlreadyExists when another profile owns the email
func (s *SQLStore) Save(ctx context.Context, value domain.Profile) error {
	query, args, err := s.db.Builder().
		Insert("profile").
		Columns(columns...).
		Values(
			value.ID,
			domain.NormalizeEmail(value.Email),
			strings.TrimSpace(value.FullName),
			value.PasswordHash,
			storage.FormatTime(value.CreatedAt),
			value.FailedLogins,
			storage.NullTime(value.LockedUntil),
		).
		Suffix("ON CONFLICT(id) DO UPDATE SET " +
			"email=excluded.email, full_name=excluded.full_name, password_hash=excluded.password_hash, " +
			"failed_logins=excluded.failed_logins, locked_until=excluded.locked_until").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if storage.IsUniqueViolation(err) {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Delete removes a Profile. Its permission row cascades; assigned leads become unassigned.
// PRE: id is non-empty
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	query, args, err := s.db.Builder().Delete("profile").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// List retrieves profiles ordered by email.
// PRE: filter.Limit >= 0
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Profile, error) {
	b := s.db.Builder().Select(columns...).From("profile").Where(filterWhere(filter)).OrderBy("email ASC")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var results []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// Count returns how many profiles match filter, ignoring Limit and Offset.
func (s *SQLStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args, err := s.db.Builder().Select("COUNT(*)").From("profile").Where(filterWhere(filter)).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

func filterWhere(filter ListFilter) sq.And {
	where := sq.And{}
	if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
		like := "%" + q + "%"
		where = append(where, sq.Or{
			sq.Expr("LOWER(email) LIKE ?", like),
			sq.Expr("LOWER(full_name) LIKE ?", like),
		})
	}
	if filter.IDs != nil {
		where = append(where, sq.Eq{"id": filter.IDs})
	}
	return where
}

func scanProfile(scan func(dest ...any) error) (domain.Profile, error) {
	var p domain.Profile
	var createdAt, lockedUntil sql.NullString
	if err := scan(&p.ID, &p.Email, &p.FullName, &p.PasswordHash, &createdAt, &p.FailedLogins, &lockedUntil); err != nil {
		return domain.Profile{}, err
	}
	var err error
	if p.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Profile{}, err
	}
	if p.LockedUntil, err = storage.ParseTime(lockedUntil); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}
