package event

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/event"
)

var columns = []string{"id", "title", "description", "location", "starts_at", "ends_at", "created_by", "created_at", "updated_at"}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db *storage.DB
}

// NewSQLStore creates an event store.
func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves an Event.
// PRE: id is non-empty
// POST: Returns the event or ErrNotFound
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	query, args, err := s.db.Builder().Select(columns...).From("event").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Event{}, err
	}
	e, err := scanEvent(s.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		return domain.Event{}, storage.NotFound(err, "get event", ErrNotFound)
	}
	return e, nil
}

// Save inserts or updates an Event. CreatedAt and CreatedBy are kept on update.
// PRE: value has been validated
func (s *SQLStore) Save(ctx context.Context, value domain.Event) error {
	query, args, err := s.db.Builder().
		Insert("event").
		Columns(columns...).
		Values(
			value.ID,
			value.Title,
			value.Description,
			value.Location,
			storage.FormatTime(value.StartsAt),
			storage.FormatTime(value.EndsAt),
			storage.NullString(value.CreatedBy),
			storage.FormatTime(value.CreatedAt),
			storage.FormatTime(value.UpdatedAt),
		).
		Suffix("ON CONFLICT(id) DO UPDATE SET " +
			"title=excluded.title, description=excluded.description, location=excluded.location, " +
			"starts_at=excluded.starts_at, ends_at=excluded.ends_at, updated_at=excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

// Delete removes an Event. Attendees cascade; linked leads keep their row with no event.
// POST: Returns ErrNotFound when no row was deleted
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	query, args, err := s.db.Builder().Delete("event").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves events matching filter.
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	b := s.db.Builder().Select(columns...).From("event").Where(whenWhere(filter))
	if filter.When == Upcoming {
		b = b.OrderBy("starts_at ASC", "id ASC")
	} else {
		b = b.OrderBy("starts_at DESC", "id DESC")
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// Count returns how many events match filter.
func (s *SQLStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args, err := s.db.Builder().Select("COUNT(*)").From("event").Where(whenWhere(filter)).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func whenWhere(filter ListFilter) sq.Sqlizer {
	now := storage.FormatTime(filter.Now)
	switch filter.When {
	case Upcoming:
		return sq.Gt{"ends_at": now}
	case Past:
		return sq.LtOrEq{"ends_at": now}
	default:
		return sq.And{}
	}
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	var startsAt, endsAt, createdBy, createdAt, updatedAt sql.NullString
	if err := scan(&e.ID, &e.Title, &e.Description, &e.Location, &startsAt, &endsAt, &createdBy, &createdAt, &updatedAt); err != nil {
		return domain.Event{}, err
	}
	e.CreatedBy = createdBy.String

	var err error
	if e.StartsAt, err = storage.ParseTime(startsAt); err != nil {
		return domain.Event{}, err
	}
	if e.EndsAt, err = storage.ParseTime(endsAt); err != nil {
		return domain.Event{}, err
	}
	if e.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Event{}, err
	}
	if e.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}
