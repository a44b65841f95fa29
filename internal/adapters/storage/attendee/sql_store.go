package attendee

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/attendee"
	"outreach/internal/domain/profile"
)

var columns = []string{"id", "event_id", "first_name", "last_name", "email", "phone", "guests", "created_at"}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db *storage.DB
}

// NewSQLStore creates an attendee store.
func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves an Attendee.
// POST: Returns the attendee or ErrNotFound
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Attendee, error) {
	query, args, err := s.db.Builder().Select(columns...).From("attendee").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Attendee{}, err
	}
	a, err := scanAttendee(s.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		return domain.Attendee{}, storage.NotFound(err, "get attendee", ErrNotFound)
	}
	return a, nil
}

// Create inserts a registration. Emails are compared case-insensitively.
// PRE: value has been validated and its event exists
// POST: Row inserted, or domain.ErrAlreadyRegistered
func (s *SQLStore) Create(ctx context.Context, value domain.Attendee) error {
	query, args, err := s.db.Builder().
		Insert("attendee").
		Columns(columns...).
		Values(
			value.ID,
			value.EventID,
			value.FirstName,
			value.LastName,
			profile.NormalizeEmail(value.Email),
			value.Phone,
			value.Guests,
			storage.FormatTime(value.CreatedAt),
		).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if storage.IsUniqueViolation(err) {
			return domain.ErrAlreadyRegistered
		}
		return fmt.Errorf("create attendee: %w", err)
	}
	return nil
}

// Delete removes one registration.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	query, args, err := s.db.Builder().Delete("attendee").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// ListByEvent returns an event's registrations in sign-up order.
func (s *SQLStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Attendee, error) {
	query, args, err := s.db.Builder().
		Select(columns...).
		From("attendee").
		Where(sq.Eq{"event_id": eventID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var results []domain.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// TotalsByEvent aggregates registrations per event. With no ids every event is included.
// POST: events without registrations are absent from the map
func (s *SQLStore) TotalsByEvent(ctx context.Context, eventIDs ...string) (map[string]Totals, error) {
	b := s.db.Builder().
		Select("event_id", "COUNT(*)", "COALESCE(SUM(guests), 0)").
		From("attendee").
		GroupBy("event_id")
	if len(eventIDs) > 0 {
		b = b.Where(sq.Eq{"event_id": eventIDs})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("attendee totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]Totals)
	for rows.Next() {
		var id string
		var count, guests int
		if err := rows.Scan(&id, &count, &guests); err != nil {
			return nil, err
		}
		totals[id] = Totals{Registrations: count, Headcount: count + guests}
	}
	return totals, rows.Err()
}

// Count returns the total number of registrations.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	query, args, err := s.db.Builder().Select("COUNT(*)").From("attendee").ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func scanAttendee(scan func(dest ...any) error) (domain.Attendee, error) {
	var a domain.Attendee
	var createdAt sql.NullString
	if err := scan(&a.ID, &a.EventID, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.Guests, &createdAt); err != nil {
		return domain.Attendee{}, err
	}
	var err error
	if a.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Attendee{}, err
	}
	return a, nil
}
