package lead

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"outreach/internal/adapters/storage"
	domain "outreach/internal/domain/lead"
)

var columns = []string{
	"id", "first_name", "last_name", "email", "phone", "decision", "notes", "event_id",
	"contacted", "contacted_at", "assigned_user_id", "assigned_at", "created_at",
}

var insertColumns = append(columns[:len(columns):len(columns)], "search_text")

// searchText is the haystack stored in lead.search_text. It is folded in Go
// because SQLite's LOWER only folds ASCII.
func searchText(l domain.Lead) string {
	return strings.ToLower(strings.Join([]string{l.FirstName, l.LastName, l.Email, l.Phone}, " "))
}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db *storage.DB
}

// NewSQLStore creates a lead store.
func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves a Lead.
// POST: Returns the lead or ErrNotFound
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Lead, error) {
	query, args, err := s.db.Builder().Select(columns...).From("lead").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Lead{}, err
	}
	l, err := scanLead(s.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		return domain.Lead{}, storage.NotFound(err, "get lead", ErrNotFound)
	}
	return l, nil
}

// Save inserts or updates a Lead.
// PRE: value has been validated
func (s *SQLStore) Save(ctx context.Context, value domain.Lead) error {
	query, args, err := s.db.Builder().
		Insert("lead").
		Columns(insertColumns...).
		Values(
			value.ID,
			value.FirstName,
			value.LastName,
			value.Email,
			value.Phone,
			value.Decision,
			value.Notes,
			storage.NullString(value.EventID),
			storage.BoolInt(value.Contacted),
			storage.NullTime(value.ContactedAt),
			storage.NullString(value.AssignedUserID),
			storage.NullTime(value.AssignedAt),
			storage.FormatTime(value.CreatedAt),
			searchText(value),
		).
		Suffix("ON CONFLICT(id) DO UPDATE SET " +
			"first_name=excluded.first_name, last_name=excluded.last_name, email=excluded.email, " +
			"phone=excluded.phone, decision=excluded.decision, notes=excluded.notes, event_id=excluded.event_id, " +
			"contacted=excluded.contacted, contacted_at=excluded.contacted_at, " +
			"assigned_user_id=excluded.assigned_user_id, assigned_at=excluded.assigned_at, " +
			"search_text=excluded.search_text").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save lead: %w", err)
	}
	return nil
}

// Delete removes a Lead.
// POST: Returns ErrNotFound when no row was deleted
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	query, args, err := s.db.Builder().Delete("lead").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of leads, newest first.
// PRE: filter.Limit > 0, filter.Offset >= 0
// POST: len(result) <= filter.Limit; every row satisfies the filter
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Lead, error) {
	b := s.db.Builder().
		Select(columns...).
		From("lead").
		Where(filterWhere(filter)).
		OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	results := []domain.Lead{}
	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

// Count returns how many leads match filter, ignoring Limit and Offset.
func (s *SQLStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args, err := s.db.Builder().Select("COUNT(*)").From("lead").Where(filterWhere(filter)).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

// Summarize counts the pipeline, optionally for one assignee.
func (s *SQLStore) Summarize(ctx context.Context, assignedUserID *string) (Summary, error) {
	b := s.db.Builder().
		Select(
			"COUNT(*)",
			"COALESCE(SUM(CASE WHEN contacted = 0 THEN 1 ELSE 0 END), 0)",
			"COALESCE(SUM(CASE WHEN assigned_user_id IS NULL THEN 1 ELSE 0 END), 0)",
		).
		From("lead")
	if assignedUserID != nil {
		b = b.Where(sq.Eq{"assigned_user_id": *assignedUserID})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return Summary{}, err
	}
	var sum Summary
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&sum.Total, &sum.Uncontacted, &sum.Unassigned); err != nil {
		return Summary{}, fmt.Errorf("summarize leads: %w", err)
	}
	return sum, nil
}

func filterWhere(filter ListFilter) sq.And {
	where := sq.And{}
	if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
		where = append(where, sq.Expr("search_text LIKE ? ESCAPE '\\'", "%"+escapeLike(q)+"%"))
	}
	if filter.HideContacted {
		where = append(where, sq.Eq{"contacted": 0})
	}
	if filter.HideAssigned {
		where = append(where, sq.Eq{"assigned_user_id": nil})
	}
	if filter.AssignedUserID != nil {
		where = append(where, sq.Eq{"assigned_user_id": *filter.AssignedUserID})
	}
	return where
}

// escapeLike makes % and _ in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanLead(scan func(dest ...any) error) (domain.Lead, error) {
	var l domain.Lead
	var contacted int
	var eventID, assignedUserID, contactedAt, assignedAt, createdAt sql.NullString
	err := scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Decision, &l.Notes, &eventID,
		&contacted, &contactedAt, &assignedUserID, &assignedAt, &createdAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	l.EventID = eventID.String
	l.AssignedUserID = assignedUserID.String
	l.Contacted = contacted != 0
	if l.ContactedAt, err = storage.ParseTime(contactedAt); err != nil {
		return domain.Lead{}, err
	}
	if l.AssignedAt, err = storage.ParseTime(assignedAt); err != nil {
		return domain.Lead{}, err
	}
	if l.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Lead{}, err
	}
	return l, nil
}
