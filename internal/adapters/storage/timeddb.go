package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"outreach/internal/adapters/http/perf"
)

// SQLDB is the connection surface stores depend on.
// Both *sql.DB and *TimedDB satisfy it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ SQLDB = (*sql.DB)(nil)

// QueryObserver receives every statement timing, e.g. a prometheus histogram.
type QueryObserver interface {
	ObserveQuery(label string, d time.Duration, err error)
}

// DefaultSlowQuery is used when NewTimedDB is given a non-positive threshold.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB instruments a *sql.DB: statements over the threshold are logged as
// slow_query, and every statement is recorded into the perf collector and
// the observer when they are set.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	observer  QueryObserver
	threshold time.Duration
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db.
// PRE: db is open; collector and observer may be nil
func NewTimedDB(db *sql.DB, threshold time.Duration, collector *perf.Collector, observer QueryObserver) *TimedDB {
	if threshold <= 0 {
		threshold = DefaultSlowQuery
	}
	return &TimedDB{db: db, collector: collector, observer: observer, threshold: threshold}
}

// RawDB returns the wrapped pool.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

func (t *TimedDB) record(query string, start time.Time, err error) {
	d := time.Since(start)
	label := statementLabel(query)

	if d >= t.threshold {
		slog.Warn("slow_query", "statement", label, "duration_ms", d.Milliseconds())
	}
	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:     perf.KindQuery,
			Name:     label,
			Failed:   err != nil && err != sql.ErrNoRows,
			Duration: d,
			At:       start,
		})
	}
	if t.observer != nil {
		t.observer.ObserveQuery(label, d, err)
	}
}

// ExecContext times db.ExecContext.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.db.ExecContext(ctx, query, args...)
	t.record(query, start, err)
	return res, err
}

// QueryContext times db.QueryContext. Row iteration is not included.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.record(query, start, err)
	return rows, err
}

// QueryRowContext times db.QueryRowContext.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.record(query, start, row.Err())
	return row
}

// BeginTx starts a transaction. Statements inside it are not instrumented.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.record("BEGIN", start, err)
	return tx, err
}

// Close closes the wrapped pool.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

// statementLabel reduces a statement to "VERB table" for low-cardinality
// grouping, e.g. "SELECT lead" or "UPDATE profile".
func statementLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "EMPTY"
	}
	verb := strings.ToUpper(fields[0])
	var marker string
	switch verb {
	case "SELECT", "DELETE":
		marker = "FROM"
	case "INSERT":
		marker = "INTO"
	case "UPDATE":
		if len(fields) > 1 {
			return verb + " " + cleanIdent(fields[1])
		}
		return verb
	default:
		return verb
	}
	for i := 1; i < len(fields)-1; i++ {
		if strings.EqualFold(fields[i], marker) {
			return verb + " " + cleanIdent(fields[i+1])
		}
	}
	return verb
}

func cleanIdent(s string) string {
	return strings.ToLower(strings.Trim(s, `"();,`))
}
