package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect selects placeholder style and dialect-only migrations.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ErrUnknownDialect is returned by Open for unsupported drivers.
var ErrUnknownDialect = errors.New("unknown database dialect")

// Placeholder returns the squirrel placeholder format for the dialect.
func (d Dialect) Placeholder() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// DB is the handle every store is constructed with.
// It pairs the (possibly instrumented) connection pool with its dialect.
type DB struct {
	SQLDB
	Dialect Dialect
}

// New pairs conn with dialect.
// PRE: conn is non-nil
func New(conn SQLDB, dialect Dialect) *DB {
	return &DB{SQLDB: conn, Dialect: dialect}
}

// Builder returns a squirrel statement builder using the dialect's placeholders.
func (db *DB) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(db.Dialect.Placeholder())
}

// Open connects to the configured database and verifies the connection.
// PRE: driver is "sqlite" or "postgres"
// POST: Returns an open pool and its dialect, or an error
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	switch Dialect(driver) {
	case DialectSQLite:
		db, err := sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite: %w", err)
		}
		if isMemoryDSN(dsn) {
			// each connection to :memory: is a separate database
			db.SetMaxOpenConns(1)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("ping sqlite: %w", err)
		}
		return db, DialectSQLite, nil
	case DialectPostgres:
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("ping postgres: %w", err)
		}
		return db, DialectPostgres, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownDialect, driver)
	}
}

func isMemoryDSN(dsn string) bool {
	return dsn == "" || strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// sqliteDSN appends the connection pragmas every sqlite connection needs.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = ":memory:"
	}
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	pragmas := "_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	if !isMemoryDSN(dsn) {
		pragmas += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}
	return dsn + sep + pragmas
}

// TimeFormat is the fixed-width UTC text layout used for every timestamp
// column, so lexical order matches chronological order in both dialects.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

// FormatTime renders t in TimeFormat.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// NullTime renders t for a nullable column: nil when t is zero.
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// NullString maps "" to NULL.
func NullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ParseTime reads a timestamp column. Empty or NULL yields the zero time.
func ParseTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeFormat, ns.String)
	if err != nil {
		// rows written by hand or by older tooling may use RFC 3339
		t, err = time.Parse(time.RFC3339Nano, ns.String)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse time %q: %w", ns.String, err)
		}
	}
	return t.UTC(), nil
}

// BoolInt encodes a boolean for an INTEGER column.
func BoolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IsUniqueViolation reports whether err is a unique-constraint failure from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// NotFound converts sql.ErrNoRows into notFound and wraps anything else with op.
func NotFound(err error, op string, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
