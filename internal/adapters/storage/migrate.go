package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// migration is one schema step. An empty Only applies to every dialect.
type migration struct {
	Version int
	Name    string
	Only    Dialect
	Stmts   []string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "core tables",
		Stmts: []string{
			`CREATE TABLE IF NOT EXISTS profile (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				full_name TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				failed_logins INTEGER NOT NULL DEFAULT 0,
				locked_until TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS profile_permission (
				profile_id TEXT PRIMARY KEY REFERENCES profile(id) ON DELETE CASCADE,
				level INTEGER NOT NULL DEFAULT 2 CHECK (level IN (0, 1, 2)),
				updated_at TEXT NOT NULL,
				updated_by TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS event (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				location TEXT NOT NULL DEFAULT '',
				starts_at TEXT NOT NULL,
				ends_at TEXT NOT NULL,
				created_by TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS attendee (
				id TEXT PRIMARY KEY,
				event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				email TEXT NOT NULL,
				phone TEXT NOT NULL DEFAULT '',
				guests INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				UNIQUE (event_id, email)
			)`,
			`CREATE TABLE IF NOT EXISTS lead (
				id TEXT PRIMARY KEY,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL DEFAULT '',
				decision TEXT NOT NULL,
				notes TEXT NOT NULL DEFAULT '',
				event_id TEXT REFERENCES event(id) ON DELETE SET NULL,
				contacted INTEGER NOT NULL DEFAULT 0,
				contacted_at TEXT,
				assigned_user_id TEXT REFERENCES profile(id) ON DELETE SET NULL,
				assigned_at TEXT,
				created_at TEXT NOT NULL
			)`,
		},
	},
	{
		Version: 2,
		Name:    "list indexes",
		Stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_lead_created ON lead (created_at DESC, id DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_lead_assigned ON lead (assigned_user_id, created_at DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_attendee_event ON attendee (event_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_event_starts ON event (starts_at)`,
		},
	},
	{
		Version: 3,
		Name:    "row change notifications",
		Only:    DialectPostgres,
		Stmts: []string{
			`CREATE OR REPLACE FUNCTION notify_row_change() RETURNS trigger AS $$
			BEGIN
				PERFORM pg_notify('` + NotifyChannel + `', json_build_object(
					'table', TG_TABLE_NAME,
					'op', TG_OP,
					'id', CASE WHEN TG_OP = 'DELETE' THEN OLD.id ELSE NEW.id END
				)::text);
				RETURN NULL;
			END;
			$$ LANGUAGE plpgsql`,
			`DROP TRIGGER IF EXISTS lead_row_change ON lead`,
			`CREATE TRIGGER lead_row_change AFTER INSERT OR UPDATE OR DELETE ON lead
				FOR EACH ROW EXECUTE FUNCTION notify_row_change()`,
			`DROP TRIGGER IF EXISTS attendee_row_change ON attendee`,
			`CREATE TRIGGER attendee_row_change AFTER INSERT OR UPDATE OR DELETE ON attendee
				FOR EACH ROW EXECUTE FUNCTION notify_row_change()`,
			`DROP TRIGGER IF EXISTS event_row_change ON event`,
			`CREATE TRIGGER event_row_change AFTER INSERT OR UPDATE OR DELETE ON event
				FOR EACH ROW EXECUTE FUNCTION notify_row_change()`,
		},
	},
	{
		Version: 4,
		Name:    "lead search text",
		// Rows saved after this migration carry a Unicode-folded copy written by the
		// lead store. The backfill folds with the database's LOWER.
		Stmts: []string{
			`ALTER TABLE lead ADD COLUMN search_text TEXT NOT NULL DEFAULT ''`,
			`UPDATE lead SET search_text = LOWER(first_name || ' ' || last_name || ' ' || email || ' ' || phone)`,
		},
	},
}

// NotifyChannel is the Postgres LISTEN channel the row-change triggers publish on.
const NotifyChannel = "row_changes"

// LatestVersion is the schema version after all migrations.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// MigrateDB applies pending migrations, each in its own transaction.
// PRE: db is an open connection of the given dialect
// POST: schema_version holds one row per applied migration, including
// dialect-only migrations skipped on this dialect
func MigrateDB(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		slog.Info("schema_migrated", "version", m.Version, "name", m.Name, "dialect", string(db.Dialect))
	}
	return nil
}

// SchemaVersion returns the highest applied migration, or 0 for a fresh database.
func SchemaVersion(ctx context.Context, db *DB) (int, error) {
	query, args, err := db.Builder().Select("COALESCE(MAX(version), 0)").From("schema_version").ToSql()
	if err != nil {
		return 0, err
	}
	var v int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return v, nil
}

func applyMigration(ctx context.Context, db *DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if m.Only == "" || m.Only == db.Dialect {
		for _, stmt := range m.Stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
	}

	query, args, err := db.Builder().
		Insert("schema_version").
		Columns("version", "applied_at").
		Values(m.Version, FormatTime(time.Now())).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// Tx runs fn inside a transaction, committing when fn returns nil.
func Tx(ctx context.Context, db *DB, fn func(tx *sql.Tx, b sq.StatementBuilderType) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx, db.Builder()); err != nil {
		return err
	}
	return tx.Commit()
}
