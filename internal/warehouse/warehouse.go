package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Store is the relational warehouse: companies, locations, skills, jobs and
// job_skills, plus trending snapshots and ingestion checkpoints.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open connects to the warehouse. driver is "sqlite" (modernc, pure Go) or
// "postgres" (pgx). The schema is not created; call Migrate.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var d dialect
	switch driver {
	case "sqlite":
		d = sqliteDialect
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	case "postgres":
		d = postgresDialect
	default:
		return nil, fmt.Errorf("unsupported warehouse driver %q", driver)
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s warehouse: %w", driver, err)
	}

	if d.name == "sqlite" {
		// One writer; keeps transactions and pragmas on a single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s warehouse: %w", driver, err)
	}

	if d.name == "sqlite" {
		for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}

	return &Store{db: db, dialect: d, now: time.Now}, nil
}

func ensureSQLiteDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating warehouse dir: %w", err)
		}
	}
	return nil
}

// Migrate creates any missing tables and indexes. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating warehouse: %w", err)
		}
	}
	return nil
}

// Driver returns the dialect name.
func (s *Store) Driver() string { return s.dialect.name }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q execer, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, q execer, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.dialect.rebind(query), args...)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// JobCounts returns the number of loaded jobs per source.
func (s *Store) JobCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.query(ctx, s.db, `SELECT source, COUNT(*) FROM jobs GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scanning job count: %w", err)
		}
		out[source] = n
	}
	return out, rows.Err()
}
