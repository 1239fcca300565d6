// Package storage persists occurrences, delivery flags and per-scope settings
// in SQLite (default) or PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when an occurrence id is unknown.
var ErrNotFound = errors.New("not found")

// Dialect selects SQL driver and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB wraps the connection shared by the occurrence store and the registry.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
}

// ParseDSN detects the dialect from a DSN. postgres:// and postgresql:// URLs
// select PostgreSQL; anything else is a SQLite path, optionally prefixed with
// sqlite://.
func ParseDSN(dsn string) (Dialect, string) {
	dsn = strings.TrimSpace(dsn)
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres, dsn
	}
	return DialectSQLite, strings.TrimPrefix(dsn, "sqlite://")
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*DB, error) {
	dialect, target := ParseDSN(dsn)
	if target == "" {
		return nil, errors.New("database dsn is required")
	}

	var (
		conn *sql.DB
		err  error
	)
	switch dialect {
	case DialectPostgres:
		conn, err = sql.Open("postgres", target)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(5 * time.Minute)
	default:
		if dir := filepath.Dir(target); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		conn, err = sql.Open("sqlite", target+"?_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		// SQLite prefers a single writer.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		_, _ = conn.ExecContext(ctx, "PRAGMA journal_mode = WAL")
		_, _ = conn.ExecContext(ctx, "PRAGMA synchronous = NORMAL")
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := New(conn, dialect)
	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// New wraps an already opened connection without migrating it.
func New(conn *sql.DB, dialect Dialect) *DB {
	var format sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		format = sq.Dollar
	}
	return &DB{
		conn:    conn,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// Dialect reports the active SQL dialect.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Migrate applies every pending up migration for the dialect.
func (d *DB) Migrate() error {
	sub, err := fs.Sub(migrationsFS, "migrations/"+string(d.dialect))
	if err != nil {
		return fmt.Errorf("migration files: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	var m *migrate.Migrate
	switch d.dialect {
	case DialectPostgres:
		driver, err := migratepg.WithInstance(d.conn, &migratepg.Config{})
		if err != nil {
			return fmt.Errorf("create migration db driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "postgres", driver)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
	default:
		driver, err := migratesqlite.WithInstance(d.conn, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("create migration db driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "sqlite", driver)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
	}

	// m.Close would close the shared connection as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

func (d *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
