// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlite "github.com/mattn/go-sqlite3"

	"github.com/codr1/courtbook/internal/config"
	dbgen "github.com/codr1/courtbook/internal/db/generated"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// TimeLayout is the fixed-width UTC layout every timestamp column is stored in.
// Lexical order of stored values equals chronological order.
const TimeLayout = "2006-01-02T15:04:05Z"

// Trigger messages raised by the schema.
const (
	overlapViolation     = "booking_overlap"
	resurrectViolation   = "booking_cancelled"
	defaultBusyTimeoutMS = 5000
)

type DB struct {
	*sql.DB
	Queries *dbgen.Queries
}

// New opens a SQLite database for the given data source name, adds the
// connection parameters the engine relies on (foreign keys, immediate
// transactions, busy timeout), applies embedded migrations, and returns a DB
// with generated queries bound to the connection.
func New(dataSourceName string) (*DB, error) {
	return open(dataSourceName, defaultBusyTimeoutMS)
}

// NewFromConfig creates a DB from cfg. Only the "sqlite" driver is supported;
// the database directory is created if needed.
func NewFromConfig(cfg *config.Config) (*DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Filename), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
		return open(cfg.Database.Filename, cfg.Database.BusyTimeoutMS)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// OpenWithoutMigrations opens the database with the engine's DSN parameters
// but leaves the schema untouched. Used by the admin CLI, which drives
// migrations itself.
func OpenWithoutMigrations(dataSourceName string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite3", withConnParams(dataSourceName, defaultBusyTimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return sqlDB, nil
}

func open(dataSourceName string, busyTimeoutMS int) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", withConnParams(dataSourceName, busyTimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := runMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	return &DB{
		DB:      sqlDB,
		Queries: dbgen.New(sqlDB),
	}, nil
}

// withConnParams adds _fk=1, _txlock=immediate and _busy_timeout to the DSN
// unless the caller already set them. Immediate transactions take the write
// lock at BEGIN, so check-then-write sequences inside RunInTx serialize.
func withConnParams(dataSourceName string, busyTimeoutMS int) string {
	if busyTimeoutMS <= 0 {
		busyTimeoutMS = defaultBusyTimeoutMS
	}
	params := []struct{ key, value string }{
		{"_fk", "1"},
		{"_txlock", "immediate"},
		{"_busy_timeout", fmt.Sprint(busyTimeoutMS)},
	}
	for _, p := range params {
		if strings.Contains(dataSourceName, p.key+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dataSourceName, "?") {
			sep = "&"
		}
		dataSourceName += sep + p.key + "=" + p.value
	}
	return dataSourceName
}

// NewMigrate builds a migrate instance over the embedded migrations.
func NewMigrate(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not create source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}

// runMigrations applies the embedded SQL migrations. A "no change" result is
// not an error.
func runMigrations(db *sql.DB) error {
	m, err := NewMigrate(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// WithTx creates a new DB instance with the given transaction
func (db *DB) WithTx(tx *sql.Tx) *DB {
	return &DB{
		DB:      db.DB,
		Queries: dbgen.New(tx),
	}
}

// BeginTx starts a transaction
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	return tx, nil
}

// RunInTx runs the given function in a transaction
func (db *DB) RunInTx(ctx context.Context, fn func(*DB) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	txDB := db.WithTx(tx)
	if err := fn(txDB); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("error rolling back: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing: %w", err)
	}

	return nil
}

// FormatTime renders t in the storage layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp.
func ParseTime(value string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", value, err)
	}
	return t, nil
}

// NullTime wraps FormatTime for nullable columns.
func NullTime(t time.Time) sql.NullString {
	return sql.NullString{String: FormatTime(t), Valid: true}
}

// IsBusy reports whether err is SQLite lock contention that outlived the busy
// timeout.
func IsBusy(err error) bool {
	var sqliteErr sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite.ErrBusy || sqliteErr.Code == sqlite.ErrLocked
}

// IsOverlapViolation reports whether err was raised by the booking overlap
// trigger.
func IsOverlapViolation(err error) bool {
	return isTriggerAbort(err, overlapViolation)
}

// IsResurrectViolation reports whether err was raised by the trigger that
// keeps cancelled bookings cancelled.
func IsResurrectViolation(err error) bool {
	return isTriggerAbort(err, resurrectViolation)
}

func isTriggerAbort(err error, message string) bool {
	var sqliteErr sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code != sqlite.ErrConstraint {
		return false
	}
	return strings.Contains(sqliteErr.Error(), message)
}
