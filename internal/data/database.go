// Package data owns the portal's local state database. Articles live behind
// the REST API; this database only holds admin sessions and authorization
// policies.
package data

import (
	"embed"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

//go:embed migrations
var migrationsFS embed.FS

// NewDB creates a new database connection pool for driver ("sqlite3" or "mysql").
func NewDB(driver, dsn string) (*sqlx.DB, error) {
	if driver != DriverSQLite && driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	// sqlx.Connect opens a connection and pings it to verify it's alive.
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer; serialize through one connection.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// ApplyMigrations runs all up migrations for the database's driver.
func ApplyMigrations(db *sqlx.DB) error {
	driver := db.DriverName()

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("failed to open %s migrations: %w", driver, err)
	}

	var target database.Driver
	switch driver {
	case DriverSQLite:
		target, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	case DriverMySQL:
		target, err = mysql.WithInstance(db.DB, &mysql.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Up applies all available up migrations.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
