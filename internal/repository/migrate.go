package repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"auctions/utils"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the schema up to the latest embedded version
func Migrate(db *sql.DB) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("repository: open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("repository: create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("repository: create migrator: %w", err)
	}
	// releases the migration connection; db itself stays open
	defer func() { _, _ = m.Close() }()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		utils.Info("database schema is up to date", nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("repository: apply migrations: %w", err)
	}

	version, _, _ := m.Version()
	utils.Info("database migrations applied", map[string]any{"version": version})
	return nil
}
