package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrateRunner is the slice of *migrate.Migrate the bot needs. The bot
// only ever migrates forward on startup; rollbacks are an operator task
// run with the migrate CLI.
type migrateRunner interface {
	Up() error
	Close() (source error, database error)
}

var newMigrate = func(sourceURL, dsn string) (migrateRunner, error) {
	return migrate.New(sourceURL, dsn)
}

// Migrator applies the bot's schema migrations (points, challenges,
// battles, flags) from a directory of SQL files.
type Migrator struct {
	m migrateRunner
}

func NewMigrator(dsn, migrationsPath string) (*Migrator, error) {
	m, err := newMigrate(fmt.Sprintf("file://%s", migrationsPath), dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}

	return &Migrator{m: m}, nil
}

// Up brings the schema to the latest version. An already current schema
// is not an error.
func (m *Migrator) Up() error {
	err := m.m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
