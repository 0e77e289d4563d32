// Package sqlite implements the metadata repository on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/invoicekit/mediagate"

	_ "modernc.org/sqlite" // SQLite driver
)

// Database provides SQLite database operations.
type Database struct {
	db     *sql.DB
	tables mediagate.Tables
}

// Connect opens a SQLite database. Tables should be validated before calling
// Connect.
func Connect(ctx context.Context, dsn string, tables mediagate.Tables) (*Database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// SQLite serialises writers anyway, and every connection to ":memory:"
	// would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	return &Database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *Database) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.db, d.tables)
}

// DropTables removes the tables created by Migrate.
func (d *Database) DropTables(ctx context.Context) error {
	return DropTables(ctx, d.db, d.tables)
}

// Validate checks that the database schema matches expected structure.
func (d *Database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the MetaDataRepo for database operations.
func (d *Database) GetRepo() mediagate.MetaDataRepo {
	return &Repo{db: d.db, tableName: d.tables.MetaData}
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}
