package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicekit/mediagate"
)

// Database provides PostgreSQL database operations.
type Database struct {
	pool   *pgxpool.Pool
	tables mediagate.Tables
}

// Connect establishes a connection pool to PostgreSQL.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables mediagate.Tables) (*Database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &Database{
		pool:   pool,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *Database) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.pool, d.tables)
}

// DropTables removes the tables created by Migrate.
func (d *Database) DropTables(ctx context.Context) error {
	return DropTables(ctx, d.pool, d.tables)
}

// Validate checks that the database schema matches expected structure.
func (d *Database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

// GetRepo returns the MetaDataRepo for database operations.
func (d *Database) GetRepo() mediagate.MetaDataRepo {
	return &Repo{pool: d.pool, tableName: d.tables.MetaData}
}

// Close closes the database connection pool.
func (d *Database) Close() error {
	d.pool.Close()
	return nil
}
