package database

import (
	"context"
	"fmt"

	"github.com/invoicekit/mediagate"
	"github.com/invoicekit/mediagate/database/postgres"
	"github.com/invoicekit/mediagate/database/sqlite"
)

// Database is a metadata backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() mediagate.MetaDataRepo
	Close() error
}

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" yaml:"type"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" yaml:"dsn"`
	// Tables holds the table names
	Tables mediagate.Tables `mapstructure:"tables" yaml:"tables"`
}

// Connect opens the configured backend. It does not migrate or validate;
// callers decide which of the two to run.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("connect: unsupported database type: %q", cfg.Type)
	}
}

// Open connects, migrates and validates the schema in one step, returning
// a ready repository and a cleanup function closing the connection.
func Open(ctx context.Context, cfg Config) (mediagate.MetaDataRepo, func(), error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() { _ = db.Close() }

	if err := db.Ping(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err := db.Migrate(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err := db.Validate(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	return db.GetRepo(), cleanup, nil
}
