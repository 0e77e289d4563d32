package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicekit/mediagate"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
}

func getTableMigrations(tables mediagate.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.MetaData,
			Up:        createTable(tables.MetaData, metaDataColumns),
			Down:      dropTable(tables.MetaData),
		},
	}
}

// Migrate creates the metadata table, or adds the nullable columns an older
// table lacks.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables mediagate.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

// DropTables drops the metadata tables in reverse creation order.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables mediagate.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createTable(table string, columns []column) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		if _, err := pool.Exec(ctx, createTableSQL(table, columns)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		for _, c := range columns {
			if !c.nullable {
				continue
			}
			alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s", pgx.Identifier{table}.Sanitize(), c.definition())
			if _, err := pool.Exec(ctx, alter); err != nil {
				return fmt.Errorf("add column %s: %w", c.name, err)
			}
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tableName}.Sanitize())
		_, err := pool.Exec(ctx, sql)
		return err
	}
}
