package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/invoicekit/mediagate"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
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
func Migrate(ctx context.Context, db *sql.DB, tables mediagate.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

// DropTables drops the metadata tables in reverse creation order.
func DropTables(ctx context.Context, db *sql.DB, tables mediagate.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createTable(table string, columns []column) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		if _, err := db.ExecContext(ctx, createTableSQL(table, columns)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		actual, err := existingColumns(ctx, db, table)
		if err != nil {
			return err
		}

		for _, c := range columns {
			if _, ok := actual[c.name]; ok || !c.nullable {
				continue
			}
			alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdentifier(table), c.definition())
			if _, err := db.ExecContext(ctx, alter); err != nil {
				return fmt.Errorf("add column %s: %w", c.name, err)
			}
			slog.Info("added column to metadata table", "table", table, "column", c.name)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
