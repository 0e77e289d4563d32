package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicekit/mediagate"
)

// column is one column of the metadata table. The same list builds the
// CREATE TABLE statement, upgrades older tables and validates the schema.
type column struct {
	name     string
	ddlType  string // type as written in CREATE TABLE
	dataType string // type as information_schema reports it
	nullable bool
	extra    string
}

func (c column) definition() string {
	def := pgx.Identifier{c.name}.Sanitize() + " " + c.ddlType
	if !c.nullable {
		def += " NOT NULL"
	}
	if c.extra != "" {
		def += " " + c.extra
	}
	return def
}

var metaDataColumns = []column{
	{name: "id", ddlType: "UUID", dataType: "uuid", extra: "PRIMARY KEY DEFAULT gen_random_uuid()"},
	{name: "path", ddlType: "TEXT", dataType: "text", extra: "UNIQUE"},
	{name: "content_type", ddlType: "TEXT", dataType: "text"},
	{name: "etag", ddlType: "TEXT", dataType: "text"},
	{name: "file_size_bytes", ddlType: "BIGINT", dataType: "bigint"},
	{name: "original_name", ddlType: "TEXT", dataType: "text", nullable: true},
	{name: "created_at", ddlType: "TIMESTAMPTZ", dataType: "timestamp with time zone", extra: "DEFAULT NOW()"},
	{name: "updated_at", ddlType: "TIMESTAMPTZ", dataType: "timestamp with time zone", extra: "DEFAULT NOW()"},
}

func createTableSQL(table string, columns []column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c.definition()
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", pgx.Identifier{table}.Sanitize(), strings.Join(defs, ",\n\t"))
}

// existingColumns reads the columns of table in the current schema. An
// absent table has none.
func existingColumns(ctx context.Context, pool *pgxpool.Pool, table string) (map[string]column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]column)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", table, err)
		}
		cols[name] = column{name: name, dataType: strings.ToLower(dataType), nullable: nullable == "YES"}
	}

	return cols, rows.Err()
}

func compareColumns(table string, expected []column, actual map[string]column) error {
	if len(actual) == 0 {
		return &mediagate.SchemaError{Table: table, Absent: true}
	}

	schemaErr := &mediagate.SchemaError{Table: table}
	for _, want := range expected {
		got, ok := actual[want.name]
		switch {
		case !ok:
			schemaErr.Missing = append(schemaErr.Missing, want.name)
		case got.dataType != want.dataType:
			schemaErr.Mismatched = append(schemaErr.Mismatched,
				fmt.Sprintf("%s is %s, want %s", want.name, got.dataType, want.dataType))
		case got.nullable != want.nullable:
			schemaErr.Mismatched = append(schemaErr.Mismatched,
				fmt.Sprintf("%s nullable=%v, want %v", want.name, got.nullable, want.nullable))
		}
	}

	if len(schemaErr.Missing) > 0 || len(schemaErr.Mismatched) > 0 {
		return schemaErr
	}
	return nil
}

// ValidateSchema checks the metadata table against the columns the
// migrations create. Failures are *mediagate.SchemaError.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables mediagate.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	actual, err := existingColumns(ctx, pool, tables.MetaData)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	if err := compareColumns(tables.MetaData, metaDataColumns, actual); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}
