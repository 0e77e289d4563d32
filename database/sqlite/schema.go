package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/invoicekit/mediagate"
)

// column is one column of the metadata table. The same list builds the
// CREATE TABLE statement, upgrades older tables and validates the schema.
type column struct {
	name     string
	typ      string // declared type, as PRAGMA table_info reports it
	nullable bool
	extra    string // constraints appended in CREATE TABLE
}

func (c column) definition() string {
	def := c.name + " " + strings.ToUpper(c.typ)
	if !c.nullable {
		def += " NOT NULL"
	}
	if c.extra != "" {
		def += " " + c.extra
	}
	return def
}

var metaDataColumns = []column{
	{name: "id", typ: "text", extra: "PRIMARY KEY"},
	{name: "path", typ: "text", extra: "UNIQUE"},
	{name: "content_type", typ: "text"},
	{name: "etag", typ: "text"},
	{name: "file_size_bytes", typ: "integer"},
	{name: "original_name", typ: "text", nullable: true},
	{name: "created_at", typ: "text"},
	{name: "updated_at", typ: "text"},
}

func createTableSQL(table string, columns []column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c.definition()
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quoteIdentifier(table), strings.Join(defs, ",\n\t"))
}

// existingColumns reads the columns of table. An absent table has none.
func existingColumns(ctx context.Context, db *sql.DB, table string) (map[string]column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]column)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", table, err)
		}
		// SQLite lets a PRIMARY KEY column hold NULL unless declared NOT NULL;
		// the migration always declares it.
		cols[name] = column{name: name, typ: strings.ToLower(typ), nullable: notNull == 0}
	}

	return cols, rows.Err()
}

// compareColumns returns nil when actual holds every expected column with
// the expected type and nullability.
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
		case got.typ != want.typ:
			schemaErr.Mismatched = append(schemaErr.Mismatched,
				fmt.Sprintf("%s is %s, want %s", want.name, got.typ, want.typ))
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
func ValidateSchema(ctx context.Context, db *sql.DB, tables mediagate.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	actual, err := existingColumns(ctx, db, tables.MetaData)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	if err := compareColumns(tables.MetaData, metaDataColumns, actual); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}
