package mediagate

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Tables holds configurable table names for the metadata sidecar.
type Tables struct {
	MetaData string `mapstructure:"meta_data" yaml:"meta_data"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.MetaData == "" {
		return errors.New("validate tables: metadata table name cannot be empty")
	}

	if !IsValidTableName(t.MetaData) {
		return fmt.Errorf("validate tables: invalid metadata table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.MetaData)
	}

	return nil
}

// SchemaError reports how an existing metadata table differs from the one
// the migrations create.
type SchemaError struct {
	Table      string
	Absent     bool
	Missing    []string
	Mismatched []string
}

func (e *SchemaError) Error() string {
	if e.Absent {
		return fmt.Sprintf("metadata table %s does not exist (run with migrations enabled)", e.Table)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "metadata table %s does not match the expected schema", e.Table)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing columns: %s", strings.Join(e.Missing, ", "))
		if slices.Contains(e.Missing, "original_name") {
			b.WriteString(" (table predates download names; migrating adds the column)")
		}
	}
	if len(e.Mismatched) > 0 {
		fmt.Fprintf(&b, "; mismatched columns: %s", strings.Join(e.Mismatched, "; "))
	}
	return b.String()
}
