// Package adapter provides the database adapters the report extractor reads
// schema metadata and statistics through.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/dbexplorer/internal/report"
)

// Config holds the configuration for connecting to a database.
type Config struct {
	// Type specifies the database type (e.g., "duckdb", "sqlite")
	Type string

	// Path is the database file. Use ":memory:" for an in-memory database.
	Path string

	// Schema restricts extraction to one schema. Empty uses the adapter default.
	Schema string

	// Options contains additional driver-specific options
	Options map[string]string
}

// Column describes a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is implemented by every supported database.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// QueryRow executes a statement returning one row and scans it into dest.
	QueryRow(ctx context.Context, sql string, args []any, dest ...any) error

	// ListTables returns the base tables of schema in name order.
	ListTables(ctx context.Context, schema string) ([]string, error)

	// ListColumns returns the columns of a table in ordinal order.
	ListColumns(ctx context.Context, schema, table string) ([]Column, error)

	// QualifiedName quotes schema and table for use in a FROM clause.
	QualifiedName(schema, table string) string

	// ClassifyType maps a declared SQL type to a column group.
	ClassifyType(sqlType string) report.ColumnGroup

	// DefaultSchema is used when Config.Schema is empty.
	DefaultSchema() string

	// DatabaseName is the name recorded in the report.
	DatabaseName() string

	// DialectName returns the adapter's registry name.
	DialectName() string
}
