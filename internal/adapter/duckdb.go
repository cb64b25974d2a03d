package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/dbexplorer/internal/report"
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", func(logger *slog.Logger) Adapter { return NewDuckDBAdapter(logger) })
}

// DuckDBAdapter reads DuckDB database files.
type DuckDBAdapter struct {
	BaseSQLAdapter
}

// NewDuckDBAdapter creates a new DuckDB adapter instance.
func NewDuckDBAdapter(logger *slog.Logger) *DuckDBAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDBAdapter{BaseSQLAdapter{Logger: logger}}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *DuckDBAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	dsn := path
	if cfg.Options["read_only"] == "true" && path != ":memory:" {
		dsn += "?access_mode=read_only"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.Logger.Debug("connected", "adapter", "duckdb", "path", path)
	return nil
}

// DialectName returns "duckdb".
func (a *DuckDBAdapter) DialectName() string { return "duckdb" }

// DefaultSchema returns "main".
func (a *DuckDBAdapter) DefaultSchema() string { return "main" }

// ListTables returns the base tables of schema.
func (a *DuckDBAdapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	rows, err := a.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return scanNames(rows.Rows)
}

// ListColumns returns the columns of schema.table.
func (a *DuckDBAdapter) ListColumns(ctx context.Context, schema, table string) ([]Column, error) {
	rows, err := a.Query(ctx, `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	columns, err := scanColumns(rows.Rows, func(v any) bool { return fmt.Sprint(v) == "YES" })
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schema, table)
	}
	return columns, nil
}

var duckdbGroups = map[string]report.ColumnGroup{
	"TINYINT": report.GroupNumeric, "SMALLINT": report.GroupNumeric,
	"INTEGER": report.GroupNumeric, "BIGINT": report.GroupNumeric,
	"HUGEINT": report.GroupNumeric, "UTINYINT": report.GroupNumeric,
	"USMALLINT": report.GroupNumeric, "UINTEGER": report.GroupNumeric,
	"UBIGINT": report.GroupNumeric, "UHUGEINT": report.GroupNumeric,
	"FLOAT": report.GroupNumeric, "REAL": report.GroupNumeric,
	"DOUBLE": report.GroupNumeric, "DECIMAL": report.GroupNumeric,
	"NUMERIC": report.GroupNumeric,

	"VARCHAR": report.GroupCharacter, "TEXT": report.GroupCharacter,
	"STRING": report.GroupCharacter, "CHAR": report.GroupCharacter,
	"BPCHAR": report.GroupCharacter, "BOOLEAN": report.GroupCharacter,

	"DATE": report.GroupDatetime, "TIME": report.GroupDatetime,
	"TIMESTAMP": report.GroupDatetime, "TIMESTAMPTZ": report.GroupDatetime,
	"TIMESTAMP WITH TIME ZONE": report.GroupDatetime, "TIMESTAMP_S": report.GroupDatetime,
	"TIMESTAMP_MS": report.GroupDatetime, "TIMESTAMP_NS": report.GroupDatetime,
	"TIME WITH TIME ZONE": report.GroupDatetime,
}

// ClassifyType maps a DuckDB data type to a column group. Lists, structs,
// blobs and intervals are other.
func (a *DuckDBAdapter) ClassifyType(sqlType string) report.ColumnGroup {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if g, ok := duckdbGroups[t]; ok {
		return g
	}
	return report.GroupOther
}
