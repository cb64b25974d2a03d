package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/dbexplorer/internal/report"
	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	Register("sqlite", func(logger *slog.Logger) Adapter { return NewSQLiteAdapter(logger) })
}

// SQLiteAdapter reads SQLite database files.
type SQLiteAdapter struct {
	BaseSQLAdapter
}

// NewSQLiteAdapter creates a new SQLite adapter instance.
func NewSQLiteAdapter(logger *slog.Logger) *SQLiteAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteAdapter{BaseSQLAdapter{Logger: logger}}
}

// Connect opens the database file. A plain ":memory:" database is private to
// one connection, so the pool is limited to a single connection.
func (a *SQLiteAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	dsn := path
	if cfg.Options["read_only"] == "true" && path != ":memory:" && !strings.Contains(path, "?") {
		dsn = "file:" + strings.TrimPrefix(path, "file:") + "?mode=ro"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.Logger.Debug("connected", "adapter", "sqlite", "path", path)
	return nil
}

// DialectName returns "sqlite".
func (a *SQLiteAdapter) DialectName() string { return "sqlite" }

// DefaultSchema returns "main".
func (a *SQLiteAdapter) DefaultSchema() string { return "main" }

// ListTables returns the tables of an attached schema, skipping internal ones.
func (a *SQLiteAdapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	//nolint:gosec // G201: schema is quoted
	query := fmt.Sprintf(`
		SELECT name
		FROM %s.sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite\_%%' ESCAPE '\'
		ORDER BY name
	`, QuoteIdent(schema))
	rows, err := a.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return scanNames(rows.Rows)
}

// ListColumns returns the columns of schema.table from pragma_table_info.
func (a *SQLiteAdapter) ListColumns(ctx context.Context, schema, table string) ([]Column, error) {
	rows, err := a.Query(ctx, `
		SELECT name, type, "notnull", cid + 1
		FROM pragma_table_info(?, ?)
		ORDER BY cid
	`, table, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	columns, err := scanColumns(rows.Rows, func(v any) bool {
		n, ok := v.(int64)
		return ok && n == 0
	})
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schema, table)
	}
	return columns, nil
}

// ClassifyType follows SQLite's type affinity rules, with date and time
// names checked first.
func (a *SQLiteAdapter) ClassifyType(sqlType string) report.ColumnGroup {
	t := strings.ToUpper(sqlType)
	switch {
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return report.GroupDatetime
	case strings.Contains(t, "INT"):
		return report.GroupNumeric
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"),
		strings.Contains(t, "TEXT"), strings.Contains(t, "BOOL"):
		return report.GroupCharacter
	case strings.TrimSpace(t) == "", strings.Contains(t, "BLOB"):
		return report.GroupOther
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"),
		strings.Contains(t, "DOUB"), strings.Contains(t, "NUM"),
		strings.Contains(t, "DEC"):
		return report.GroupNumeric
	default:
		return report.GroupOther
	}
}
