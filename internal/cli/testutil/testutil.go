// Package testutil provides fixtures and assertions for command tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/dbexplorer/internal/adapter"
	"github.com/leapstack-labs/dbexplorer/internal/cli/config"
	"github.com/spf13/cobra"
)

// ShopReport is a small report with three tables: customers, orders and an
// empty audit_log.
const ShopReport = `{
  "database": "shop",
  "scheme": "main",
  "tables": [
    {"name": "customers", "records": 3, "columns": [
      {"type": "numeric", "data": [
        {"key": "Name", "value": "id"}, {"key": "SQL Type", "value": "INTEGER"},
        {"key": "Minimum", "value": "1.000"}, {"key": "Maximum", "value": "3.000"}, {"key": "Mean", "value": "2.000"}]},
      {"type": "character", "data": [
        {"key": "Name", "value": "email"}, {"key": "SQL Type", "value": "TEXT"},
        {"key": "The most common", "value": ["a@example.com", "b@example.com"]},
        {"key": "Counts of the most common values", "value": [2, 1]}]}
    ]},
    {"name": "orders", "records": 4, "columns": [
      {"type": "numeric", "data": [
        {"key": "Name", "value": "customer_id"}, {"key": "SQL Type", "value": "INTEGER"}]},
      {"type": "character", "data": [
        {"key": "Name", "value": "status"}, {"key": "SQL Type", "value": "TEXT"},
        {"key": "The most common", "value": ["shipped", "new"]},
        {"key": "Counts of the most common values", "value": [3, 1]}]},
      {"type": "datetime", "data": [
        {"key": "Name", "value": "created_at"}, {"key": "SQL Type", "value": "TIMESTAMP"},
        {"key": "Minimum", "value": "2024-01-01 10:00:00"}, {"key": "Maximum", "value": "2024-03-01 09:30:00"}]}
    ]},
    {"name": "audit_log", "records": 0, "columns": [
      {"type": "other", "data": [
        {"key": "Name", "value": "payload"}, {"key": "SQL Type", "value": "BLOB"}, {"key": "Distinct", "value": 0}]}
    ]}
  ]
}`

// SetupTestProject creates a temporary directory holding shop.json, makes it
// the working directory and resets the loaded configuration. It returns the
// directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "shop.json"), []byte(ShopReport), 0644); err != nil { //nolint:gosec // G306: test fixture
		t.Fatalf("failed to create shop.json: %v", err)
	}

	t.Chdir(tmpDir)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	return tmpDir
}

// CreateShopDB creates a SQLite database with a customers and an orders
// table in dir and returns its path.
func CreateShopDB(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "shop.db")
	ctx := context.Background()
	db, err := adapter.NewAdapter(adapter.Config{Type: "sqlite", Path: path}, nil)
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	if err := db.Connect(ctx, adapter.Config{Type: "sqlite", Path: path}); err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer func() { _ = db.Close() }()

	stmts := []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, email TEXT NOT NULL)`,
		`INSERT INTO customers VALUES (1, 'a@example.com'), (2, 'b@example.com'), (3, 'a@example.com')`,
		`CREATE TABLE orders (id INTEGER, customer_id INTEGER, status TEXT, amount REAL, created_at TIMESTAMP)`,
		`INSERT INTO orders VALUES
			(1, 1, 'new', 10.5, '2024-01-01 10:00:00'),
			(2, 1, 'shipped', 20, '2024-02-01 11:00:00'),
			(3, 2, 'shipped', 30, '2024-03-01 09:30:00')`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(ctx, stmt); err != nil {
			t.Fatalf("failed to run %q: %v", stmt, err)
		}
	}
	return path
}

// ExecuteCommand runs cmd with args and returns what it wrote to stdout and
// stderr.
func ExecuteCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and headers without text.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
