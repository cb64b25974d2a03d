package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/dbexplorer/internal/adapter"
	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/leapstack-labs/dbexplorer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShopDB(t *testing.T) adapter.Adapter {
	t.Helper()
	ctx := context.Background()

	a, err := adapter.NewAdapter(adapter.Config{Type: "sqlite"}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, a.Connect(ctx, adapter.Config{Type: "sqlite", Path: filepath.Join(t.TempDir(), "shop.db")}))
	t.Cleanup(func() { _ = a.Close() })

	stmts := []string{
		`CREATE TABLE orders (
			id INTEGER NOT NULL,
			status TEXT,
			amount REAL,
			created DATETIME,
			note TEXT,
			payload BLOB
		)`,
		`INSERT INTO orders VALUES
			(1, 'new', 10.0, '2024-01-01 10:00:00', 'short', NULL),
			(2, 'new', 20.0, '2024-01-02 10:00:00', '` + strings.Repeat("x", 40) + `', NULL),
			(3, 'shipped', NULL, '2024-01-03 10:00:00', NULL, NULL),
			(4, 'new', 40.0, NULL, 'x', NULL)`,
		`CREATE TABLE empty_table (id INTEGER, name TEXT)`,
	}
	for _, s := range stmts {
		require.NoError(t, a.Exec(ctx, s))
	}
	return a
}

func factValues(t *testing.T, c *report.Column) map[string]report.Value {
	t.Helper()
	out := make(map[string]report.Value, len(c.Data))
	for _, f := range c.Data {
		out[f.Key] = f.Value
	}
	return out
}

func columnByName(t *testing.T, tbl *report.Table, name string) *report.Column {
	t.Helper()
	for _, c := range tbl.Columns {
		if n, err := c.Name(); err == nil && n == name {
			return c
		}
	}
	t.Fatalf("column %s not found in %s", name, tbl.Name)
	return nil
}

func TestExtract_Basic(t *testing.T) {
	a := newShopDB(t)

	doc, err := New(a, Options{MaxTextLength: 10, Workers: 2}, testutil.NewTestLogger(t)).Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "shop", doc.Database)
	assert.Equal(t, "main", doc.Schema)
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "empty_table", doc.Tables[0].Name)
	assert.Equal(t, int64(0), doc.Tables[0].Records)
	for _, c := range doc.Tables[0].Columns {
		assert.Equal(t, []string{report.FactName, report.FactSQLType}, c.Keys())
	}

	orders := doc.Tables[1]
	assert.Equal(t, int64(4), orders.Records)
	require.Len(t, orders.Columns, 6)

	id := columnByName(t, orders, "id")
	assert.Equal(t, "numeric", id.Type)
	assert.Equal(t, []string{report.FactName, report.FactSQLType, report.FactMinimum, report.FactMaximum, report.FactMean}, id.Keys())
	vals := factValues(t, id)
	assert.Equal(t, "1.000", vals[report.FactMinimum].Text())
	assert.Equal(t, "4.000", vals[report.FactMaximum].Text())
	assert.Equal(t, "2.500", vals[report.FactMean].Text())

	amount := factValues(t, columnByName(t, orders, "amount"))
	assert.Equal(t, "23.333", amount[report.FactMean].Text())

	status := columnByName(t, orders, "status")
	assert.Equal(t, "character", status.Type)
	vals = factValues(t, status)
	assert.True(t, vals[report.FactMostCommon].Equal(report.List(report.String("new"), report.String("shipped"))))
	assert.True(t, vals[report.FactCounts].Equal(report.List(report.Int(3), report.Int(1))))

	created := columnByName(t, orders, "created")
	assert.Equal(t, "datetime", created.Type)
	vals = factValues(t, created)
	assert.Equal(t, "2024-01-01 10:00:00", vals[report.FactMinimum].Text())
	assert.Equal(t, "2024-01-03 10:00:00", vals[report.FactMaximum].Text())

	note := factValues(t, columnByName(t, orders, "note"))
	assert.True(t, note[report.FactMostCommon].Equal(report.List(report.String(report.TextTooLongNote))))
	assert.True(t, note[report.FactCounts].Equal(report.List()))

	payload := columnByName(t, orders, "payload")
	assert.Equal(t, "other", payload.Type)
	assert.Equal(t, []string{report.FactName, report.FactSQLType}, payload.Keys())
}

func TestExtract_Extended(t *testing.T) {
	a := newShopDB(t)

	doc, err := New(a, Options{Extended: true, MaxTextLength: 10}, nil).Extract(context.Background())
	require.NoError(t, err)
	orders := doc.Tables[1]

	id := columnByName(t, orders, "id")
	assert.Equal(t, []string{
		report.FactName, report.FactSQLType,
		report.FactMinimum, report.FactMaximum, report.FactMean,
		report.FactNullable, report.FactEmpty, report.FactDistinct,
		report.FactQuantile25, report.FactQuantile50, report.FactQuantile75,
	}, id.Keys())
	vals := factValues(t, id)
	assert.Equal(t, "NO", vals[report.FactNullable].Text())
	assert.Equal(t, "0.00 %", vals[report.FactEmpty].Text())
	assert.Equal(t, "4", vals[report.FactDistinct].Text())
	assert.Equal(t, "1.750", vals[report.FactQuantile25].Text())
	assert.Equal(t, "2.500", vals[report.FactQuantile50].Text())
	assert.Equal(t, "3.250", vals[report.FactQuantile75].Text())

	amount := factValues(t, columnByName(t, orders, "amount"))
	assert.Equal(t, "YES", amount[report.FactNullable].Text())
	assert.Equal(t, "25.00 %", amount[report.FactEmpty].Text())
	assert.Equal(t, "15.000", amount[report.FactQuantile25].Text())
	assert.Equal(t, "20.000", amount[report.FactQuantile50].Text())
	assert.Equal(t, "30.000", amount[report.FactQuantile75].Text())

	// Too long text has no distinct count; the loaded document reads it as "".
	note := factValues(t, columnByName(t, orders, "note"))
	assert.True(t, note[report.FactDistinct].Equal(report.String("")))

	payload := factValues(t, columnByName(t, orders, "payload"))
	assert.Equal(t, "100.00 %", payload[report.FactEmpty].Text())
	assert.Equal(t, "1", payload[report.FactDistinct].Text())

	status := factValues(t, columnByName(t, orders, "status"))
	assert.Equal(t, "2", status[report.FactDistinct].Text())
}

func TestExtract_DuckDB(t *testing.T) {
	ctx := context.Background()
	a, err := adapter.NewAdapter(adapter.Config{Type: "duckdb"}, nil)
	require.NoError(t, err)
	require.NoError(t, a.Connect(ctx, adapter.Config{Path: ":memory:"}))
	defer func() { _ = a.Close() }()

	require.NoError(t, a.Exec(ctx, `CREATE TABLE events (id INTEGER, kind VARCHAR, at DATE, price DECIMAL(10,2))`))
	require.NoError(t, a.Exec(ctx, `INSERT INTO events VALUES
		(1, 'click', DATE '2024-03-01', 1.50),
		(2, 'view', DATE '2024-03-05', 2.50),
		(3, 'click', DATE '2024-03-02', NULL)`))

	doc, err := New(a, Options{Extended: true}, nil).Extract(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", doc.Database)
	require.Len(t, doc.Tables, 1)

	events := doc.Tables[0]
	at := factValues(t, columnByName(t, events, "at"))
	assert.Equal(t, "2024-03-01", at[report.FactMinimum].Text())
	assert.Equal(t, "2024-03-05", at[report.FactMaximum].Text())

	price := factValues(t, columnByName(t, events, "price"))
	assert.Equal(t, "2.000", price[report.FactMean].Text())
	assert.Equal(t, "33.33 %", price[report.FactEmpty].Text())

	kind := factValues(t, columnByName(t, events, "kind"))
	assert.True(t, kind[report.FactMostCommon].Equal(report.List(report.String("click"), report.String("view"))))
}

func TestExtract_SkipsFailingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`FROM "main"\.sqlite_master`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("broken").AddRow("fine"))
	mock.ExpectQuery(`FROM pragma_table_info`).WithArgs("broken", "main").
		WillReturnRows(sqlmock.NewRows([]string{"name", "type", "notnull", "cid"}).AddRow("id", "INTEGER", int64(0), 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "main"\."broken"`).
		WillReturnError(assert.AnError)
	mock.ExpectQuery(`FROM pragma_table_info`).WithArgs("fine", "main").
		WillReturnRows(sqlmock.NewRows([]string{"name", "type", "notnull", "cid"}).AddRow("id", "INTEGER", int64(1), 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "main"\."fine"`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(0)))

	a := adapter.NewSQLiteAdapter(nil)
	a.DB = db
	logger, rec := testutil.NewRecorder()

	doc, err := New(a, Options{Workers: 1}, logger).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	assert.Equal(t, "fine", doc.Tables[0].Name)

	warnings := rec.Find(slog.LevelWarn, "failed to extract table")
	require.Len(t, warnings, 1)
	assert.Equal(t, "broken", warnings[0].Attrs["table"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtract_ListTablesFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	mock.ExpectQuery(`sqlite_master`).WillReturnError(assert.AnError)

	a := adapter.NewSQLiteAdapter(nil)
	a.DB = db

	_, err = New(a, Options{}, nil).Extract(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestExtract_Cancelled(t *testing.T) {
	a := newShopDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(a, Options{}, nil).Extract(ctx)
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	e := New(nil, Options{}, nil)
	assert.Equal(t, DefaultOptions().Top, e.opts.Top)
	assert.Equal(t, 100, e.opts.MaxTextLength)
	assert.Equal(t, 4, e.opts.Workers)
	assert.NotNil(t, e.logger)
}

func TestValueOf(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	tests := []struct {
		name    string
		in      any
		sqlType string
		want    report.Value
	}{
		{"nil", nil, "TEXT", report.Null()},
		{"string", "a", "TEXT", report.String("a")},
		{"bytes", []byte("b"), "TEXT", report.String("b")},
		{"bool", true, "BOOLEAN", report.Bool(true)},
		{"int", int32(7), "INTEGER", report.Int(7)},
		{"float", 1.23456, "REAL", report.String("1.235")},
		{"timestamp", ts, "TIMESTAMP", report.String("2024-05-06 07:08:09")},
		{"date", ts, "DATE", report.String("2024-05-06")},
		{"time", ts, "TIME", report.String("07:08:09")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := valueOf(tt.in, tt.sqlType)
			assert.True(t, tt.want.Equal(got), "got %s", got.Text())
		})
	}
}
