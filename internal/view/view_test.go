package view

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/leapstack-labs/dbexplorer/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fact(key string, v report.Value) report.Fact { return report.Fact{Key: key, Value: v} }

func column(typ, name string, facts ...report.Fact) *report.Column {
	all := append([]report.Fact{fact(report.FactName, report.String(name)), fact(report.FactSQLType, report.String(typ))}, facts...)
	return report.NewColumn(typ, all...)
}

func usersTable() *report.Table {
	return &report.Table{Name: "users", Records: 42, Columns: []*report.Column{
		column("datetime", "created_at"),
		column("numeric", "id", fact(report.FactMinimum, report.Int(1))),
		column("character", "login",
			fact(report.FactMostCommon, report.List(report.String("admin"), report.Null(), report.String("bob"))),
			fact(report.FactEmpty, report.String("75.00 %"))),
		column("geometry", "shape"),
		column("numeric", "user_score", fact(report.FactMinimum, report.Null())),
	}}
}

func TestRender_Empty(t *testing.T) {
	tree, err := Render(nil, Options{})
	require.NoError(t, err)

	assert.True(t, tree.Empty())
	assert.Equal(t, NoMatchesText, tree.Placeholder)
	assert.Empty(t, tree.Cards)
}

func TestRender_Card(t *testing.T) {
	tree, err := Render([]*report.Table{usersTable()}, Options{Kind: search.KindTable})
	require.NoError(t, err)
	require.Len(t, tree.Cards, 1)

	card := tree.Cards[0]
	assert.Equal(t, "users (columns: 5, records: 42)", card.Title())
	assert.True(t, card.Collapsed)
	assert.Equal(t, CardID("users"), card.ID)

	var titles []string
	for _, g := range card.Groups {
		titles = append(titles, g.Title)
	}
	assert.Equal(t, []string{"Numeric columns", "Character columns", "Datetime columns", "Other columns"}, titles)

	numeric := card.Groups[0]
	assert.Equal(t, []string{report.FactName, report.FactSQLType, report.FactMinimum}, numeric.Header)
	require.Len(t, numeric.Rows, 2)
	assert.Equal(t, "id", numeric.Rows[0].Column)
	assert.Equal(t, []string{"null"}, numeric.Rows[1].Cells[2].Lines)

	login := card.Groups[1].Rows[0]
	assert.Equal(t, []string{"admin", "null", "bob"}, login.Cells[2].Lines)
	assert.Equal(t, ClassBad, login.Cells[3].Class)
	assert.Equal(t, ClassNone, login.Cells[0].Class)
}

func TestRender_OmitsEmptyGroups(t *testing.T) {
	table := &report.Table{Name: "t", Records: 1, Columns: []*report.Column{
		column("character", "a"),
		column("character", "b"),
	}}
	tree, err := Render([]*report.Table{table}, Options{})
	require.NoError(t, err)

	require.Len(t, tree.Cards[0].Groups, 1)
	assert.Equal(t, report.GroupCharacter, tree.Cards[0].Groups[0].Kind)
	assert.Len(t, tree.Cards[0].Groups[0].Rows, 2)
}

func TestRender_MatchOnly(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantRows []string
	}{
		{
			name:     "match only with column kind",
			opts:     Options{Kind: search.KindColumn, Query: "ID", MatchOnly: true},
			wantRows: []string{"id"},
		},
		{
			name:     "toggle ignored for other kinds",
			opts:     Options{Kind: search.KindTable, Query: "id", MatchOnly: true},
			wantRows: []string{"id", "user_score"},
		},
		{
			name:     "toggle off shows all",
			opts:     Options{Kind: search.KindColumn, Query: "id"},
			wantRows: []string{"id", "user_score"},
		},
		{
			name:     "empty query shows all",
			opts:     Options{Kind: search.KindColumn, Query: "", MatchOnly: true},
			wantRows: []string{"id", "user_score"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Render([]*report.Table{usersTable()}, tt.opts)
			require.NoError(t, err)

			numeric := tree.Cards[0].Groups[0]
			var rows []string
			for _, r := range numeric.Rows {
				rows = append(rows, r.Column)
			}
			assert.Equal(t, tt.wantRows, rows)
			// Header still comes from the first column of the group.
			assert.Equal(t, report.FactMinimum, numeric.Header[2])
		})
	}
}

func TestRender_MatchOnlyDropsHiddenGroups(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantGroups []report.ColumnGroup
	}{
		{
			name:       "single character column matches",
			opts:       Options{Kind: search.KindColumn, Query: "login", MatchOnly: true},
			wantGroups: []report.ColumnGroup{report.GroupCharacter},
		},
		{
			name:       "matches across two groups",
			opts:       Options{Kind: search.KindColumn, Query: "_", MatchOnly: true},
			wantGroups: []report.ColumnGroup{report.GroupNumeric, report.GroupDatetime},
		},
		{
			name:       "nothing matches",
			opts:       Options{Kind: search.KindColumn, Query: "zzz", MatchOnly: true},
			wantGroups: nil,
		},
		{
			name:       "toggle off keeps every group",
			opts:       Options{Kind: search.KindColumn, Query: "login"},
			wantGroups: []report.ColumnGroup{report.GroupNumeric, report.GroupCharacter, report.GroupDatetime, report.GroupOther},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Render([]*report.Table{usersTable()}, tt.opts)
			require.NoError(t, err)
			require.Len(t, tree.Cards, 1)

			var kinds []report.ColumnGroup
			for _, g := range tree.Cards[0].Groups {
				assert.NotEmpty(t, g.Rows, "group %s has no visible columns", g.Kind)
				kinds = append(kinds, g.Kind)
			}
			assert.Equal(t, tt.wantGroups, kinds)
			assert.Equal(t, "users (columns: 5, records: 42)", tree.Cards[0].Title(), "title counts every column")
		})
	}
}

func TestRender_ZeroRecordTable(t *testing.T) {
	doc, err := report.Load(strings.NewReader(`{"tables":[{"name":"orders","records":0,"columns":[
		{"type":"numeric","data":[{"key":"Name","value":"id"},{"key":"SQL Type","value":"integer"},{"key":"Mean","value":"1.000"}]}
	]}]}`))
	require.NoError(t, err)

	filtered, err := search.Filter(search.KindTable, "ord", doc.Tables)
	require.NoError(t, err)
	tree, err := Render(filtered, Options{Kind: search.KindTable, Query: "ord"})
	require.NoError(t, err)

	require.Len(t, tree.Cards, 1)
	card := tree.Cards[0]
	assert.Equal(t, "orders (columns: 1, records: 0)", card.Title())
	require.Len(t, card.Groups, 1)
	assert.Equal(t, []string{"Name", "SQL Type"}, card.Groups[0].Header)
}

func TestRender_MissingName(t *testing.T) {
	table := &report.Table{Name: "t", Records: 1, Columns: []*report.Column{
		report.NewColumn("numeric", fact(report.FactSQLType, report.String("int"))),
	}}
	_, err := Render([]*report.Table{table}, Options{})
	assert.ErrorIs(t, err, report.ErrMissingRequiredFact)
}

func TestGroupColumns_Complete(t *testing.T) {
	cols := usersTable().Columns
	groups := GroupColumns(cols)

	seen := map[*report.Column]int{}
	for _, g := range groups {
		for _, c := range g {
			seen[c]++
		}
	}
	assert.Len(t, seen, len(cols))
	for _, c := range cols {
		assert.Equal(t, 1, seen[c])
	}
	assert.Len(t, groups[3], 1, "unknown types fall into other")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value report.Value
		want  CellClass
	}{
		{"bad", report.FactEmpty, report.String("75"), ClassBad},
		{"good", report.FactEmpty, report.String("5"), ClassGood},
		{"mediocre", report.FactEmpty, report.String("30"), ClassMediocre},
		{"boundary ten", report.FactEmpty, report.String("10.00 %"), ClassMediocre},
		{"boundary fifty", report.FactEmpty, report.String("50.00 %"), ClassBad},
		{"just under ten", report.FactEmpty, report.String("9.99 %"), ClassGood},
		{"number value", report.FactEmpty, report.Number("0.5"), ClassGood},
		{"unparseable", report.FactEmpty, report.String("n/a"), ClassMediocre},
		{"null", report.FactEmpty, report.Null(), ClassMediocre},
		{"other key", report.FactDistinct, report.String("75"), ClassNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.key, tt.value))
		})
	}
}

func TestCardID(t *testing.T) {
	id := CardID("my table")
	assert.Equal(t, id, CardID("my table"))
	assert.NotEqual(t, id, CardID("my_table"))
	assert.Regexp(t, `^tbl-[0-9a-f]{16}$`, id)
}
