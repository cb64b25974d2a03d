package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `{
  "database": "shop",
  "scheme": "public",
  "tables": [
    {"name": "orders", "records": 0, "columns": [
      {"type": "numeric", "data": [
        {"key": "Name", "value": "id"},
        {"key": "SQL Type", "value": "integer"},
        {"key": "Minimum", "value": null},
        {"key": "Distinct", "value": null}
      ]}
    ]},
    {"name": "users", "records": 5, "columns": [
      {"type": "character", "data": [
        {"key": "Name", "value": "login"},
        {"key": "SQL Type", "value": "text"},
        {"key": "The most common", "value": ["admin", null, "bob"]},
        {"key": "Counts of the most common values", "value": [3, 1, 1]},
        {"key": "Distinct", "value": null}
      ]},
      {"type": "numeric", "data": [
        {"key": "Name", "value": "age"},
        {"key": "SQL Type", "value": "integer"},
        {"key": "Mean", "value": "31.400"},
        {"key": "Distinct", "value": 0},
        {"key": "Nulls possible", "value": true}
      ]}
    ]}
  ]
}`

func loadSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Load(strings.NewReader(sampleReport))
	require.NoError(t, err)
	return doc
}

func TestLoad_Metadata(t *testing.T) {
	doc := loadSample(t)

	assert.Equal(t, "shop", doc.Database)
	assert.Equal(t, "public", doc.Schema)
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "orders", doc.Tables[0].Name)
	assert.Equal(t, int64(5), doc.Tables[1].Records)
}

func TestNormalize_ZeroRecordTablesKeepNameAndType(t *testing.T) {
	doc := loadSample(t)

	orders := doc.Tables[0]
	require.Len(t, orders.Columns, 1)
	assert.Equal(t, []string{FactName, FactSQLType}, orders.Columns[0].Keys())
}

func TestNormalize_Distinct(t *testing.T) {
	doc := loadSample(t)
	users := doc.Tables[1]

	login, ok := users.Columns[0].Fact(FactDistinct)
	require.True(t, ok)
	assert.Equal(t, KindString, login.Value.Kind())
	assert.Equal(t, "", login.Value.Text())

	age, ok := users.Columns[1].Fact(FactDistinct)
	require.True(t, ok)
	assert.Equal(t, KindNumber, age.Value.Kind(), "zero is not null")
	assert.Equal(t, "0", age.Value.Text())
}

func TestNormalize_Idempotent(t *testing.T) {
	doc := loadSample(t)

	var first bytes.Buffer
	require.NoError(t, Write(&first, doc))

	Normalize(doc)
	var second bytes.Buffer
	require.NoError(t, Write(&second, doc))

	assert.JSONEq(t, first.String(), second.String())
}

func TestNormalize_DropsNilEntries(t *testing.T) {
	doc, err := Load(strings.NewReader(`{"tables":[null,{"name":"a","records":1,"columns":[null]}]}`))
	require.NoError(t, err)

	require.Len(t, doc.Tables, 1)
	assert.Empty(t, doc.Tables[0].Columns)
}

func TestColumnName(t *testing.T) {
	tests := []struct {
		name    string
		column  *Column
		want    string
		wantErr bool
	}{
		{
			name:   "string name",
			column: NewColumn("numeric", Fact{Key: FactName, Value: String("id")}),
			want:   "id",
		},
		{
			name:   "name fact not first",
			column: NewColumn("other", Fact{Key: FactSQLType, Value: String("blob")}, Fact{Key: FactName, Value: String("payload")}),
			want:   "payload",
		},
		{
			name:   "numeric name",
			column: NewColumn("other", Fact{Key: FactName, Value: Int(7)}),
			want:   "7",
		},
		{
			name:    "missing name",
			column:  NewColumn("numeric", Fact{Key: FactSQLType, Value: String("integer")}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.column.Name()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMissingRequiredFact))
				var mfe *MissingFactError
				require.ErrorAs(t, err, &mfe)
				assert.Equal(t, FactName, mfe.Key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	doc, err := Load(strings.NewReader(`{"tables":[{"name":"t","records":1,"columns":[
		{"type":"numeric","data":[{"key":"SQL Type","value":"int"}]},
		{"type":"numeric","data":[{"key":"Name","value":"ok"}]}
	]}]}`))
	require.NoError(t, err)

	err = doc.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredFact)
	assert.Contains(t, err.Error(), `table "t" column 0`)

	require.NoError(t, loadSample(t).Validate())
}

func TestGroupOf(t *testing.T) {
	tests := map[string]ColumnGroup{
		"numeric":   GroupNumeric,
		"character": GroupCharacter,
		"datetime":  GroupDatetime,
		"other":     GroupOther,
		"geometry":  GroupOther,
		"":          GroupOther,
	}
	for typ, want := range tests {
		assert.Equal(t, want, GroupOf(typ), "type %q", typ)
	}
}

func TestValue_RoundTripPreservesNumberText(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`[1.500, null, "x", false]`), &v))

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `[1.500,null,"x",false]`, string(out))
}

func TestValue_Text(t *testing.T) {
	tests := []struct {
		name       string
		value      Value
		wantText   string
		wantSearch string
	}{
		{"null", Null(), "null", ""},
		{"string", String("abc"), "abc", "abc"},
		{"number", Number("12.5"), "12.5", "12.5"},
		{"bool", Bool(true), "true", "true"},
		{"list", List(String("a"), Null(), Int(3)), "a, null, 3", "a,,3"},
		{"empty list", List(), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantText, tt.value.Text())
			assert.Equal(t, tt.wantSearch, tt.value.SearchText())
		})
	}
}

func TestValue_RejectsNestedLists(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`[[1]]`), &v)
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(strings.NewReader(`{"tables": [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode report")
}

func TestWriteFile_LoadFile_Compressed(t *testing.T) {
	doc := loadSample(t)
	dir := t.TempDir()

	for _, name := range []string{"report.json", "report.json.gz", "report.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, doc))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			if name == "report.json" {
				assert.True(t, json.Valid(raw))
			} else {
				assert.False(t, json.Valid(raw), "expected compressed output")
			}

			got, err := LoadFile(path)
			require.NoError(t, err)
			require.Len(t, got.Tables, 2)
			colName, err := got.Tables[1].Columns[0].Name()
			require.NoError(t, err)
			assert.Equal(t, "login", colName)
		})
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSummarize(t *testing.T) {
	s := Summarize(loadSample(t))

	assert.Equal(t, 2, s.Tables)
	assert.Equal(t, 1, s.EmptyTables)
	assert.Equal(t, 3, s.Columns)
	assert.Equal(t, int64(5), s.Records)
	assert.Equal(t, 2, s.ByGroup[GroupNumeric])
	assert.Equal(t, 1, s.ByGroup[GroupCharacter])
	assert.Equal(t, 0, s.ByGroup[GroupOther])
}

func TestStatsSummary(t *testing.T) {
	assert.Equal(t, "2 tables, 3 columns, 5 records, 1 empty", Summarize(loadSample(t)).Summary())
	assert.Equal(t, "0 tables, 0 columns, 0 records", Summarize(nil).Summary())
}

func TestCount(t *testing.T) {
	assert.Equal(t, "1 table", Count(1, "table"))
	assert.Equal(t, "0 tables", Count(0, "table"))
	assert.Equal(t, "3 entries", Count(3, "entry"))
}
