// Package report holds the database-schema report document: tables, their
// columns, and the ordered statistics ("facts") computed for each column.
//
// Documents are normalized once when loaded. After Load returns, zero-record
// tables only carry Name and SQL Type facts, null Distinct values read as
// empty strings, and every column knows its name.
package report

import (
	"encoding/json"
)

// Well-known fact keys.
const (
	FactName        = "Name"
	FactSQLType     = "SQL Type"
	FactMinimum     = "Minimum"
	FactMaximum     = "Maximum"
	FactMean        = "Mean"
	FactMostCommon  = "The most common"
	FactCounts      = "Counts of the most common values"
	FactNullable    = "Nulls possible"
	FactEmpty       = "Empty"
	FactDistinct    = "Distinct"
	FactQuantile25  = "Quantile 0.25"
	FactQuantile50  = "Quantile 0.50"
	FactQuantile75  = "Quantile 0.75"
	TextTooLongNote = "(Text length is longer than specified max)"
)

// ColumnGroup is the display group of a column.
type ColumnGroup string

// Column groups, in display order.
const (
	GroupNumeric   ColumnGroup = "numeric"
	GroupCharacter ColumnGroup = "character"
	GroupDatetime  ColumnGroup = "datetime"
	GroupOther     ColumnGroup = "other"
)

// Groups lists every column group in display order.
var Groups = [...]ColumnGroup{GroupNumeric, GroupCharacter, GroupDatetime, GroupOther}

// GroupOf maps a column type string to its group. Unknown types are other.
func GroupOf(typ string) ColumnGroup {
	switch ColumnGroup(typ) {
	case GroupNumeric, GroupCharacter, GroupDatetime:
		return ColumnGroup(typ)
	default:
		return GroupOther
	}
}

// Document is a loaded report.
type Document struct {
	Database string   `json:"database,omitempty"`
	Schema   string   `json:"scheme,omitempty"`
	Tables   []*Table `json:"tables"`
}

// Table is one database table in the report.
type Table struct {
	Name    string    `json:"name"`
	Records int64     `json:"records"`
	Columns []*Column `json:"columns"`
}

// Fact is a single statistic of a column.
type Fact struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// Column is one column of a table with its facts in report order.
type Column struct {
	Type string `json:"type"`
	Data []Fact `json:"data"`

	table   string
	index   int
	name    string
	hasName bool
}

// NewColumn builds a column with its name precomputed.
func NewColumn(typ string, facts ...Fact) *Column {
	c := &Column{Type: typ, Data: facts}
	c.index = -1
	c.resolveName()
	return c
}

// Group returns the display group of the column.
func (c *Column) Group() ColumnGroup { return GroupOf(c.Type) }

// Name returns the value of the column's Name fact.
func (c *Column) Name() (string, error) {
	if !c.hasName {
		return "", &MissingFactError{Table: c.table, Index: c.index, Key: FactName}
	}
	return c.name, nil
}

// Fact returns the first fact with the given key.
func (c *Column) Fact(key string) (Fact, bool) {
	for _, f := range c.Data {
		if f.Key == key {
			return f, true
		}
	}
	return Fact{}, false
}

// Keys returns the fact keys in order.
func (c *Column) Keys() []string {
	keys := make([]string, len(c.Data))
	for i, f := range c.Data {
		keys[i] = f.Key
	}
	return keys
}

func (c *Column) resolveName() {
	c.name, c.hasName = "", false
	if f, ok := c.Fact(FactName); ok {
		c.name, c.hasName = f.Value.Text(), true
		if f.Value.IsNull() {
			c.name = ""
		}
	}
}

type columnJSON struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Data []Fact `json:"data"`
}

// MarshalJSON includes the resolved name so consumers need not search facts.
func (c *Column) MarshalJSON() ([]byte, error) {
	data := c.Data
	if data == nil {
		data = []Fact{}
	}
	return json.Marshal(columnJSON{Type: c.Type, Name: c.name, Data: data})
}

// UnmarshalJSON ignores any serialized name; names come from the Name fact.
func (c *Column) UnmarshalJSON(b []byte) error {
	var raw columnJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = Column{Type: raw.Type, Data: raw.Data, index: -1}
	c.resolveName()
	return nil
}
