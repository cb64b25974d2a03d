package report

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
)

// Stats summarizes a document.
type Stats struct {
	Tables      int                 `json:"tables"`
	EmptyTables int                 `json:"empty_tables"`
	Columns     int                 `json:"columns"`
	Records     int64               `json:"records"`
	ByGroup     map[ColumnGroup]int `json:"by_group"`
}

// Summarize counts tables, columns and records in doc.
func Summarize(doc *Document) Stats {
	s := Stats{ByGroup: make(map[ColumnGroup]int, len(Groups))}
	for _, g := range Groups {
		s.ByGroup[g] = 0
	}
	if doc == nil {
		return s
	}
	for _, t := range doc.Tables {
		s.Tables++
		s.Records += t.Records
		if t.Records == 0 {
			s.EmptyTables++
		}
		for _, c := range t.Columns {
			s.Columns++
			s.ByGroup[c.Group()]++
		}
	}
	return s
}

// Summary returns a one-line description such as "2 tables, 5 columns, 10 records".
func (s Stats) Summary() string {
	parts := []string{
		Count(s.Tables, "table"),
		Count(s.Columns, "column"),
		Count(int(s.Records), "record"),
	}
	if s.EmptyTables > 0 {
		parts = append(parts, fmt.Sprintf("%d empty", s.EmptyTables))
	}
	return strings.Join(parts, ", ")
}

// Count formats n with the singular or plural form of noun.
func Count(n int, noun string) string {
	if n != 1 {
		noun = inflection.Plural(noun)
	}
	return fmt.Sprintf("%d %s", n, noun)
}
