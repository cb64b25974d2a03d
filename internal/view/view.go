// Package view turns filtered report tables into a tree of cards, column
// groups, rows and cells. Output adapters (HTML, terminal, Markdown, Excel)
// consume the tree; none of them re-implement grouping or visibility rules.
package view

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/leapstack-labs/dbexplorer/internal/search"
	"github.com/zeebo/xxh3"
)

// NoMatchesText is shown when no table survives the filter.
const NoMatchesText = "No matching tables"

// Options control a render pass.
type Options struct {
	Kind      search.Kind
	Query     string
	MatchOnly bool // only with KindColumn: hide columns whose name does not match
}

// Tree is the rendered result.
type Tree struct {
	Placeholder string // set when there are no cards
	Cards       []Card
}

// Empty reports whether the tree renders the placeholder.
func (t *Tree) Empty() bool { return len(t.Cards) == 0 }

// Card is one table.
type Card struct {
	ID          string
	Name        string
	ColumnCount int
	Records     int64
	Collapsed   bool
	Groups      []Group
}

// Title returns the card header text.
func (c Card) Title() string {
	return fmt.Sprintf("%s (columns: %d, records: %d)", c.Name, c.ColumnCount, c.Records)
}

// Group is a block of columns of the same column group.
type Group struct {
	Kind   report.ColumnGroup
	Title  string
	Header []string
	Rows   []Row
}

// Row is one visible column.
type Row struct {
	Column string
	Cells  []Cell
}

// Cell is one fact of a column.
type Cell struct {
	Key   string
	Lines []string
	Class CellClass
}

// Text joins the cell lines with sep.
func (c Cell) Text(sep string) string { return strings.Join(c.Lines, sep) }

var groupTitles = map[report.ColumnGroup]string{
	report.GroupNumeric:   "Numeric columns",
	report.GroupCharacter: "Character columns",
	report.GroupDatetime:  "Datetime columns",
	report.GroupOther:     "Other columns",
}

// GroupTitle returns the heading of a column group.
func GroupTitle(g report.ColumnGroup) string { return groupTitles[g] }

// CardID returns a DOM-safe identifier derived from the table name.
func CardID(table string) string {
	sum := xxh3.HashString(table)
	var b [8]byte
	for i := range b {
		b[i] = byte(sum >> (56 - 8*i))
	}
	return "tbl-" + hex.EncodeToString(b[:])
}

// GroupColumns partitions columns by group in display order. Every column
// lands in exactly one group and keeps its relative order.
func GroupColumns(columns []*report.Column) [len(report.Groups)][]*report.Column {
	var out [len(report.Groups)][]*report.Column
	for _, c := range columns {
		for i, g := range report.Groups {
			if c.Group() == g {
				out[i] = append(out[i], c)
				break
			}
		}
	}
	return out
}

// Render builds the tree for tables, which are assumed to be already
// filtered. Cards start collapsed.
func Render(tables []*report.Table, opts Options) (*Tree, error) {
	if len(tables) == 0 {
		return &Tree{Placeholder: NoMatchesText}, nil
	}

	tree := &Tree{Cards: make([]Card, 0, len(tables))}
	for _, t := range tables {
		card, err := renderCard(t, opts)
		if err != nil {
			return nil, err
		}
		tree.Cards = append(tree.Cards, card)
	}
	return tree, nil
}

func renderCard(t *report.Table, opts Options) (Card, error) {
	card := Card{
		ID:          CardID(t.Name),
		Name:        t.Name,
		ColumnCount: len(t.Columns),
		Records:     t.Records,
		Collapsed:   true,
	}

	matchOnly := opts.Kind == search.KindColumn && opts.MatchOnly
	for i, cols := range GroupColumns(t.Columns) {
		if len(cols) == 0 {
			continue
		}
		g := report.Groups[i]
		group := Group{
			Kind:   g,
			Title:  GroupTitle(g),
			Header: cols[0].Keys(),
		}
		for _, c := range cols {
			name, err := c.Name()
			if err != nil {
				return Card{}, err
			}
			if matchOnly && !search.Contains(name, opts.Query) {
				continue
			}
			group.Rows = append(group.Rows, renderRow(name, c))
		}
		if len(group.Rows) == 0 {
			continue
		}
		card.Groups = append(card.Groups, group)
	}
	return card, nil
}

func renderRow(name string, c *report.Column) Row {
	row := Row{Column: name, Cells: make([]Cell, len(c.Data))}
	for i, f := range c.Data {
		row.Cells[i] = Cell{
			Key:   f.Key,
			Lines: CellLines(f.Value),
			Class: Classify(f.Key, f.Value),
		}
	}
	return row
}

// CellLines returns the display lines of a fact value. List items each get
// a line and null items read "null".
func CellLines(v report.Value) []string {
	if v.Kind() != report.KindList {
		return []string{v.Text()}
	}
	items := v.Items()
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = item.Text()
	}
	return lines
}
