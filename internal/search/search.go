// Package search filters report tables by table name, column name or fact
// value using case-insensitive substring matching.
package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/leapstack-labs/dbexplorer/internal/report"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind selects what a query is matched against.
type Kind string

// Search kinds.
const (
	KindTable  Kind = "table"
	KindColumn Kind = "column"
	KindValue  Kind = "value"
)

// Kinds lists the supported search kinds in UI order.
var Kinds = []Kind{KindTable, KindColumn, KindValue}

// UnknownKindError is returned by ParseKind for unsupported kinds.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown search kind %q (expected table, column or value)", e.Kind)
}

// ParseKind parses a search kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", &UnknownKindError{Kind: s}
	}
	return k, nil
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTable, KindColumn, KindValue:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Next returns the kind after k in UI order, wrapping around.
func (k Kind) Next() Kind {
	for i, kind := range Kinds {
		if kind == k {
			return Kinds[(i+1)%len(Kinds)]
		}
	}
	return KindTable
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// lowerPool holds language-neutral lower casers. A Caser keeps state between
// calls and must not be shared between goroutines.
var lowerPool = sync.Pool{
	New: func() any {
		c := cases.Lower(language.Und)
		return &c
	},
}

// lower maps s to lower case the way the page script's toLowerCase does:
// per-character lowering without folding (ß stays ß).
func lower(s string) string {
	c := lowerPool.Get().(*cases.Caser)
	defer lowerPool.Put(c)
	return c.String(s)
}

// Contains reports whether needle occurs in haystack after both are lower
// cased.
func Contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(lower(haystack), lower(needle))
}

// Filter returns the tables matching query for the given kind, in input
// order. An empty query or an unsupported kind returns tables unchanged.
// The only error is a column without a Name fact during a column search.
func Filter(kind Kind, query string, tables []*report.Table) ([]*report.Table, error) {
	if query == "" {
		return tables, nil
	}

	var match func(*report.Table) (bool, error)
	switch kind {
	case KindTable:
		match = func(t *report.Table) (bool, error) {
			return Contains(t.Name, query), nil
		}
	case KindColumn:
		match = func(t *report.Table) (bool, error) {
			return anyColumnNamed(t, query)
		}
	case KindValue:
		match = func(t *report.Table) (bool, error) {
			return anyValue(t, query), nil
		}
	default:
		return tables, nil
	}

	out := make([]*report.Table, 0, len(tables))
	for _, t := range tables {
		ok, err := match(t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func anyColumnNamed(t *report.Table, query string) (bool, error) {
	for _, c := range t.Columns {
		name, err := c.Name()
		if err != nil {
			return false, err
		}
		if Contains(name, query) {
			return true, nil
		}
	}
	return false, nil
}

func anyValue(t *report.Table, query string) bool {
	for _, c := range t.Columns {
		for _, f := range c.Data {
			if Contains(f.Value.SearchText(), query) {
				return true
			}
		}
	}
	return false
}
