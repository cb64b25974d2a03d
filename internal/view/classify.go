package view

import (
	"github.com/leapstack-labs/dbexplorer/internal/report"
)

// CellClass is the quality class of a cell.
type CellClass string

// Cell classes. Only the Empty fact is classified; every other cell is ClassNone.
const (
	ClassNone     CellClass = ""
	ClassGood     CellClass = "good"
	ClassMediocre CellClass = "mediocre"
	ClassBad      CellClass = "bad"
)

// Thresholds for the Empty fact, in percent.
const (
	EmptyGoodBelow = 10
	EmptyBadFrom   = 50
)

// Classify returns the class of a fact. Empty values are read as a leading
// integer ("12.50 %" is 12); values without one are mediocre.
func Classify(key string, v report.Value) CellClass {
	if key != report.FactEmpty {
		return ClassNone
	}
	n, ok := leadingInt(v.Text())
	switch {
	case !ok:
		return ClassMediocre
	case n < EmptyGoodBelow:
		return ClassGood
	case n >= EmptyBadFrom:
		return ClassBad
	default:
		return ClassMediocre
	}
}

// leadingInt parses an optionally signed integer prefix after leading
// whitespace.
func leadingInt(s string) (int64, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	var n int64
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		if n < 1<<53 {
			n = n*10 + int64(s[i]-'0')
		}
		i++
	}
	if i == start {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
