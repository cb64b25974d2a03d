package report

import (
	"errors"
	"fmt"
)

// ErrMissingRequiredFact is wrapped by every MissingFactError.
var ErrMissingRequiredFact = errors.New("missing required fact")

// MissingFactError reports a column lacking a fact the caller needs.
type MissingFactError struct {
	Table string
	Index int // column position in the table, -1 if unknown
	Key   string
}

func (e *MissingFactError) Error() string {
	switch {
	case e.Table != "" && e.Index >= 0:
		return fmt.Sprintf("table %q column %d: missing required fact %q", e.Table, e.Index, e.Key)
	case e.Table != "":
		return fmt.Sprintf("table %q: column missing required fact %q", e.Table, e.Key)
	default:
		return fmt.Sprintf("column missing required fact %q", e.Key)
	}
}

// Unwrap returns ErrMissingRequiredFact.
func (e *MissingFactError) Unwrap() error { return ErrMissingRequiredFact }
