package report

import "errors"

// Normalize prepares a document for filtering and rendering. It is
// idempotent and modifies doc in place:
//
//   - columns of tables with zero records keep only Name and SQL Type facts;
//   - null Distinct values become "";
//   - column names are resolved from the Name fact.
func Normalize(doc *Document) {
	if doc == nil {
		return
	}
	doc.Tables = compact(doc.Tables)
	for _, t := range doc.Tables {
		t.Columns = compact(t.Columns)
		for i, c := range t.Columns {
			if t.Records == 0 {
				c.Data = keepFacts(c.Data, FactName, FactSQLType)
			}
			for j := range c.Data {
				if c.Data[j].Key == FactDistinct && c.Data[j].Value.IsNull() {
					c.Data[j].Value = String("")
				}
			}
			c.table, c.index = t.Name, i
			c.resolveName()
		}
	}
}

func compact[T any](items []*T) []*T {
	out := items[:0]
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

func keepFacts(facts []Fact, keys ...string) []Fact {
	kept := facts[:0:0]
	for _, f := range facts {
		for _, k := range keys {
			if f.Key == k {
				kept = append(kept, f)
				break
			}
		}
	}
	return kept
}

// Validate reports every column that lacks a Name fact.
func (d *Document) Validate() error {
	var errs []error
	for _, t := range d.Tables {
		for _, c := range t.Columns {
			if _, err := c.Name(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
