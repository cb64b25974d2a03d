// Package xlsxview writes a view tree to an Excel workbook: a summary sheet
// listing every card, then one sheet per table with its column groups
// stacked vertically.
package xlsxview

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/dbexplorer/internal/view"
	"github.com/xuri/excelize/v2"
)

// SummarySheet is the name of the first sheet.
const SummarySheet = "Tables"

const maxSheetName = 31

type styles struct {
	header, title, good, mediocre, bad, wrap int
}

// Build creates the workbook for t. The caller closes the returned file.
func Build(t *view.Tree) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := writeSummary(f, t, st); err != nil {
		_ = f.Close()
		return nil, err
	}

	used := map[string]bool{strings.ToLower(SummarySheet): true}
	for _, c := range t.Cards {
		name := sheetName(c.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create sheet for %s: %w", c.Name, err)
		}
		if err := writeCard(f, name, c, st); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("table %s: %w", c.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteFile builds the workbook for t and saves it to path.
func WriteFile(t *view.Tree, path string) error {
	f, err := Build(t)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.header, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		}},
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}},
		{&st.good, fillStyle("#C6EFCE")},
		{&st.mediocre, fillStyle("#FFEB9C")},
		{&st.bad, fillStyle("#FFC7CE")},
		{&st.wrap, &excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return styles{}, fmt.Errorf("failed to create style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}

func fillStyle(color string) *excelize.Style {
	return &excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "top"},
	}
}

func writeSummary(f *excelize.File, t *view.Tree, st styles) error {
	if t.Empty() {
		return f.SetCellValue(SummarySheet, "A1", placeholder(t))
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &[]any{"Table", "Columns", "Records"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "C1", st.header); err != nil {
		return err
	}
	for i, c := range t.Cards {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &[]any{c.Name, c.ColumnCount, c.Records}); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 30)
}

func placeholder(t *view.Tree) string {
	if t.Placeholder != "" {
		return t.Placeholder
	}
	return view.NoMatchesText
}

func writeCard(f *excelize.File, sheet string, c view.Card, st styles) error {
	row := 1
	if err := f.SetCellValue(sheet, "A1", c.Title()); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", st.title); err != nil {
		return err
	}
	row += 2

	width := 0
	for _, g := range c.Groups {
		titleCell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, titleCell, g.Title); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, titleCell, titleCell, st.title); err != nil {
			return err
		}
		row++

		header := make([]any, len(g.Header))
		for i, h := range g.Header {
			header[i] = h
		}
		width = max(width, len(header))
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, start, &header); err != nil {
			return err
		}
		if len(header) > 0 {
			end, _ := excelize.CoordinatesToCellName(len(header), row)
			if err := f.SetCellStyle(sheet, start, end, st.header); err != nil {
				return err
			}
		}
		row++

		for _, r := range g.Rows {
			for i, cell := range r.Cells {
				ref, err := excelize.CoordinatesToCellName(i+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, ref, cell.Text("\n")); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, ref, ref, cellStyle(cell, st)); err != nil {
					return err
				}
			}
			width = max(width, len(r.Cells))
			row++
		}
		row++
	}

	if width > 0 {
		last, _ := excelize.ColumnNumberToName(width)
		return f.SetColWidth(sheet, "A", last, 18)
	}
	return nil
}

func cellStyle(c view.Cell, st styles) int {
	switch c.Class {
	case view.ClassGood:
		return st.good
	case view.ClassMediocre:
		return st.mediocre
	case view.ClassBad:
		return st.bad
	default:
		return st.wrap
	}
}

// sheetName derives a unique, valid sheet name from a table name.
func sheetName(table string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, table)
	base = strings.Trim(base, "'")
	if base == "" {
		base = "table"
	}
	base = truncate(base, maxSheetName)

	name := base
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
