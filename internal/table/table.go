// Package table implements a small column-oriented frame for the pipeline.
// Cells are stored as strings, exactly as they appear in the CSV artifacts;
// numeric accessors parse on demand.
package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Table is an ordered set of named columns over string cells. A cell may be
// empty, which downstream stages treat as a missing value.
type Table struct {
	Cols []string
	Rows [][]string
}

// New creates an empty table with the given column set.
func New(cols ...string) *Table {
	return &Table{Cols: append([]string(nil), cols...)}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.Cols) }

// AppendRow adds a row. Short rows are padded with empty cells; long rows are
// rejected so a malformed record cannot silently shift columns.
func (t *Table) AppendRow(cells []string) error {
	if len(cells) > len(t.Cols) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Cols))
	}
	row := make([]string, len(t.Cols))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
	return nil
}

// ColIndex returns the index of the named column, or -1 if absent.
func (t *Table) ColIndex(name string) int {
	for i, c := range t.Cols {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColIndex(name) >= 0
}

// Cell returns the cell at row i in the named column. Missing columns read as
// empty cells, matching the permissive schema handling of the rest of the
// pipeline.
func (t *Table) Cell(i int, name string) string {
	idx := t.ColIndex(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i][idx]
}

// SetCell writes the cell at row i in the named column.
func (t *Table) SetCell(i int, name, value string) error {
	idx := t.ColIndex(name)
	if idx < 0 {
		return fmt.Errorf("no column %q", name)
	}
	if i < 0 || i >= len(t.Rows) {
		return fmt.Errorf("row %d out of range", i)
	}
	t.Rows[i][idx] = value
	return nil
}

// AddColumn appends a new column filled with the given values. The value
// slice must match the current row count.
func (t *Table) AddColumn(name string, values []string) error {
	if t.HasColumn(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.Rows))
	}
	t.Cols = append(t.Cols, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// Project returns a new table holding only the columns from keep that exist
// in the input, in keep order. Absent columns are silently omitted.
func (t *Table) Project(keep []string) *Table {
	var idxs []int
	out := &Table{}
	for _, name := range keep {
		if idx := t.ColIndex(name); idx >= 0 {
			idxs = append(idxs, idx)
			out.Cols = append(out.Cols, name)
		}
	}
	for _, row := range t.Rows {
		cells := make([]string, len(idxs))
		for j, idx := range idxs {
			cells[j] = row[idx]
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// DropDuplicates returns a new table with exact duplicate rows removed,
// keeping the first occurrence of each. Applying it twice is a no-op.
func (t *Table) DropDuplicates() *Table {
	out := &Table{Cols: append([]string(nil), t.Cols...)}
	seen := make(map[string]bool, len(t.Rows))
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	return out
}

// Filter returns a new table holding only rows for which keep returns true.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := &Table{Cols: append([]string(nil), t.Cols...)}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, append([]string(nil), row...))
		}
	}
	return out
}

// SortRows sorts the rows in place using the given comparison. The sort is
// stable so ties keep their original order.
func (t *Table) SortRows(less func(a, b []string) bool) {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return less(t.Rows[i], t.Rows[j])
	})
}

// Float returns the cell at row i in the named column parsed as a float64.
// Empty or unparseable cells come back as 0 with ok=false; callers that
// zero-fill can ignore ok.
func (t *Table) Float(i int, name string) (float64, bool) {
	cell := strings.TrimSpace(t.Cell(i, name))
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FloatColumn returns the named column as float64 values with missing or
// unparseable cells zero-filled.
func (t *Table) FloatColumn(name string) []float64 {
	out := make([]float64, len(t.Rows))
	for i := range t.Rows {
		out[i], _ = t.Float(i, name)
	}
	return out
}

// NumericColumns returns the names of columns where every non-empty cell
// parses as a float and at least one cell is non-empty.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, name := range t.Cols {
		idx := t.ColIndex(name)
		nonEmpty := 0
		numeric := true
		for _, row := range t.Rows {
			cell := strings.TrimSpace(row[idx])
			if cell == "" {
				continue
			}
			nonEmpty++
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric = false
				break
			}
		}
		if numeric && nonEmpty > 0 {
			out = append(out, name)
		}
	}
	return out
}

// Head returns a copy of the first n rows (or all rows if fewer).
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := &Table{Cols: append([]string(nil), t.Cols...)}
	for _, row := range t.Rows[:n] {
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	return out
}
