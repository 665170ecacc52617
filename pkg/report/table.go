// Package report accumulates check results into the General and Detail
// tables and persists them, merged with any earlier report of the same
// name.
package report

import "slices"

const (
	GeneralSheet = "General"
	DetailSheet  = "Detail"

	ColumnSchema = "schema"
	ColumnTable  = "table"
	ColumnColumn = "column"
)

// Row maps a column name to a cell value. Absent columns read as nil.
type Row map[string]any

// Table is a named relational result set. Columns fixes the order in
// which cells are written.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

func NewTable(name string, columns []string) *Table {
	return &Table{Name: name, Columns: slices.Clone(columns)}
}

// Len is the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Values returns the cells of row i in column order.
func (t *Table) Values(i int) []any {
	vals := make([]any, len(t.Columns))
	for j, col := range t.Columns {
		vals[j] = t.Rows[i][col]
	}
	return vals
}

// Clone returns a copy that shares no slices or rows with t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := NewTable(t.Name, t.Columns)
	c.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(Row, len(r))
		for k, v := range r {
			row[k] = v
		}
		c.Rows[i] = row
	}
	return c
}

// Merge appends the rows of fresh to prior. Columns are reconciled by
// name: prior's columns keep their order and columns only fresh carries
// are appended. Rows are never deduplicated or overwritten. Neither input
// is modified.
func Merge(prior, fresh *Table) *Table {
	if prior == nil {
		return fresh.Clone()
	}
	out := prior.Clone()
	if fresh == nil {
		return out
	}
	if out.Name == "" {
		out.Name = fresh.Name
	}
	for _, col := range fresh.Columns {
		if !slices.Contains(out.Columns, col) {
			out.Columns = append(out.Columns, col)
		}
	}
	out.Rows = append(out.Rows, fresh.Clone().Rows...)
	return out
}
