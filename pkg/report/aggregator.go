package report

import (
	"sync"

	"github.com/block/qualitychecker/pkg/check"
	"github.com/block/qualitychecker/pkg/metadata"
)

// ColumnResults holds the column-scoped results for one column.
type ColumnResults struct {
	Column  string
	Results map[int]check.Result
}

// TableBundle is everything one table pass produced.
type TableBundle struct {
	Target  metadata.TableTarget
	Results map[int]check.Result
	Columns []ColumnResults

	// Flagged counts, per flag check id, the columns whose flag is set.
	Flagged  map[int]int
	Warnings []string
}

func NewTableBundle(target metadata.TableTarget) *TableBundle {
	return &TableBundle{
		Target:  target,
		Results: map[int]check.Result{},
		Flagged: map[int]int{},
	}
}

// GeneralColumns is {schema, table} followed by the outputs of the
// table-scoped checks in defs.
func GeneralColumns(defs []check.Definition) []string {
	cols := []string{ColumnSchema, ColumnTable}
	for _, def := range defs {
		if def.Scope == check.ScopeTable {
			cols = append(cols, def.Outputs...)
		}
	}
	return cols
}

// DetailColumns is {schema, table, column} followed by the outputs of the
// column-scoped checks in defs.
func DetailColumns(defs []check.Definition) []string {
	cols := []string{ColumnSchema, ColumnTable, ColumnColumn}
	for _, def := range defs {
		if def.Scope == check.ScopeColumn {
			cols = append(cols, def.Outputs...)
		}
	}
	return cols
}

// Aggregator accumulates bundles for one run. Its column sets depend
// only on the enabled checks.
type Aggregator struct {
	sync.Mutex
	tableDefs  []check.Definition
	columnDefs []check.Definition
	general    *Table
	detail     *Table
}

func NewAggregator(defs []check.Definition) *Aggregator {
	tableDefs, columnDefs := check.Split(defs)
	return &Aggregator{
		tableDefs:  tableDefs,
		columnDefs: columnDefs,
		general:    NewTable(GeneralSheet, GeneralColumns(defs)),
		detail:     NewTable(DetailSheet, DetailColumns(defs)),
	}
}

// Fold appends the rows for b and returns them as a delta. A table with
// no column-scoped checks enabled contributes no Detail rows.
func (a *Aggregator) Fold(b *TableBundle) (general, detail *Table) {
	a.Lock()
	defer a.Unlock()
	general = NewTable(GeneralSheet, a.general.Columns)
	detail = NewTable(DetailSheet, a.detail.Columns)

	row := Row{ColumnSchema: b.Target.Schema, ColumnTable: b.Target.Table}
	for _, def := range a.tableDefs {
		setCells(row, def, b.Results[def.ID])
	}
	general.Rows = append(general.Rows, row)

	if len(a.columnDefs) > 0 {
		for _, cr := range b.Columns {
			row := Row{
				ColumnSchema: b.Target.Schema,
				ColumnTable:  b.Target.Table,
				ColumnColumn: cr.Column,
			}
			for _, def := range a.columnDefs {
				setCells(row, def, cr.Results[def.ID])
			}
			detail.Rows = append(detail.Rows, row)
		}
	}
	a.general.Rows = append(a.general.Rows, general.Clone().Rows...)
	a.detail.Rows = append(a.detail.Rows, detail.Clone().Rows...)
	return general, detail
}

// General returns a copy of the accumulated General table.
func (a *Aggregator) General() *Table {
	a.Lock()
	defer a.Unlock()
	return a.general.Clone()
}

// Detail returns a copy of the accumulated Detail table.
func (a *Aggregator) Detail() *Table {
	a.Lock()
	defer a.Unlock()
	return a.detail.Clone()
}

func setCells(row Row, def check.Definition, res check.Result) {
	for i, v := range res.Cells(len(def.Outputs)) {
		row[def.Outputs[i]] = v
	}
}
