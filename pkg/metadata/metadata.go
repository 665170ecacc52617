// Package metadata reads per-table structure from the warehouse catalog:
// columns, text columns, primary and business keys, and existence lookups.
package metadata

import (
	"context"
	"fmt"

	"github.com/block/qualitychecker/pkg/dbconn"
	"github.com/block/qualitychecker/pkg/templates"
	"github.com/block/qualitychecker/pkg/typeconv"
)

// ColumnMetadata describes one column as declared in the catalog.
type ColumnMetadata struct {
	Name      string
	DataType  string
	IsText    bool
	MaxLength int64 // 0 when unbounded or unknown
}

// KeySet holds the primary key and the business key derived from it.
type KeySet struct {
	PrimaryKey  []string
	BusinessKey []string
}

// Table is the resolved structure of one table.
type Table struct {
	Target      TableTarget
	Columns     []ColumnMetadata
	TextColumns []ColumnMetadata
	Keys        KeySet
}

// Resolver answers catalog questions through a Querier.
type Resolver struct {
	q      dbconn.Querier
	naming Naming
}

func NewResolver(q dbconn.Querier, naming Naming) *Resolver {
	return &Resolver{q: q, naming: naming}
}

// Naming returns the naming convention the resolver derives keys with.
func (r *Resolver) Naming() Naming {
	return r.naming
}

func (r *Resolver) query(ctx context.Context, purpose templates.Purpose, p templates.Params) ([][]any, error) {
	sql, err := templates.Render(purpose, r.q.Dialect(), p)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup %s for %s.%s: %w", purpose, p.Schema, p.Table, err)
	}
	return rows, nil
}

// Columns returns the columns of schema.table in ordinal order.
func (r *Resolver) Columns(ctx context.Context, schema, table string) ([]ColumnMetadata, error) {
	rows, err := r.query(ctx, templates.Columns, templates.Params{Schema: schema, Table: table})
	if err != nil {
		return nil, err
	}
	cols := make([]ColumnMetadata, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("unexpected column row shape for %s.%s: %d values", schema, table, len(row))
		}
		col := ColumnMetadata{
			Name:     typeconv.ToString(row[0]),
			DataType: typeconv.ToString(row[1]),
		}
		col.IsText = typeconv.IsText(col.DataType)
		if len(row) > 2 && row[2] != nil {
			if n, err := typeconv.ToInt64(row[2]); err == nil {
				col.MaxLength = n
			}
		}
		if col.MaxLength == 0 {
			col.MaxLength = typeconv.DeclaredLength(col.DataType)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// PrimaryKey returns the ordered primary-key columns of schema.table.
// A table without a primary key yields an empty slice and no error.
func (r *Resolver) PrimaryKey(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := r.query(ctx, templates.PrimaryKey, templates.Params{Schema: schema, Table: table})
	if err != nil {
		return nil, err
	}
	pk := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		pk = append(pk, typeconv.ToString(row[0]))
	}
	return pk, nil
}

// BusinessKey drops the load-timestamp column from pk.
func (r *Resolver) BusinessKey(pk []string) []string {
	return r.naming.BusinessKey(pk)
}

// Keys resolves the primary key and derives the business key.
func (r *Resolver) Keys(ctx context.Context, schema, table string) (KeySet, error) {
	pk, err := r.PrimaryKey(ctx, schema, table)
	if err != nil {
		return KeySet{}, err
	}
	return KeySet{PrimaryKey: pk, BusinessKey: r.BusinessKey(pk)}, nil
}

// ColumnExists asks the catalog for schema.table.column.
func (r *Resolver) ColumnExists(ctx context.Context, schema, table, column string) (bool, error) {
	rows, err := r.query(ctx, templates.ColumnExists, templates.Params{Schema: schema, Table: table, Column: column})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// TableExists asks the catalog for schema.table.
func (r *Resolver) TableExists(ctx context.Context, schema, table string) (bool, error) {
	rows, err := r.query(ctx, templates.TableExists, templates.Params{Schema: schema, Table: table})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// HasRows reports whether schema.table holds at least one row.
func (r *Resolver) HasRows(ctx context.Context, schema, table string) (bool, error) {
	rows, err := r.query(ctx, templates.HasRows, templates.Params{Schema: schema, Table: table})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Analyze refreshes optimizer statistics for schema.table.
func (r *Resolver) Analyze(ctx context.Context, schema, table string) error {
	_, err := r.query(ctx, templates.Analyze, templates.Params{Schema: schema, Table: table})
	return err
}

// ListTables returns the base tables whose schema matches the SQL LIKE
// pattern, ordered by schema and table.
func (r *Resolver) ListTables(ctx context.Context, schemaPattern string) ([]TableTarget, error) {
	rows, err := r.query(ctx, templates.ListTables, templates.Params{Pattern: schemaPattern})
	if err != nil {
		return nil, err
	}
	targets := make([]TableTarget, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("unexpected table row shape: %d values", len(row))
		}
		targets = append(targets, TableTarget{
			Schema: typeconv.ToString(row[0]),
			Table:  typeconv.ToString(row[1]),
		})
	}
	return targets, nil
}

// Resolve returns the full structure of schema.table.
func (r *Resolver) Resolve(ctx context.Context, schema, table string) (*Table, error) {
	cols, err := r.Columns(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	keys, err := r.Keys(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	return &Table{
		Target:      TableTarget{Schema: schema, Table: table},
		Columns:     cols,
		TextColumns: TextColumns(cols),
		Keys:        keys,
	}, nil
}

// TextColumns filters cols to the text family.
func TextColumns(cols []ColumnMetadata) []ColumnMetadata {
	var text []ColumnMetadata
	for _, c := range cols {
		if c.IsText {
			text = append(text, c)
		}
	}
	return text
}
