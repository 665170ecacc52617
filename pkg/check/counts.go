package check

import (
	"context"

	"github.com/block/qualitychecker/pkg/templates"
	"github.com/block/qualitychecker/pkg/typeconv"
)

func init() {
	Register(Definition{
		ID:              10,
		Name:            "staging row count",
		Scope:           ScopeTable,
		RequiresStaging: true,
		Outputs:         []string{"stg_row_count"},
	}, stagingRowCountCheck)
	Register(Definition{
		ID:      11,
		Name:    "store row count",
		Scope:   ScopeTable,
		Outputs: []string{"row_count"},
	}, storeRowCountCheck)
	Register(Definition{
		ID:                 12,
		Name:               "business key count",
		Scope:              ScopeTable,
		RequiresPrimaryKey: true,
		Outputs:            []string{"bk_counts"},
	}, businessKeyCountCheck)
}

func stagingRowCountCheck(ctx context.Context, r Resources) (Result, error) {
	st, err := r.Lookup.Staging(ctx)
	if err != nil {
		return Result{}, err
	}
	return count(ctx, r, templates.RowCount, templates.Params{Schema: st.Target.Schema, Table: r.Target.Table})
}

func storeRowCountCheck(ctx context.Context, r Resources) (Result, error) {
	return count(ctx, r, templates.RowCount, templates.Params{Schema: r.Target.Schema, Table: r.Target.Table})
}

// businessKeyCountCheck counts distinct business-key tuples in the store.
func businessKeyCountCheck(ctx context.Context, r Resources) (Result, error) {
	keys, err := r.Lookup.StoreKeys(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(keys.BusinessKey) == 0 {
		return Sentinel(KindNoBusinessKey), nil
	}
	return count(ctx, r, templates.BusinessKeyCount, templates.Params{
		Schema: r.Target.Schema,
		Table:  r.Target.Table,
		Key:    keys.BusinessKey,
	})
}

func count(ctx context.Context, r Resources, purpose templates.Purpose, p templates.Params) (Result, error) {
	row, err := queryRow(ctx, r, purpose, p)
	if err != nil {
		return Result{}, err
	}
	n, err := typeconv.ToInt64(row[0])
	if err != nil {
		return Result{}, err
	}
	return Value(n), nil
}
