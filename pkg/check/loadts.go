package check

import (
	"context"

	"github.com/block/qualitychecker/pkg/templates"
)

func init() {
	Register(Definition{
		ID:      5,
		Name:    "store last load",
		Scope:   ScopeTable,
		Outputs: []string{"max_ts_ods"},
	}, storeMaxLoadTSCheck)
	Register(Definition{
		ID:              14,
		Name:            "staging last load",
		Scope:           ScopeTable,
		RequiresStaging: true,
		Outputs:         []string{"max_ts_stg"},
	}, stagingMaxLoadTSCheck)
}

func storeMaxLoadTSCheck(ctx context.Context, r Resources) (Result, error) {
	if !r.HasColumn(r.Naming.LoadTSColumn) {
		return Sentinel(KindNotApplicable), nil
	}
	return maxLoadTS(ctx, r, r.Target.Schema)
}

// stagingMaxLoadTSCheck checks the staging table's own catalog entry, as
// its columns may differ from the store table's.
func stagingMaxLoadTSCheck(ctx context.Context, r Resources) (Result, error) {
	st, err := r.Lookup.Staging(ctx)
	if err != nil {
		return Result{}, err
	}
	rows, err := query(ctx, r, templates.ColumnExists, templates.Params{
		Schema: st.Target.Schema,
		Table:  st.Target.Table,
		Column: r.Naming.LoadTSColumn,
	})
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Sentinel(KindNotApplicable), nil
	}
	return maxLoadTS(ctx, r, st.Target.Schema)
}

func maxLoadTS(ctx context.Context, r Resources, schema string) (Result, error) {
	row, err := queryRow(ctx, r, templates.MaxLoadTS, templates.Params{
		Schema: schema,
		Table:  r.Target.Table,
		LoadTS: r.Naming.LoadTSColumn,
	})
	if err != nil {
		return Result{}, err
	}
	if row[0] == nil {
		return Sentinel(KindEmpty), nil
	}
	return Value(row[0]), nil
}
