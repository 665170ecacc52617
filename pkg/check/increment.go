package check

import (
	"context"
	"fmt"

	"github.com/block/qualitychecker/pkg/querybuilder"
	"github.com/block/qualitychecker/pkg/templates"
	"github.com/block/qualitychecker/pkg/typeconv"
)

const (
	IncrementOK       = "ok"
	IncrementMismatch = "mismatch"
)

func init() {
	Register(Definition{
		ID:                 6,
		Name:               "increment correctness",
		Scope:              ScopeTable,
		RequiresPrimaryKey: true,
		RequiresStaging:    true,
		StagingKey:         true,
		BestEffort:         true,
		Outputs:            []string{"increment_check"},
	}, incrementCheck)
}

// incrementCheck verifies that every staging row of the last increment
// reached the store: a store row with the same primary key must exist and
// carry the same business-key values. Both keys are read from the staging
// table. Rows the store has flagged deleted are ignored when the table
// declares the deleted flag.
func incrementCheck(ctx context.Context, r Resources) (Result, error) {
	st, err := r.Lookup.Staging(ctx)
	if err != nil {
		return Result{}, err
	}
	stagingRows, err := query(ctx, r, templates.HasRows, templates.Params{Schema: st.Target.Schema, Table: st.Target.Table})
	if err != nil {
		return Result{}, err
	}
	if len(stagingRows) == 0 {
		return Sentinel(KindEmpty), nil
	}
	keys, err := r.Lookup.StagingKeys(ctx)
	if err != nil {
		return Result{}, err
	}
	if querybuilder.Changed(keys.BusinessKey).IsEmpty() {
		// A key made only of the load timestamp leaves nothing to compare.
		return Sentinel(KindNoBusinessKey), nil
	}
	softDelete, err := r.Lookup.HasDeletedFlag(ctx)
	if err != nil {
		return Result{}, err
	}
	spec := querybuilder.IncrementSpec{
		StoreSchema:   r.Target.Schema,
		StagingSchema: st.Target.Schema,
		Table:         r.Target.Table,
		PrimaryKey:    keys.PrimaryKey,
		BusinessKey:   keys.BusinessKey,
		DeletedFlag:   r.Naming.DeletedFlagColumn,
		Variant:       querybuilder.VariantFor(softDelete),
	}
	sql, err := querybuilder.IncrementQuery(r.Querier.Dialect(), spec)
	if err != nil {
		return Result{}, err
	}
	rows, err := r.Querier.Query(ctx, sql)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 || len(rows[0]) < 3 {
		return Result{}, fmt.Errorf("increment check on %s: %w", r.Target, ErrNoResultRow)
	}
	ok, err := typeconv.ToInt64(rows[0][0])
	if err != nil {
		return Result{}, err
	}
	if ok == 1 {
		return Value(IncrementOK), nil
	}
	attrs := []any{"table", r.Target.String(), "variant", spec.Variant.String()}
	for i, name := range []string{"missing", "changed"} {
		if n, err := typeconv.ToInt64(rows[0][i+1]); err == nil {
			attrs = append(attrs, name, n)
		} else {
			attrs = append(attrs, name, rows[0][i+1], name+"_error", err)
		}
	}
	r.Logger.Warn("increment mismatch", attrs...)
	return Value(IncrementMismatch), nil
}
