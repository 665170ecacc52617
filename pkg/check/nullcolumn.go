package check

import (
	"context"

	"github.com/block/qualitychecker/pkg/templates"
)

func init() {
	Register(Definition{
		ID:      2,
		Name:    "empty column",
		Scope:   ScopeColumn,
		Flag:    true,
		Outputs: []string{"null_flag"},
	}, nullColumnCheck)
}

// nullColumnCheck flags a column holding only NULLs and empty strings.
func nullColumnCheck(ctx context.Context, r Resources) (Result, error) {
	rows, err := query(ctx, r, templates.NullColumn, templates.Params{
		Schema: r.Target.Schema,
		Table:  r.Target.Table,
		Column: r.Column.Name,
	})
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Value(int64(1)), nil
	}
	return Value(int64(0)), nil
}
