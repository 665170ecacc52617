package check

import (
	"context"

	"github.com/block/qualitychecker/pkg/templates"
	"github.com/block/qualitychecker/pkg/typeconv"
)

func init() {
	Register(Definition{
		ID:      7,
		Name:    "most common value",
		Scope:   ScopeColumn,
		Outputs: []string{"most_common_value", "most_common_share"},
	}, mostCommonValueCheck)
}

// mostCommonValueCheck reports the most frequent value of a column and
// its share of all rows in percent.
func mostCommonValueCheck(ctx context.Context, r Resources) (Result, error) {
	rows, err := query(ctx, r, templates.MostCommonValue, templates.Params{
		Schema: r.Target.Schema,
		Table:  r.Target.Table,
		Column: r.Column.Name,
	})
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Sentinel(KindEmpty), nil
	}
	share, err := typeconv.ToDecimal(rows[0][1])
	if err != nil {
		return Result{}, err
	}
	return Tuple(typeconv.ToString(rows[0][0]), share.Round(2)), nil
}
