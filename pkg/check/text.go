package check

import (
	"context"

	"github.com/block/qualitychecker/pkg/templates"
	"github.com/block/qualitychecker/pkg/typeconv"
)

func init() {
	Register(Definition{
		ID:       3,
		Name:     "maximum length reached",
		Scope:    ScopeColumn,
		TextOnly: true,
		Flag:     true,
		Outputs:  []string{"max_length"},
	}, maxLengthCheck)
	Register(Definition{
		ID:       4,
		Name:     "invalid encoding",
		Scope:    ScopeColumn,
		TextOnly: true,
		Flag:     true,
		Outputs:  []string{"not_utf8"},
	}, notUTF8Check)
	Register(Definition{
		ID:       8,
		Name:     "length statistics",
		Scope:    ScopeColumn,
		TextOnly: true,
		Outputs:  []string{"length_min", "length_max", "length_avg"},
	}, lengthStatisticsCheck)
}

// maxLengthCheck flags a column where some value filled the declared
// length, a sign of truncation upstream. Unbounded columns have no
// maximum to reach.
func maxLengthCheck(ctx context.Context, r Resources) (Result, error) {
	if r.Column.MaxLength <= 0 {
		return Sentinel(KindNotApplicable), nil
	}
	row, err := queryRow(ctx, r, templates.MaxLength, templates.Params{
		Schema:    r.Target.Schema,
		Table:     r.Target.Table,
		Column:    r.Column.Name,
		MaxLength: r.Column.MaxLength,
	})
	if err != nil {
		return Result{}, err
	}
	flag, err := typeconv.ToInt64(row[0])
	if err != nil {
		return Result{}, err
	}
	return Value(flag), nil
}

func notUTF8Check(ctx context.Context, r Resources) (Result, error) {
	rows, err := query(ctx, r, templates.NotUTF8, templates.Params{
		Schema: r.Target.Schema,
		Table:  r.Target.Table,
		Column: r.Column.Name,
	})
	if err != nil {
		return Result{}, err
	}
	if len(rows) > 0 {
		return Value(int64(1)), nil
	}
	return Value(int64(0)), nil
}

func lengthStatisticsCheck(ctx context.Context, r Resources) (Result, error) {
	row, err := queryRow(ctx, r, templates.LengthStatistics, templates.Params{
		Schema: r.Target.Schema,
		Table:  r.Target.Table,
		Column: r.Column.Name,
	})
	if err != nil {
		return Result{}, err
	}
	if len(row) < 3 || row[0] == nil {
		// Only NULLs.
		return Sentinel(KindEmpty), nil
	}
	minLen, err := typeconv.ToInt64(row[0])
	if err != nil {
		return Result{}, err
	}
	maxLen, err := typeconv.ToInt64(row[1])
	if err != nil {
		return Result{}, err
	}
	avgLen, err := typeconv.ToDecimal(row[2])
	if err != nil {
		return Result{}, err
	}
	return Tuple(minLen, maxLen, avgLen.Round(2)), nil
}
