package check

import (
	"context"

	"github.com/block/qualitychecker/pkg/querybuilder"
	"github.com/block/qualitychecker/pkg/typeconv"
)

func init() {
	Register(Definition{
		ID:                 9,
		Name:               "segmentation skew",
		Scope:              ScopeTable,
		RequiresPrimaryKey: true,
		Outputs:            []string{"segmentation"},
	}, segmentationCheck)
}

// segmentationCheck measures, in percent, how unevenly the primary key
// hashes rows across nodes or segments.
func segmentationCheck(ctx context.Context, r Resources) (Result, error) {
	keys, err := r.Lookup.StoreKeys(ctx)
	if err != nil {
		return Result{}, err
	}
	sql, err := querybuilder.SegmentationQuery(r.Querier.Dialect(), r.Target.Schema, r.Target.Table, keys.PrimaryKey)
	if err != nil {
		return Result{}, err
	}
	rows, err := r.Querier.Query(ctx, sql)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 || rows[0][0] == nil {
		return Sentinel(KindEmpty), nil
	}
	skew, err := typeconv.ToDecimal(rows[0][0])
	if err != nil {
		return Result{}, err
	}
	return Value(skew.Round(2)), nil
}
