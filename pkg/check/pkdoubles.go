package check

import (
	"context"

	"github.com/block/qualitychecker/pkg/templates"
	"github.com/block/qualitychecker/pkg/typeconv"
)

func init() {
	Register(Definition{
		ID:                 1,
		Name:               "store primary key duplicates",
		Scope:              ScopeTable,
		RequiresPrimaryKey: true,
		Outputs:            []string{"ods_pk_doubles"},
	}, storePKDoublesCheck)
	Register(Definition{
		ID:                 13,
		Name:               "staging primary key duplicates",
		Scope:              ScopeTable,
		RequiresPrimaryKey: true,
		RequiresStaging:    true,
		StagingKey:         true,
		Outputs:            []string{"stg_pk_doubles"},
	}, stagingPKDoublesCheck)
}

func storePKDoublesCheck(ctx context.Context, r Resources) (Result, error) {
	keys, err := r.Lookup.StoreKeys(ctx)
	if err != nil {
		return Result{}, err
	}
	return pkDoubles(ctx, r, r.Target.Schema, keys.PrimaryKey)
}

func stagingPKDoublesCheck(ctx context.Context, r Resources) (Result, error) {
	st, err := r.Lookup.Staging(ctx)
	if err != nil {
		return Result{}, err
	}
	keys, err := r.Lookup.StagingKeys(ctx)
	if err != nil {
		return Result{}, err
	}
	return pkDoubles(ctx, r, st.Target.Schema, keys.PrimaryKey)
}

// pkDoubles counts the rows beyond the first for every duplicated key.
func pkDoubles(ctx context.Context, r Resources, schema string, pk []string) (Result, error) {
	row, err := queryRow(ctx, r, templates.PKDoubles, templates.Params{
		Schema: schema,
		Table:  r.Target.Table,
		Key:    pk,
	})
	if err != nil {
		return Result{}, err
	}
	n, err := typeconv.ToInt64(row[0])
	if err != nil {
		return Result{}, err
	}
	return Value(n), nil
}
