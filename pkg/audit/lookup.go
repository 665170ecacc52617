package audit

import (
	"context"
	"sync"

	"github.com/block/qualitychecker/pkg/check"
	"github.com/block/qualitychecker/pkg/metadata"
)

// tableLookup resolves the metadata checks depend on for one store table.
// Every item is fetched from the catalog at most once, and only when a
// check asks for it.
type tableLookup struct {
	resolver *metadata.Resolver
	target   metadata.TableTarget

	storeOnce sync.Once
	storeKeys metadata.KeySet
	storeErr  error

	stagingOnce sync.Once
	staging     check.Staging
	stagingErr  error

	stagingKeysOnce sync.Once
	stagingKeys     metadata.KeySet
	stagingKeysErr  error

	deletedOnce sync.Once
	deleted     bool
	deletedErr  error
}

var _ check.Lookup = &tableLookup{}

func newTableLookup(resolver *metadata.Resolver, target metadata.TableTarget) *tableLookup {
	return &tableLookup{resolver: resolver, target: target}
}

func (l *tableLookup) StoreKeys(ctx context.Context) (metadata.KeySet, error) {
	l.storeOnce.Do(func() {
		l.storeKeys, l.storeErr = l.resolver.Keys(ctx, l.target.Schema, l.target.Table)
	})
	return l.storeKeys, l.storeErr
}

func (l *tableLookup) Staging(ctx context.Context) (check.Staging, error) {
	l.stagingOnce.Do(func() {
		target, ok := l.target.Staging(l.resolver.Naming())
		if !ok {
			return
		}
		exists, err := l.resolver.TableExists(ctx, target.Schema, target.Table)
		if err != nil {
			l.stagingErr = err
			return
		}
		l.staging = check.Staging{Target: target, Exists: exists}
	})
	return l.staging, l.stagingErr
}

func (l *tableLookup) StagingKeys(ctx context.Context) (metadata.KeySet, error) {
	l.stagingKeysOnce.Do(func() {
		st, err := l.Staging(ctx)
		if err != nil {
			l.stagingKeysErr = err
			return
		}
		if !st.Exists {
			return
		}
		l.stagingKeys, l.stagingKeysErr = l.resolver.Keys(ctx, st.Target.Schema, st.Target.Table)
	})
	return l.stagingKeys, l.stagingKeysErr
}

// HasDeletedFlag reports whether the store table declares the soft-delete
// column of the naming convention.
func (l *tableLookup) HasDeletedFlag(ctx context.Context) (bool, error) {
	l.deletedOnce.Do(func() {
		col := l.resolver.Naming().DeletedFlagColumn
		if col == "" {
			return
		}
		l.deleted, l.deletedErr = l.resolver.ColumnExists(ctx, l.target.Schema, l.target.Table, col)
	})
	return l.deleted, l.deletedErr
}
