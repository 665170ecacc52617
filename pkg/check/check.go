// Package check provides the fixed catalog of data-quality checks that
// can be run against a store table and its staging counterpart.
package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/block/qualitychecker/pkg/dbconn"
	"github.com/block/qualitychecker/pkg/metadata"
	"github.com/block/qualitychecker/pkg/templates"
)

var (
	ErrUnknownCheck = errors.New("unknown check id")
	// ErrNoResultRow means a query that always yields one row returned none.
	// It is distinct from a zero count and from a missing primary key.
	ErrNoResultRow = errors.New("query returned no result row")
)

// Scope says whether a check yields one result per table or per column.
type Scope uint8

const (
	ScopeTable Scope = iota + 1
	ScopeColumn
)

func (s Scope) String() string {
	switch s {
	case ScopeTable:
		return "table"
	case ScopeColumn:
		return "column"
	default:
		return "unknown"
	}
}

// Definition is the fixed description of one check.
type Definition struct {
	ID    int
	Name  string
	Scope Scope

	RequiresPrimaryKey bool
	RequiresStaging    bool
	StagingKey         bool // the primary key dependency is on the staging table
	TextOnly           bool
	BestEffort         bool
	Flag               bool // yields 0/1 and is counted per table

	Outputs []string
}

// Handler computes the result of one check.
type Handler func(ctx context.Context, r Resources) (Result, error)

// Staging describes the staging counterpart of a store table.
type Staging struct {
	Target metadata.TableTarget
	Exists bool
}

// Lookup provides the metadata a check may depend on. Implementations
// resolve lazily and at most once per table.
type Lookup interface {
	StoreKeys(ctx context.Context) (metadata.KeySet, error)
	Staging(ctx context.Context) (Staging, error)
	StagingKeys(ctx context.Context) (metadata.KeySet, error)
	HasDeletedFlag(ctx context.Context) (bool, error)
}

type Resources struct {
	Querier dbconn.Querier
	Naming  metadata.Naming
	Target  metadata.TableTarget
	Columns []metadata.ColumnMetadata
	Column  *metadata.ColumnMetadata // column-scoped checks only
	Lookup  Lookup
	Logger  *slog.Logger
}

// HasColumn reports whether the store table declares name.
func (r Resources) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

type check struct {
	def     Definition
	handler Handler
}

var (
	checks map[int]check
	lock   sync.Mutex
)

// Register adds a check to the catalog. It is called from init functions
// and panics on an invalid or duplicate definition.
func Register(def Definition, handler Handler) {
	lock.Lock()
	defer lock.Unlock()
	if checks == nil {
		checks = make(map[int]check)
	}
	if def.ID <= 0 || handler == nil || len(def.Outputs) == 0 {
		panic(fmt.Sprintf("check: invalid registration for id %d", def.ID))
	}
	if _, dup := checks[def.ID]; dup {
		panic(fmt.Sprintf("check: id %d registered twice", def.ID))
	}
	checks[def.ID] = check{def: def, handler: handler}
}

// Get returns the definition registered for id.
func Get(id int) (Definition, bool) {
	lock.Lock()
	defer lock.Unlock()
	c, ok := checks[id]
	return c.def, ok
}

// All returns every registered definition ordered by id.
func All() []Definition {
	lock.Lock()
	defer lock.Unlock()
	defs := make([]Definition, 0, len(checks))
	for _, c := range checks {
		defs = append(defs, c.def)
	}
	slices.SortFunc(defs, func(a, b Definition) int { return a.ID - b.ID })
	return defs
}

// Enabled returns the definitions for ids ordered by id, without
// duplicates. An id with no registered handler is an error.
func Enabled(ids []int) ([]Definition, error) {
	seen := make(map[int]bool, len(ids))
	defs := make([]Definition, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		def, ok := Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownCheck, id)
		}
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b Definition) int { return a.ID - b.ID })
	return defs, nil
}

// Split partitions defs into table-scoped and column-scoped checks.
func Split(defs []Definition) (table, column []Definition) {
	for _, def := range defs {
		if def.Scope == ScopeColumn {
			column = append(column, def)
		} else {
			table = append(table, def)
		}
	}
	return table, column
}

// Run evaluates the dependencies of def and, when they are met, its
// handler. Unmet dependencies produce a sentinel result without querying.
func Run(ctx context.Context, def Definition, r Resources) (Result, error) {
	lock.Lock()
	c, ok := checks[def.ID]
	lock.Unlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %d", ErrUnknownCheck, def.ID)
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}
	if def.Scope == ScopeColumn {
		if r.Column == nil {
			return Result{}, fmt.Errorf("check %d is column-scoped but no column was given", def.ID)
		}
		if def.TextOnly && !r.Column.IsText {
			return Sentinel(KindNotApplicable), nil
		}
	}
	if def.RequiresPrimaryKey && !def.StagingKey {
		keys, err := r.Lookup.StoreKeys(ctx)
		if err != nil {
			return Result{}, err
		}
		if len(keys.PrimaryKey) == 0 {
			return Sentinel(KindNoPrimaryKey), nil
		}
	}
	if def.RequiresStaging {
		st, err := r.Lookup.Staging(ctx)
		if err != nil {
			return Result{}, err
		}
		if !st.Exists {
			return Sentinel(KindNoStaging), nil
		}
	}
	if def.RequiresPrimaryKey && def.StagingKey {
		keys, err := r.Lookup.StagingKeys(ctx)
		if err != nil {
			return Result{}, err
		}
		if len(keys.PrimaryKey) == 0 {
			return Sentinel(KindNoPrimaryKey), nil
		}
	}
	return c.handler(ctx, r)
}

// queryRow renders purpose and returns the first row of its result.
func queryRow(ctx context.Context, r Resources, purpose templates.Purpose, p templates.Params) ([]any, error) {
	rows, err := query(ctx, r, purpose, p)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s on %s.%s: %w", purpose, p.Schema, p.Table, ErrNoResultRow)
	}
	return rows[0], nil
}

func query(ctx context.Context, r Resources, purpose templates.Purpose, p templates.Params) ([][]any, error) {
	sql, err := templates.Render(purpose, r.Querier.Dialect(), p)
	if err != nil {
		return nil, err
	}
	return r.Querier.Query(ctx, sql)
}
