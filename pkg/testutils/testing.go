// Package testutils contains some common utilities used exclusively
// by the test suite.
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/block/qualitychecker/pkg/dbconn"
	"github.com/block/qualitychecker/pkg/dialect"
)

type rule struct {
	fragments []string
	rows      [][]any
	err       error
}

func (r rule) matches(sql string) bool {
	for _, f := range r.fragments {
		if !strings.Contains(sql, f) {
			return false
		}
	}
	return true
}

// FakeQuerier is an in-memory dbconn.Querier. Queries are answered by the
// first registered rule whose fragments all occur in the SQL text. An
// unmatched query is an error so tests notice unexpected statements.
type FakeQuerier struct {
	dialect dialect.Dialect

	sync.Mutex
	rules   []rule
	queries []string
}

var _ dbconn.Querier = (*FakeQuerier)(nil)

func NewFakeQuerier(d dialect.Dialect) *FakeQuerier {
	return &FakeQuerier{dialect: d}
}

// On answers queries containing every fragment with rows.
func (f *FakeQuerier) On(rows [][]any, fragments ...string) *FakeQuerier {
	f.Lock()
	defer f.Unlock()
	f.rules = append(f.rules, rule{fragments: fragments, rows: rows})
	return f
}

// Fail answers queries containing every fragment with err.
func (f *FakeQuerier) Fail(err error, fragments ...string) *FakeQuerier {
	f.Lock()
	defer f.Unlock()
	f.rules = append(f.rules, rule{fragments: fragments, err: err})
	return f
}

func (f *FakeQuerier) Dialect() dialect.Dialect {
	return f.dialect
}

func (f *FakeQuerier) Query(ctx context.Context, sql string) ([][]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.Lock()
	defer f.Unlock()
	f.queries = append(f.queries, sql)
	for _, r := range f.rules {
		if r.matches(sql) {
			return r.rows, r.err
		}
	}
	return nil, fmt.Errorf("fake querier: no rule for query: %s", sql)
}

// Queries returns every statement received so far.
func (f *FakeQuerier) Queries() []string {
	f.Lock()
	defer f.Unlock()
	return append([]string(nil), f.queries...)
}

// Count returns how many received statements contain fragment.
func (f *FakeQuerier) Count(fragment string) int {
	f.Lock()
	defer f.Unlock()
	n := 0
	for _, q := range f.queries {
		if strings.Contains(q, fragment) {
			n++
		}
	}
	return n
}

// Rows is a convenience for building result sets inline.
func Rows(rows ...[]any) [][]any {
	return rows
}
