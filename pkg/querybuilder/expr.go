// Package querybuilder assembles the comparison predicates used by the
// staging-vs-store checks. Predicates are built as a small expression tree
// over catalog-sourced column names and rendered per dialect, so identifiers
// are always quoted and the NULL-safe operator matches the engine.
package querybuilder

import (
	"strings"

	"github.com/block/qualitychecker/pkg/dialect"
)

// Source is the alias of one side of a staging-vs-store comparison.
type Source string

const (
	Store   Source = "ods"
	Staging Source = "stg"
)

// Expr is a boolean SQL expression.
type Expr interface {
	Render(d dialect.Dialect) string
}

// Literal is TRUE or FALSE.
type Literal bool

func (l Literal) Render(dialect.Dialect) string {
	if l {
		return "TRUE"
	}
	return "FALSE"
}

// ColumnRef is a column qualified by a source alias.
type ColumnRef struct {
	Source Source
	Name   string
}

func (c ColumnRef) String() string {
	return string(c.Source) + "." + dialect.QuoteIdent(c.Name)
}

// Compare is a binary comparison between two column references.
type Compare struct {
	Left, Right ColumnRef
	NullSafe    bool
}

func (c Compare) Render(d dialect.Dialect) string {
	if c.NullSafe {
		return "(" + d.NullSafeEqual(c.Left.String(), c.Right.String()) + ")"
	}
	return c.Left.String() + " = " + c.Right.String()
}

// Not negates an expression.
type Not struct {
	Expr Expr
}

func (n Not) Render(d dialect.Dialect) string {
	return "NOT " + n.Expr.Render(d)
}

// Op is the connective a Fold applies between its terms.
type Op string

const (
	And Op = "AND"
	Or  Op = "OR"
)

// Fold combines terms onto an initial literal with a single connective,
// e.g. FALSE OR t1 OR t2. With no terms it renders as the literal alone,
// which is the identity of the connective.
type Fold struct {
	Op    Op
	Base  Literal
	Terms []Expr
}

func (f Fold) Render(d dialect.Dialect) string {
	var sb strings.Builder
	sb.WriteString(f.Base.Render(d))
	for _, t := range f.Terms {
		sb.WriteString(" ")
		sb.WriteString(string(f.Op))
		sb.WriteString(" ")
		sb.WriteString(t.Render(d))
	}
	return sb.String()
}

// IsEmpty is true when the fold has no terms and so compares nothing.
func (f Fold) IsEmpty() bool {
	return len(f.Terms) == 0
}

// NullSafeEqual compares one column between the store and staging rows,
// treating NULL as equal to NULL.
func NullSafeEqual(col string) Compare {
	return Compare{
		Left:     ColumnRef{Source: Store, Name: col},
		Right:    ColumnRef{Source: Staging, Name: col},
		NullSafe: true,
	}
}

// Changed is true when any of cols differs between the two rows.
func Changed(cols []string) Fold {
	f := Fold{Op: Or, Base: false}
	for _, col := range cols {
		f.Terms = append(f.Terms, Not{Expr: NullSafeEqual(col)})
	}
	return f
}

// Unchanged is true when every one of cols matches between the two rows.
func Unchanged(cols []string) Fold {
	f := Fold{Op: And, Base: true}
	for _, col := range cols {
		f.Terms = append(f.Terms, NullSafeEqual(col))
	}
	return f
}

// Join is the ON condition pairing rows by primary key. Key columns are
// assumed NOT NULL so plain equality is used.
func Join(cols []string) Fold {
	f := Fold{Op: And, Base: true}
	for _, col := range cols {
		f.Terms = append(f.Terms, Compare{
			Left:  ColumnRef{Source: Store, Name: col},
			Right: ColumnRef{Source: Staging, Name: col},
		})
	}
	return f
}
