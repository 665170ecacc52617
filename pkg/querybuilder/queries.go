package querybuilder

import (
	"errors"

	"github.com/block/qualitychecker/pkg/dialect"
	"github.com/block/qualitychecker/pkg/templates"
)

var ErrNoKey = errors.New("key column list is empty")

// IncrementVariant selects the increment-correctness template.
type IncrementVariant int

const (
	// IncrementBase compares every staging row with the store.
	IncrementBase IncrementVariant = iota
	// IncrementSoftDelete additionally ignores store rows flagged deleted.
	IncrementSoftDelete
)

func (v IncrementVariant) String() string {
	if v == IncrementSoftDelete {
		return "soft-delete"
	}
	return "base"
}

func (v IncrementVariant) template() templates.Purpose {
	if v == IncrementSoftDelete {
		return templates.IncrementSoftDelete
	}
	return templates.IncrementBase
}

// VariantFor picks the soft-delete variant when the store table declares
// the deleted-flag column.
func VariantFor(hasDeletedFlag bool) IncrementVariant {
	if hasDeletedFlag {
		return IncrementSoftDelete
	}
	return IncrementBase
}

// IncrementSpec describes one staging-vs-store increment comparison.
type IncrementSpec struct {
	StoreSchema   string
	StagingSchema string
	Table         string
	PrimaryKey    []string
	BusinessKey   []string
	DeletedFlag   string
	Variant       IncrementVariant
}

// IncrementQuery returns SQL whose single row is (ok, missing, changed):
// ok is 1 when every staging row has a matching, unchanged store row.
func IncrementQuery(d dialect.Dialect, s IncrementSpec) (string, error) {
	if len(s.PrimaryKey) == 0 {
		return "", ErrNoKey
	}
	return templates.Render(s.Variant.template(), d, templates.Params{
		Schema:        s.StoreSchema,
		StagingSchema: s.StagingSchema,
		Table:         s.Table,
		Key:           s.PrimaryKey,
		DeletedFlag:   s.DeletedFlag,
		Join:          Join(s.PrimaryKey).Render(d),
		Changed:       Changed(s.BusinessKey).Render(d),
		Unchanged:     Unchanged(s.BusinessKey).Render(d),
	})
}

// SegmentationQuery returns SQL computing the spread, in percent, between
// the largest and smallest key-hash bucket across the cluster's nodes.
func SegmentationQuery(d dialect.Dialect, schema, table string, key []string) (string, error) {
	if len(key) == 0 {
		return "", ErrNoKey
	}
	return templates.Render(templates.Segmentation, d, templates.Params{
		Schema: schema,
		Table:  table,
		Key:    key,
	})
}
