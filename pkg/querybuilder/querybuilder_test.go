package querybuilder

import (
	"testing"

	"github.com/block/qualitychecker/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyFoldsAreIdentity(t *testing.T) {
	for _, d := range []dialect.Dialect{dialect.Vertica, dialect.Greenplum} {
		changed := Changed(nil)
		unchanged := Unchanged([]string{})
		join := Join(nil)
		assert.True(t, changed.IsEmpty())
		assert.True(t, unchanged.IsEmpty())
		assert.Equal(t, "FALSE", changed.Render(d))
		assert.Equal(t, "TRUE", unchanged.Render(d))
		assert.Equal(t, "TRUE", join.Render(d))
	}
}

func TestChangedVertica(t *testing.T) {
	f := Changed([]string{"id", "region"})
	assert.False(t, f.IsEmpty())
	assert.Equal(t,
		`FALSE OR NOT (ods."id" <=> stg."id") OR NOT (ods."region" <=> stg."region")`,
		f.Render(dialect.Vertica))
}

func TestUnchangedGreenplum(t *testing.T) {
	f := Unchanged([]string{"id", "region"})
	assert.Equal(t,
		`TRUE AND (ods."id" IS NOT DISTINCT FROM stg."id") AND (ods."region" IS NOT DISTINCT FROM stg."region")`,
		f.Render(dialect.Greenplum))
}

func TestJoinUsesPlainEquality(t *testing.T) {
	f := Join([]string{"id", "tech_load_ts"})
	want := `TRUE AND ods."id" = stg."id" AND ods."tech_load_ts" = stg."tech_load_ts"`
	assert.Equal(t, want, f.Render(dialect.Vertica))
	assert.Equal(t, want, f.Render(dialect.Greenplum))
}

func TestIdentifiersAreQuoted(t *testing.T) {
	f := Unchanged([]string{`x" OR 1=1 --`})
	assert.Equal(t, `TRUE AND (ods."x"" OR 1=1 --" <=> stg."x"" OR 1=1 --")`, f.Render(dialect.Vertica))
}

func TestVariantFor(t *testing.T) {
	assert.Equal(t, IncrementSoftDelete, VariantFor(true))
	assert.Equal(t, IncrementBase, VariantFor(false))
	assert.Equal(t, "soft-delete", IncrementSoftDelete.String())
	assert.Equal(t, "base", IncrementBase.String())
}

func TestIncrementQuery(t *testing.T) {
	spec := IncrementSpec{
		StoreSchema:   "ODS_SALES",
		StagingSchema: "STG_SALES",
		Table:         "orders",
		PrimaryKey:    []string{"id", "tech_load_ts"},
		BusinessKey:   []string{"id"},
		DeletedFlag:   "tech_is_deleted",
	}
	sql, err := IncrementQuery(dialect.Vertica, spec)
	require.NoError(t, err)
	assert.Contains(t, sql, `FROM "STG_SALES"."orders" stg`)
	assert.Contains(t, sql, `FROM "ODS_SALES"."orders" ods`)
	assert.Contains(t, sql, `TRUE AND ods."id" = stg."id" AND ods."tech_load_ts" = stg."tech_load_ts"`)
	assert.Contains(t, sql, `FALSE OR NOT (ods."id" <=> stg."id")`)
	assert.Contains(t, sql, `TRUE AND (ods."id" <=> stg."id")`)
	assert.NotContains(t, sql, "tech_is_deleted")

	spec.Variant = IncrementSoftDelete
	sql, err = IncrementQuery(dialect.Greenplum, spec)
	require.NoError(t, err)
	assert.Contains(t, sql, `COALESCE(ods."tech_is_deleted", FALSE) = FALSE`)
	assert.Contains(t, sql, `IS NOT DISTINCT FROM`)

	spec.PrimaryKey = nil
	_, err = IncrementQuery(dialect.Vertica, spec)
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestSegmentationQuery(t *testing.T) {
	sql, err := SegmentationQuery(dialect.Vertica, "ODS_SALES", "orders", []string{"id", "tech_load_ts"})
	require.NoError(t, err)
	assert.Contains(t, sql, `HASH("id", "tech_load_ts")`)
	assert.Contains(t, sql, `FROM "ODS_SALES"."orders"`)

	sql, err = SegmentationQuery(dialect.Greenplum, "ods_sales", "orders", []string{"id"})
	require.NoError(t, err)
	assert.Contains(t, sql, `CONCAT_WS('|', "id")`)
	assert.Contains(t, sql, "gp_segment_configuration")

	_, err = SegmentationQuery(dialect.Vertica, "ODS_SALES", "orders", nil)
	assert.ErrorIs(t, err, ErrNoKey)
}
