package typeconv

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		dataType string
		want     Family
	}{
		{"vertica varchar", "varchar(80)", FamilyText},
		{"vertica long varchar", "long varchar(1048576)", FamilyText},
		{"greenplum character varying", "character varying", FamilyText},
		{"greenplum text", "text", FamilyText},
		{"char", "CHAR(3)", FamilyText},
		{"int", "int", FamilyNumeric},
		{"numeric", "numeric(18,2)", FamilyNumeric},
		{"double", "double precision", FamilyNumeric},
		{"timestamp", "timestamp", FamilyTemporal},
		{"timestamptz", "timestamp with time zone", FamilyTemporal},
		{"boolean", "boolean", FamilyBoolean},
		{"uuid", "uuid", FamilyOther},
		{"binary", "varbinary(16)", FamilyOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.dataType))
			assert.Equal(t, tt.want == FamilyText, IsText(tt.dataType))
		})
	}
}

func TestDeclaredLength(t *testing.T) {
	assert.Equal(t, int64(80), DeclaredLength("varchar(80)"))
	assert.Equal(t, int64(0), DeclaredLength("text"))
	assert.Equal(t, int64(0), DeclaredLength("numeric(18,2)"))
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
	}{
		{"int64", int64(42), 42},
		{"int", 7, 7},
		{"whole float", float64(3), 3},
		{"string", "15", 15},
		{"numeric string", "15.000", 15},
		{"bytes", []byte("9"), 9},
		{"bool", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToInt64(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []any{nil, "abc", 1.5, "2.5", time.Now()} {
		_, err := ToInt64(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestToDecimal(t *testing.T) {
	d, err := ToDecimal("12.50")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

	d, err = ToDecimal(float64(33.33))
	require.NoError(t, err)
	assert.Equal(t, "33.33", d.String())

	d, err = ToDecimal(int64(100))
	require.NoError(t, err)
	assert.Equal(t, "100", d.String())

	_, err = ToDecimal(nil)
	assert.Error(t, err)
	_, err = ToDecimal("n/a")
	assert.Error(t, err)
}

func TestToString(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-01 12:30:00", ToString(ts))
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "abc", ToString([]byte("abc")))
	assert.Equal(t, "5", ToString(int64(5)))
	assert.Equal(t, "1.5", ToString(decimal.RequireFromString("1.50")))
}
