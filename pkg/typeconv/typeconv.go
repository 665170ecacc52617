// Package typeconv classifies warehouse column types and converts the
// loosely typed values returned by the drivers into Go values.
package typeconv

import (
	"regexp"
	"strconv"
	"strings"
)

// Family is the coarse class of a declared column type.
type Family int

const (
	FamilyOther Family = iota
	FamilyText
	FamilyNumeric
	FamilyTemporal
	FamilyBoolean
)

func (f Family) String() string {
	switch f {
	case FamilyText:
		return "text"
	case FamilyNumeric:
		return "numeric"
	case FamilyTemporal:
		return "temporal"
	case FamilyBoolean:
		return "boolean"
	default:
		return "other"
	}
}

var (
	// textRegex is the text-family pattern. It matches char, varchar,
	// long varchar, character varying and text.
	textRegex   = regexp.MustCompile(`(?i)char|text`)
	lengthRegex = regexp.MustCompile(`\((\d+)\)`)
)

// IsText reports whether dataType belongs to the text family.
func IsText(dataType string) bool {
	return textRegex.MatchString(dataType)
}

// Classify maps a declared Vertica or Greenplum data type to its family.
func Classify(dataType string) Family {
	if IsText(dataType) {
		return FamilyText
	}
	baseType := strings.ToUpper(strings.TrimSpace(dataType))
	if idx := strings.Index(baseType, "("); idx != -1 {
		baseType = strings.TrimSpace(baseType[:idx])
	}
	switch baseType {
	case "INT", "INTEGER", "INT8", "INT4", "INT2", "BIGINT", "SMALLINT", "TINYINT",
		"NUMERIC", "DECIMAL", "NUMBER", "MONEY",
		"FLOAT", "FLOAT8", "FLOAT4", "REAL", "DOUBLE PRECISION":
		return FamilyNumeric
	case "DATE", "TIME", "TIMETZ", "TIMESTAMP", "TIMESTAMPTZ", "INTERVAL",
		"TIME WITH TIME ZONE", "TIME WITHOUT TIME ZONE",
		"TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITHOUT TIME ZONE":
		return FamilyTemporal
	case "BOOL", "BOOLEAN":
		return FamilyBoolean
	default:
		return FamilyOther
	}
}

// DeclaredLength extracts the length from a type such as varchar(80).
// It returns 0 when the type carries no length.
func DeclaredLength(dataType string) int64 {
	matches := lengthRegex.FindStringSubmatch(dataType)
	if len(matches) != 2 {
		return 0
	}
	n, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
