package typeconv

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ToInt64 converts a driver value holding an integer. Numeric strings,
// as returned for NUMERIC aggregates, are accepted when they are whole.
func ToInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("value %v is not a whole number", v)
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return ToInt64(string(v))
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil || !d.IsInteger() {
			return 0, fmt.Errorf("value %q is not an integer", v)
		}
		return d.IntPart(), nil
	case nil:
		return 0, fmt.Errorf("value is NULL")
	default:
		return 0, fmt.Errorf("unsupported integer type %T", value)
	}
}

// ToDecimal converts a driver value holding a number.
func ToDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case []byte:
		return ToDecimal(string(v))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("value %q is not a number: %w", v, err)
		}
		return d, nil
	case nil:
		return decimal.Zero, fmt.Errorf("value is NULL")
	default:
		return decimal.Zero, fmt.Errorf("unsupported numeric type %T", value)
	}
}

// ToString renders a driver value for display. NULL becomes the empty
// string and timestamps use a sortable layout.
func ToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.DateTime)
	case decimal.Decimal:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
