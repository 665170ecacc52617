package check

// Kind tells a computed value apart from the sentinel outcomes.
type Kind uint8

const (
	KindValue Kind = iota
	KindNotApplicable
	KindNoPrimaryKey
	KindNoBusinessKey
	KindNoStaging
	KindEmpty
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindNotApplicable:
		return "not applicable"
	case KindNoPrimaryKey:
		return "no primary key"
	case KindNoBusinessKey:
		return "no business key"
	case KindNoStaging:
		return "no staging"
	case KindEmpty:
		return "empty"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one check. A tuple value holds one element per
// declared output.
type Result struct {
	Kind  Kind
	Value any
}

func Value(v any) Result {
	return Result{Kind: KindValue, Value: v}
}

func Tuple(vs ...any) Result {
	return Result{Kind: KindValue, Value: vs}
}

func Sentinel(k Kind) Result {
	return Result{Kind: k}
}

// IsSentinel is true for every outcome other than a computed value.
func (r Result) IsSentinel() bool {
	return r.Kind != KindValue
}

// Cells spreads the result over n output columns. Sentinels repeat their
// label in every column.
func (r Result) Cells(n int) []any {
	cells := make([]any, n)
	if r.IsSentinel() {
		for i := range cells {
			cells[i] = r.Kind.String()
		}
		return cells
	}
	if tuple, ok := r.Value.([]any); ok {
		copy(cells, tuple)
		return cells
	}
	if n > 0 {
		cells[0] = r.Value
	}
	return cells
}

// Flagged is true for a 0/1 flag result equal to 1.
func (r Result) Flagged() bool {
	if r.Kind != KindValue {
		return false
	}
	v, ok := r.Value.(int64)
	return ok && v == 1
}
