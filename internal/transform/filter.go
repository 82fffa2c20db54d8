package transform

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// Operator is the predicate used by FilterRows.
type Operator int

const (
	Eq Operator = iota + 1
	Ne
	Gt
	Lt
	Ge
	Le
	Contains
	IsNull
	IsNotNull
)

var operatorSymbols = map[Operator]string{
	Eq:        "==",
	Ne:        "!=",
	Gt:        ">",
	Lt:        "<",
	Ge:        ">=",
	Le:        "<=",
	Contains:  "contains",
	IsNull:    "is null",
	IsNotNull: "is not null",
}

func (o Operator) String() string {
	if s, ok := operatorSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("operator(%d)", int(o))
}

// NeedsValue reports whether the operator compares against a literal.
func (o Operator) NeedsValue() bool { return o != IsNull && o != IsNotNull }

func (o Operator) valid() bool {
	_, ok := operatorSymbols[o]
	return ok
}

// ParseOperator accepts symbols ("==", ">="), short names ("eq", "ge") and
// the null checks ("isnull", "is_not_null", "notnull").
func ParseOperator(s string) (Operator, error) {
	switch normalizeToken(s) {
	case "==", "=", "eq", "equals":
		return Eq, nil
	case "!=", "<>", "ne", "not_equals":
		return Ne, nil
	case ">", "gt":
		return Gt, nil
	case "<", "lt":
		return Lt, nil
	case ">=", "ge", "gte":
		return Ge, nil
	case "<=", "le", "lte":
		return Le, nil
	case "contains", "~":
		return Contains, nil
	case "isnull", "is_null", "null":
		return IsNull, nil
	case "isnotnull", "is_not_null", "notnull", "not_null":
		return IsNotNull, nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrInvalidInput, s)
}

// FilterRows keeps the rows where Column Operator Value holds.
type FilterRows struct {
	Column   string
	Operator Operator
	// Value is ignored by IsNull and IsNotNull.
	Value string
}

func (FilterRows) Name() string { return "filter_rows" }

func (f FilterRows) Apply(t *table.Table) (Result, error) {
	if !f.Operator.valid() {
		return Result{}, opErr(f.Name(), f.Column, fmt.Errorf("%w: unknown operator %d", ErrInvalidInput, int(f.Operator)))
	}
	if strings.TrimSpace(f.Column) == "" {
		return Result{}, opErr(f.Name(), "", fmt.Errorf("%w: column is required", ErrInvalidInput))
	}
	if f.Operator.NeedsValue() && f.Value == "" {
		return Result{}, opErr(f.Name(), f.Column, fmt.Errorf("%w: operator %s requires a value", ErrInvalidInput, f.Operator))
	}
	col, err := t.Column(f.Column)
	if err != nil {
		return Result{}, opErr(f.Name(), f.Column, err)
	}
	match, err := f.predicate(col, t.ParseOptions())
	if err != nil {
		return Result{}, opErr(f.Name(), f.Column, err)
	}
	keep := make([]int, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if match(col.Value(i)) {
			keep = append(keep, i)
		}
	}
	return Result{Table: t.TakeRows(keep), RowsBefore: t.NumRows(), RowsAfter: len(keep)}, nil
}

func (f FilterRows) Summary(r Result) string {
	cond := fmt.Sprintf("%s %s", f.Column, f.Operator)
	if f.Operator.NeedsValue() {
		cond = fmt.Sprintf("%s %s '%s'", f.Column, f.Operator, f.Value)
	}
	return fmt.Sprintf("Filtered rows where %s: kept %d of %d, removed %s.",
		cond, r.RowsAfter, r.RowsBefore, plural(r.RowsRemoved(), "row"))
}

func (f FilterRows) predicate(col *table.Column, opt table.ParseOptions) (func(table.Value) bool, error) {
	switch f.Operator {
	case IsNull:
		return table.Value.IsNull, nil
	case IsNotNull:
		return func(v table.Value) bool { return !v.IsNull() }, nil
	case Contains:
		needle := strings.ToLower(f.Value)
		return func(v table.Value) bool {
			return !v.IsNull() && strings.Contains(strings.ToLower(v.String()), needle)
		}, nil
	case Gt, Lt, Ge, Le:
		lit, ok := table.ParseNumber(f.Value, opt)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidFilterValue, f.Value)
		}
		cmp := numericComparer(f.Operator)
		return func(v table.Value) bool {
			x, ok := coerceNumber(v, opt)
			return ok && cmp(x, lit)
		}, nil
	default:
		eq := equality(col, f.Value, opt)
		if f.Operator == Eq {
			return func(v table.Value) bool { return !v.IsNull() && eq(v) }, nil
		}
		return func(v table.Value) bool { return v.IsNull() || !eq(v) }, nil
	}
}

func numericComparer(op Operator) func(a, b float64) bool {
	switch op {
	case Gt:
		return func(a, b float64) bool { return a > b }
	case Lt:
		return func(a, b float64) bool { return a < b }
	case Ge:
		return func(a, b float64) bool { return a >= b }
	default:
		return func(a, b float64) bool { return a <= b }
	}
}

// coerceNumber converts a cell for numeric comparison. Bools count as 1/0;
// text is parsed; anything else does not match.
func coerceNumber(v table.Value, opt table.ParseOptions) (float64, bool) {
	switch v.Kind() {
	case table.KindNumber:
		return v.Float()
	case table.KindBool:
		b, _ := v.Boolean()
		if b {
			return 1, true
		}
		return 0, true
	case table.KindText:
		return table.ParseNumber(v.String(), opt)
	default:
		return 0, false
	}
}

// equality first coerces the literal to the column's type and compares
// typed values. If the literal does not convert, it silently falls back
// to comparing the cell's text form with the literal.
func equality(col *table.Column, lit string, opt table.ParseOptions) func(table.Value) bool {
	switch col.Kind() {
	case table.KindNumber:
		if x, ok := table.ParseNumber(lit, opt); ok {
			want := table.Number(x)
			return func(v table.Value) bool { return v == want }
		}
	case table.KindBool:
		if b, ok := table.ParseBool(lit); ok {
			want := table.Bool(b)
			return func(v table.Value) bool { return v == want }
		}
	case table.KindText:
		want := table.Text(lit)
		return func(v table.Value) bool { return v == want || v.String() == lit }
	}
	return func(v table.Value) bool { return v.String() == lit }
}
