package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the type of a single cell or of a whole column.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "numeric"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a single table cell. The zero Value is null.
// Values are comparable and can be used as map keys.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// Null returns the missing-value marker.
func Null() Value { return Value{} }

// Number returns a numeric cell. NaN is stored as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	if f == 0 {
		f = 0 // fold -0 so equal numbers compare equal as map keys
	}
	return Value{kind: KindNumber, num: f}
}

// Text returns a text cell.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric payload; ok is false for non-numeric cells.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Boolean returns the boolean payload; ok is false for non-bool cells.
func (v Value) Boolean() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// String renders the cell the way it is exported. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindText:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Equal reports element-wise equality; null equals null.
func (v Value) Equal(o Value) bool { return v == o }

// Less orders values naturally: null first, then numbers ascending,
// bools (false < true), then text lexicographically.
func (v Value) Less(o Value) bool {
	if v.kind != o.kind {
		return kindRank(v.kind) < kindRank(o.kind)
	}
	switch v.kind {
	case KindNumber:
		return v.num < o.num
	case KindBool:
		return !v.b && o.b
	case KindText:
		return v.str < o.str
	default:
		return false
	}
}

func kindRank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindNumber:
		return 1
	case KindBool:
		return 2
	default:
		return 3
	}
}

// FormatNumber prints integral floats without a fractional part.
func FormatNumber(f float64) string {
	if math.IsInf(f, 0) {
		if f > 0 {
			return "inf"
		}
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseBool accepts the spellings spreadsheets commonly export.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
