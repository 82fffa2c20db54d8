package table

import (
	"strconv"
	"strings"
)

// DefaultNAValues are the cell spellings treated as missing on load.
var DefaultNAValues = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None", "<NA>", "#N/A"}

// ParseOptions controls how raw string cells become typed values.
type ParseOptions struct {
	// DecimalSeparator for numbers. If 0, '.' is used.
	DecimalSeparator rune
	// ThousandsSeparator is stripped from numbers when set and different from the decimal separator.
	ThousandsSeparator rune
	// NAValues lists cell spellings treated as null. If nil, DefaultNAValues is used.
	NAValues []string
}

// DefaultParseOptions returns options matching a plain CSV export.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{DecimalSeparator: '.', NAValues: DefaultNAValues}
}

func (o ParseOptions) naSet() map[string]struct{} {
	vals := o.NAValues
	if vals == nil {
		vals = DefaultNAValues
	}
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[strings.TrimSpace(v)] = struct{}{}
	}
	return set
}

// ParseNumber parses a numeric literal honoring the configured separators.
// Special spellings such as "inf", "nan" and hex literals are rejected.
func ParseNumber(s string, opt ParseOptions) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	if thou := opt.ThousandsSeparator; thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if !looksNumeric(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func looksNumeric(s string) bool {
	body := strings.TrimLeft(s, "+-")
	if body == "" || len(s)-len(body) > 1 {
		return false
	}
	for _, r := range body {
		switch {
		case r >= '0' && r <= '9', r == '.', r == 'e', r == 'E', r == '+', r == '-':
		default:
			return false
		}
	}
	return body[0] != 'e' && body[0] != 'E'
}

// inferColumn converts raw cells of one column into typed values.
// A column is numeric when every non-null cell parses as a number,
// bool when every non-null cell is true/false, and text otherwise.
func inferColumn(name string, raw []string, opt ParseOptions, na map[string]struct{}) *Column {
	vals := make([]Value, len(raw))
	isNA := make([]bool, len(raw))
	allNum, allBool := true, true
	nums := make([]float64, len(raw))
	bools := make([]bool, len(raw))
	for i, cell := range raw {
		if _, ok := na[strings.TrimSpace(cell)]; ok {
			isNA[i] = true
			continue
		}
		if allNum {
			if f, ok := ParseNumber(cell, opt); ok {
				nums[i] = f
			} else {
				allNum = false
			}
		}
		if allBool {
			if b, ok := ParseBool(cell); ok {
				bools[i] = b
			} else {
				allBool = false
			}
		}
	}
	for i, cell := range raw {
		switch {
		case isNA[i]:
			vals[i] = Null()
		case allNum:
			vals[i] = Number(nums[i])
		case allBool:
			vals[i] = Bool(bools[i])
		default:
			vals[i] = Text(cell)
		}
	}
	return NewColumn(name, vals)
}
