package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// Strategy selects how HandleMissing treats null cells.
type Strategy int

const (
	DropRows Strategy = iota + 1
	FillMean
	FillMedian
	FillMode
	FillCustom
)

var strategyNames = map[Strategy]string{
	DropRows:   "drop_rows",
	FillMean:   "fill_mean",
	FillMedian: "fill_median",
	FillMode:   "fill_mode",
	FillCustom: "fill_custom",
}

var strategyLabels = map[Strategy]string{
	DropRows:   "Drop Rows",
	FillMean:   "Fill with Mean",
	FillMedian: "Fill with Median",
	FillMode:   "Fill with Mode",
	FillCustom: "Fill with Value",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Label is the display form, e.g. "Fill with Mean".
func (s Strategy) Label() string {
	if l, ok := strategyLabels[s]; ok {
		return l
	}
	return s.String()
}

// ParseStrategy accepts canonical names ("fill_mean"), short forms ("mean")
// and display labels ("Fill with Mean").
func ParseStrategy(s string) (Strategy, error) {
	switch normalizeToken(s) {
	case "drop", "drop_rows", "dropna":
		return DropRows, nil
	case "mean", "fill_mean", "fill_with_mean":
		return FillMean, nil
	case "median", "fill_median", "fill_with_median":
		return FillMedian, nil
	case "mode", "fill_mode", "fill_with_mode":
		return FillMode, nil
	case "value", "custom", "fill", "fill_custom", "fill_value", "fill_with_value":
		return FillCustom, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, s)
}

// HandleMissing drops or fills the null cells of one column.
type HandleMissing struct {
	Column   string
	Strategy Strategy
	// Value is the literal used by FillCustom.
	Value string
}

func (HandleMissing) Name() string { return "handle_missing" }

func (h HandleMissing) Apply(t *table.Table) (Result, error) {
	if strings.TrimSpace(h.Column) == "" {
		return Result{}, opErr(h.Name(), "", fmt.Errorf("%w: column is required", ErrInvalidInput))
	}
	if _, ok := strategyNames[h.Strategy]; !ok {
		return Result{}, opErr(h.Name(), h.Column, fmt.Errorf("%w: unknown strategy %d", ErrInvalidInput, int(h.Strategy)))
	}
	col, err := t.Column(h.Column)
	if err != nil {
		return Result{}, opErr(h.Name(), h.Column, err)
	}
	res := Result{RowsBefore: t.NumRows()}

	if h.Strategy == DropRows {
		keep := make([]int, 0, t.NumRows())
		for i := 0; i < col.Len(); i++ {
			if !col.Value(i).IsNull() {
				keep = append(keep, i)
			}
		}
		res.Table = t.TakeRows(keep)
		res.RowsAfter = len(keep)
		return res, nil
	}

	var fill table.Value
	switch h.Strategy {
	case FillMean, FillMedian:
		if !col.IsNumeric() {
			return Result{}, opErr(h.Name(), h.Column,
				fmt.Errorf("%w: %s can only be used on numeric columns (column is %s)", table.ErrTypeMismatch, h.Strategy.Label(), col.Kind()))
		}
		nums := numbers(col)
		if len(nums) == 0 {
			// Nothing to average; leave the column as it is.
			res.Table = t
			res.RowsAfter = t.NumRows()
			return res, nil
		}
		if h.Strategy == FillMean {
			fill = table.Number(mean(nums))
		} else {
			fill = table.Number(median(nums))
		}
	case FillMode:
		m, ok := mode(col)
		if !ok {
			return Result{}, opErr(h.Name(), h.Column, fmt.Errorf("%w: column has no values to take a mode from", ErrInvalidInput))
		}
		fill = m
	case FillCustom:
		fill = table.Text(h.Value)
		if col.IsNumeric() {
			if f, ok := table.ParseNumber(h.Value, t.ParseOptions()); ok {
				fill = table.Number(f)
			}
		}
	}

	vals := col.Values()
	for i, v := range vals {
		if v.IsNull() {
			vals[i] = fill
			res.CellsFilled++
		}
	}
	res.FillValue = fill
	res.RowsAfter = t.NumRows()
	if res.CellsFilled == 0 {
		res.Table = t
		return res, nil
	}
	nt, err := t.WithColumn(table.NewColumn(col.Name(), vals))
	if err != nil {
		return Result{}, opErr(h.Name(), h.Column, err)
	}
	res.Table = nt
	return res, nil
}

func (h HandleMissing) Summary(r Result) string {
	switch h.Strategy {
	case DropRows:
		return fmt.Sprintf("Dropped %s with missing values in '%s'.", plural(r.RowsRemoved(), "row"), h.Column)
	default:
		if r.CellsFilled == 0 {
			return fmt.Sprintf("Action '%s' applied to column '%s': no missing values filled.", h.Strategy.Label(), h.Column)
		}
		return fmt.Sprintf("Action '%s' applied to column '%s': filled %s with %s.",
			h.Strategy.Label(), h.Column, plural(r.CellsFilled, "cell"), r.FillValue.String())
	}
}

func numbers(c *table.Column) []float64 {
	out := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if f, ok := c.Value(i).Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	cp := make([]float64, len(xs))
	copy(cp, xs)
	sort.Float64s(cp)
	n := len(cp)
	if n%2 == 1 {
		return cp[n/2]
	}
	return (cp[n/2-1] + cp[n/2]) / 2
}

// mode returns the most frequent non-null value. Ties resolve to the
// smallest value in natural order (numbers ascending, then bools, then text).
func mode(c *table.Column) (table.Value, bool) {
	counts := make(map[table.Value]int)
	for i := 0; i < c.Len(); i++ {
		if v := c.Value(i); !v.IsNull() {
			counts[v]++
		}
	}
	var best table.Value
	bestN := 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v.Less(best)) {
			best, bestN = v, n
		}
	}
	return best, bestN > 0
}
