// Package analysis summarizes and charts tables held by a session.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// Options controls what Describe computes.
type Options struct {
	// SampleRows determines how many head rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the value counts listed for non-numeric columns.
	TopValues int
}

// DefaultOptions returns reasonable defaults for describing a table.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// Report is a markdown-friendly description of a table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
}

// ColumnSummary captures the kind and statistics of one column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|bool|text
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min    float64
	Max    float64
	Mean   float64
	Std    float64
	Median float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Most frequent values of bool and text columns
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Describe computes a Report for t. The table is only read.
func Describe(t *table.Table, name string, opt Options) (*Report, error) {
	if t == nil {
		return nil, errors.New("describe: no table")
	}
	groupCols := make([]*table.Column, 0, len(opt.GroupBy))
	for _, g := range opt.GroupBy {
		c, err := t.Column(strings.TrimSpace(g))
		if err != nil {
			return nil, fmt.Errorf("group by: %w", err)
		}
		groupCols = append(groupCols, c)
	}

	rep := &Report{Name: name, Rows: t.NumRows()}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}
	for i := 0; i < t.NumRows() && i < sampleRows; i++ {
		rep.Samples = append(rep.Samples, rowStrings(t.Row(i)))
	}

	var numCols []*table.Column
	rep.Cols = make([]ColumnSummary, 0, t.NumCols())
	for j := 0; j < t.NumCols(); j++ {
		c := t.ColumnAt(j)
		s := summarize(c, opt)
		if c.IsNumeric() && s.NonNull > 0 {
			numCols = append(numCols, c)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if len(groupCols) > 0 {
		rep.Groups = groupSummaries(t, groupCols, numCols)
	}
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlations(numCols)
	}
	if t.NumRows() == 0 {
		rep.Warnings = append(rep.Warnings, "table has no rows")
	}
	return rep, nil
}

func summarize(c *table.Column, opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.Name(), Kind: c.Kind().String()}
	counts := make(map[table.Value]int)
	var vals []float64
	// Welford
	var n int
	var mean, m2 float64
	minV, maxV := math.Inf(1), math.Inf(-1)
	for i := 0; i < c.Len(); i++ {
		v := c.Value(i)
		if v.IsNull() {
			s.Missing++
			continue
		}
		s.NonNull++
		counts[v]++
		x, ok := v.Float()
		if !ok || !c.IsNumeric() {
			continue
		}
		vals = append(vals, x)
		n++
		if x < minV {
			minV = x
		}
		if x > maxV {
			maxV = x
		}
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	s.Unique = len(counts)

	if c.IsNumeric() {
		if n == 0 {
			return s
		}
		s.Min, s.Max, s.Mean = minV, maxV, mean
		if n > 1 {
			s.Std = math.Sqrt(m2 / float64(n-1))
		}
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		s.Median = quantile(sorted, 0.5)
		if opt.Outliers && n >= 8 {
			s.OutlierThreshold, s.OutliersCount, s.OutliersMaxAbsZ = outliers(vals, opt.OutlierThreshold)
		}
		return s
	}

	s.TopValues = topCounts(counts, opt.TopValues)
	return s
}

func outliers(vals []float64, thr float64) (float64, int, float64) {
	if thr <= 0 {
		thr = 3.5
	}
	median, mad := medianMAD(vals)
	var cnt int
	maxAbsZ := 0.0
	if mad > 0 {
		for _, v := range vals {
			az := math.Abs(0.6745 * (v - median) / mad)
			if az > thr {
				cnt++
			}
			if az > maxAbsZ {
				maxAbsZ = az
			}
		}
	}
	return thr, cnt, maxAbsZ
}

// topCounts orders values by count descending, then by natural value order.
func topCounts(counts map[table.Value]int, limit int) []CategoryCount {
	keys := make([]table.Value, 0, len(counts))
	for v := range counts {
		keys = append(keys, v)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := counts[keys[i]], counts[keys[j]]
		if ci == cj {
			return keys[i].Less(keys[j])
		}
		return ci > cj
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]CategoryCount, len(keys))
	for i, k := range keys {
		out[i] = CategoryCount{Value: k.String(), Count: counts[k]}
	}
	return out
}

func groupSummaries(t *table.Table, groupCols, numCols []*table.Column) []GroupResult {
	type gAcc struct {
		size int
		sum  map[string]float64
		cnt  map[string]int
		min  map[string]float64
		max  map[string]float64
	}
	groups := map[string]*gAcc{}
	for i := 0; i < t.NumRows(); i++ {
		parts := make([]string, len(groupCols))
		for k, gc := range groupCols {
			parts[k] = fmt.Sprintf("%s=%s", gc.Name(), safeVal(displayValue(gc.Value(i))))
		}
		key := strings.Join(parts, " | ")
		ga := groups[key]
		if ga == nil {
			ga = &gAcc{sum: map[string]float64{}, cnt: map[string]int{}, min: map[string]float64{}, max: map[string]float64{}}
			groups[key] = ga
		}
		ga.size++
		for _, nc := range numCols {
			x, ok := nc.Value(i).Float()
			if !ok {
				continue
			}
			name := nc.Name()
			ga.sum[name] += x
			ga.cnt[name]++
			if _, ok := ga.min[name]; !ok || x < ga.min[name] {
				ga.min[name] = x
			}
			if _, ok := ga.max[name]; !ok || x > ga.max[name] {
				ga.max[name] = x
			}
		}
	}

	out := make([]GroupResult, 0, len(groups))
	for k, ga := range groups {
		gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
		for name, cnt := range ga.cnt {
			gr.Metrics[name] = NumSummary{Count: cnt, Min: ga.min[name], Max: ga.max[name], Mean: ga.sum[name] / float64(cnt)}
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// correlations uses pairwise-complete rows for each pair of columns.
func correlations(numCols []*table.Column) *CorrMatrix {
	n := len(numCols)
	names := make([]string, n)
	mat := make([][]float64, n)
	for i, c := range numCols {
		names[i] = c.Name()
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(numCols[a], numCols[b])
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

func pearson(ca, cb *table.Column) float64 {
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for i := 0; i < ca.Len(); i++ {
		x, okx := ca.Value(i).Float()
		y, oky := cb.Value(i).Float()
		if !okx || !oky {
			continue
		}
		n++
		sumX += x
		sumY += y
		sumXX += x * x
		sumYY += y * y
		sumXY += x * y
	}
	if n < 2 {
		return 0
	}
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 {
		return 0
	}
	r := (n*sumXY - sumX*sumY) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Markdown renders a compact report suitable for a terminal or a standalone doc.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)", safeName(c.Name), c.Kind, c.NonNull, missPct, c.Unique))
		switch {
		case c.Kind == "numeric" && c.NonNull > 0:
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Median, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case len(c.TopValues) > 0:
			b.WriteString(": top ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Corr.TopPairs(10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD ROWS]\n")
		names := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = c.Name
		}
		writeMarkdownTable(&b, names, r.Samples)
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// TopPairs lists the strongest off-diagonal correlations by |r|.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func writeMarkdownTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(safeName(h)))
	}
	b.WriteString(" |\n| ")
	for i := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if len(val) > 80 {
				val = val[:77] + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
}

func rowStrings(row []table.Value) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = displayValue(v)
	}
	return out
}

// displayValue renders a cell the way the grid shows it.
func displayValue(v table.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	return v.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
