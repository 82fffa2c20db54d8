package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

const (
	DefaultBins     = 30
	DefaultBarTop   = 20
	defaultBarWidth = 40
)

// Bar is one labelled count in a chart.
type Bar struct {
	Label string
	Count int
}

// Chart is a plot reduced to labelled counts, ready for text rendering.
type Chart struct {
	Title  string
	Column string
	Bars   []Bar
	// Total is the number of non-null values that were counted.
	Total int
	// Omitted counts values not shown because of the top-N cut.
	Omitted int
}

// Histogram bins the non-null values of a numeric column into equal-width
// bins spanning [min, max]. The last bin includes max.
func Histogram(t *table.Table, column string, bins int) (*Chart, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	if !c.IsNumeric() {
		return nil, fmt.Errorf("%w: histogram needs a numeric column, %q is %s", table.ErrTypeMismatch, column, c.Kind())
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	var vals []float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < c.Len(); i++ {
		x, ok := c.Value(i).Float()
		if !ok || math.IsInf(x, 0) {
			continue
		}
		vals = append(vals, x)
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	ch := &Chart{Title: "Histogram of " + column, Column: column, Total: len(vals)}
	if len(vals) == 0 {
		return ch, nil
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(bins)
	counts := make([]int, bins)
	for _, x := range vals {
		k := int((x - lo) / width)
		if k >= bins {
			k = bins - 1
		}
		if k < 0 {
			k = 0
		}
		counts[k]++
	}
	ch.Bars = make([]Bar, bins)
	for k := range counts {
		from := lo + float64(k)*width
		to := from + width
		closing := ")"
		if k == bins-1 {
			to = hi
			closing = "]"
		}
		ch.Bars[k] = Bar{Label: fmt.Sprintf("[%.4g, %.4g%s", from, to, closing), Count: counts[k]}
	}
	return ch, nil
}

// BarChart counts the distinct non-null values of any column and keeps the
// top most frequent, ordered by count descending then by value.
func BarChart(t *table.Table, column string, top int) (*Chart, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	if top <= 0 {
		top = DefaultBarTop
	}
	counts := make(map[table.Value]int)
	total := 0
	for i := 0; i < c.Len(); i++ {
		v := c.Value(i)
		if v.IsNull() {
			continue
		}
		counts[v]++
		total++
	}
	ch := &Chart{Title: "Top values of " + column, Column: column, Total: total}
	for _, cc := range topCounts(counts, top) {
		ch.Bars = append(ch.Bars, Bar{Label: cc.Value, Count: cc.Count})
		total -= cc.Count
	}
	ch.Omitted = total
	return ch, nil
}

// Render draws the chart as horizontal text bars scaled to width columns.
func (c *Chart) Render(width int) string {
	if width <= 0 {
		width = defaultBarWidth
	}
	var b strings.Builder
	b.WriteString(c.Title)
	b.WriteString("\n")
	if len(c.Bars) == 0 {
		b.WriteString("(no values)\n")
		return b.String()
	}
	labelW, maxCount := 0, 0
	for _, bar := range c.Bars {
		labelW = max(labelW, len([]rune(bar.Label)))
		maxCount = max(maxCount, bar.Count)
	}
	labelW = min(labelW, 32)
	for _, bar := range c.Bars {
		n := 0
		if maxCount > 0 {
			n = int(math.Round(float64(bar.Count) * float64(width) / float64(maxCount)))
		}
		if n == 0 && bar.Count > 0 {
			n = 1
		}
		fmt.Fprintf(&b, "%-*s | %s %d\n", labelW, truncate(bar.Label, labelW), strings.Repeat("#", n), bar.Count)
	}
	if c.Omitted > 0 {
		fmt.Fprintf(&b, "(%d more values not shown)\n", c.Omitted)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
