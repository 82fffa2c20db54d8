package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// Preview renders the first n rows of t as a Markdown table, nulls shown as
// NULL. n <= 0 shows every row.
func Preview(t *table.Table, n int) string {
	if t == nil {
		return "(no data loaded)\n"
	}
	rows := t.NumRows()
	if n <= 0 || n > rows {
		n = rows
	}
	records := make([][]string, n)
	for i := 0; i < n; i++ {
		records[i] = rowStrings(t.Row(i))
	}
	var b strings.Builder
	if t.NumCols() == 0 {
		b.WriteString("(empty table)\n")
		return b.String()
	}
	writeMarkdownTable(&b, t.Names(), records)
	if n < rows {
		fmt.Fprintf(&b, "(showing %d of %d rows)\n", n, rows)
	} else {
		fmt.Fprintf(&b, "(%d rows)\n", rows)
	}
	return b.String()
}
