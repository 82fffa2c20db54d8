package transform

import (
	"strconv"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// RemoveDuplicates drops rows equal to an earlier row across all columns.
// Nulls compare equal to nulls at the same position.
type RemoveDuplicates struct{}

func (RemoveDuplicates) Name() string { return "remove_duplicates" }

func (RemoveDuplicates) Apply(t *table.Table) (Result, error) {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	var b strings.Builder
	for i := 0; i < t.NumRows(); i++ {
		b.Reset()
		for j := 0; j < t.NumCols(); j++ {
			writeKey(&b, t.ColumnAt(j).Value(i))
		}
		k := b.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	res := Result{RowsBefore: t.NumRows(), RowsAfter: len(keep)}
	if len(keep) == t.NumRows() {
		res.Table = t
		res.NoOp = true
		return res, nil
	}
	res.Table = t.TakeRows(keep)
	return res, nil
}

func (RemoveDuplicates) Summary(r Result) string {
	if r.NoOp {
		return "No duplicate rows found."
	}
	return "Removed " + plural(r.RowsRemoved(), "duplicate row") + "."
}

// writeKey appends an unambiguous encoding of v: a kind tag followed by a
// length-prefixed payload, so no two distinct rows share a key.
func writeKey(b *strings.Builder, v table.Value) {
	s := v.String()
	b.WriteByte(byte('0' + v.Kind()))
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
