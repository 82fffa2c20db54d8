// Package table holds the in-memory tabular value the editor works on.
//
// A Table is never mutated after construction. Operations that change data
// build a new Table; untouched columns may share storage with the original
// because no exported method can write through them.
package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")
	// ErrTypeMismatch is returned when an operation needs a column of another type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrRaggedTable is returned when columns differ in length.
	ErrRaggedTable = errors.New("columns have different lengths")
)

// Column is a named sequence of values with a derived kind.
type Column struct {
	name   string
	kind   Kind
	values []Value
}

// NewColumn builds a column, taking ownership of values.
func NewColumn(name string, values []Value) *Column {
	return &Column{name: name, kind: deriveKind(values), values: values}
}

// deriveKind: numeric if every non-null value is a number (an all-null
// column counts as numeric), bool if every non-null value is bool, else text.
func deriveKind(values []Value) Kind {
	num, boolean := true, true
	for _, v := range values {
		switch v.kind {
		case KindNull:
		case KindNumber:
			boolean = false
		case KindBool:
			num = false
		default:
			return KindText
		}
		if !num && !boolean {
			return KindText
		}
	}
	if num {
		return KindNumber
	}
	return KindBool
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind { return c.kind }
func (c *Column) Len() int { return len(c.values) }
func (c *Column) Value(i int) Value { return c.values[i] }
func (c *Column) IsNumeric() bool { return c.kind == KindNumber }
func (c *Column) NullCount() int { return c.Len() - c.NonNullCount() }

// Values returns a copy of the column's values.
func (c *Column) Values() []Value {
	out := make([]Value, len(c.values))
	copy(out, c.values)
	return out
}

// NonNullCount returns the number of non-missing cells.
func (c *Column) NonNullCount() int {
	n := 0
	for _, v := range c.values {
		if !v.IsNull() {
			n++
		}
	}
	return n
}

// Table is an ordered set of equal-length, uniquely named columns.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
	parse ParseOptions
}

// New assembles a table from columns. The column list is copied.
func New(cols ...*Column) (*Table, error) {
	t := &Table{cols: append([]*Column(nil), cols...), index: make(map[string]int, len(cols)), parse: DefaultParseOptions()}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.name)
		}
		t.index[c.name] = i
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrRaggedTable, c.name, c.Len(), t.rows)
		}
	}
	return t, nil
}

// MustNew is New for fixtures and literals known to be valid.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds a typed table from a header and raw string rows.
// Short rows are padded with nulls; cells beyond the header are dropped.
// Blank header names become "Unnamed: <i>" and repeated names get a
// ".1", ".2", ... suffix. The table remembers opt for parsing literals later.
func FromRecords(header []string, records [][]string, opt ParseOptions) (*Table, error) {
	na := opt.naSet()
	names := uniqueNames(header)
	cols := make([]*Column, len(header))
	for j := range header {
		raw := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = rec[j]
			}
		}
		cols[j] = inferColumn(names[j], raw, opt, na)
	}
	t, err := New(cols...)
	if err != nil {
		return nil, err
	}
	t.parse = opt
	return t, nil
}

func uniqueNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for j, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", j)
		}
		names[j] = name
		used[name] = true
	}
	seen := make(map[string]bool, len(header))
	for j, name := range names {
		if !seen[name] {
			seen[name] = true
			continue
		}
		for k := 1; ; k++ {
			alt := fmt.Sprintf("%s.%d", name, k)
			if !used[alt] {
				names[j] = alt
				used[alt] = true
				seen[alt] = true
				break
			}
		}
	}
	return names
}

// ParseOptions returns the options the table was read with, used to parse
// user literals against its columns.
func (t *Table) ParseOptions() ParseOptions { return t.parse }

func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return t.cols[i], nil
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// IsNumeric reports whether the named column is numeric.
func (t *Table) IsNumeric(name string) (bool, error) {
	c, err := t.Column(name)
	if err != nil {
		return false, err
	}
	return c.IsNumeric(), nil
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.values[i]
	}
	return out
}

// Records renders every row as strings, nulls as "".
func (t *Table) Records() [][]string {
	out := make([][]string, t.rows)
	for i := range out {
		rec := make([]string, len(t.cols))
		for j, c := range t.cols {
			rec[j] = c.values[i].String()
		}
		out[i] = rec
	}
	return out
}

// TakeRows returns a new table holding the given rows in the given order.
// Column kinds are kept even if the remaining rows would infer differently.
func (t *Table) TakeRows(idx []int) *Table {
	cols := make([]*Column, len(t.cols))
	for j, c := range t.cols {
		vals := make([]Value, len(idx))
		for k, i := range idx {
			vals[k] = c.values[i]
		}
		cols[j] = &Column{name: c.name, kind: c.kind, values: vals}
	}
	return &Table{cols: cols, index: t.index, rows: len(idx), parse: t.parse}
}

// WithColumn returns a new table where the column of the same name is
// replaced by col. Other columns are shared with t.
func (t *Table) WithColumn(col *Column) (*Table, error) {
	i, ok := t.index[col.name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, col.name)
	}
	if col.Len() != t.rows {
		return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrRaggedTable, col.name, col.Len(), t.rows)
	}
	cols := make([]*Column, len(t.cols))
	copy(cols, t.cols)
	cols[i] = col
	return &Table{cols: cols, index: t.index, rows: t.rows, parse: t.parse}, nil
}

// Equal reports whether both tables have the same columns, kinds and cells.
func (t *Table) Equal(o *Table) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.rows != o.rows || len(t.cols) != len(o.cols) {
		return false
	}
	for j, c := range t.cols {
		oc := o.cols[j]
		if c.name != oc.name || c.kind != oc.kind {
			return false
		}
		for i := range c.values {
			if c.values[i] != oc.values[i] {
				return false
			}
		}
	}
	return true
}
