package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

func nums(xs ...any) []table.Value {
	out := make([]table.Value, len(xs))
	for i, x := range xs {
		switch v := x.(type) {
		case nil:
			out[i] = table.Null()
		case int:
			out[i] = table.Number(float64(v))
		case float64:
			out[i] = table.Number(v)
		case string:
			out[i] = table.Text(v)
		case bool:
			out[i] = table.Bool(v)
		}
	}
	return out
}

func col(name string, xs ...any) *table.Column { return table.NewColumn(name, nums(xs...)) }

func columnValues(t *testing.T, tb *table.Table, name string) []table.Value {
	t.Helper()
	c, err := tb.Column(name)
	require.NoError(t, err)
	return c.Values()
}

func TestRemoveDuplicates_KeepsFirstOccurrence(t *testing.T) {
	in := table.MustNew(
		col("colA", 1, 2, 2, 3),
		col("colB", "x", "y", "y", "z"),
	)
	res, err := Apply(in, RemoveDuplicates{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.RowsRemoved())
	assert.False(t, res.NoOp)
	assert.Equal(t, nums(1, 2, 3), columnValues(t, res.Table, "colA"))
	assert.Equal(t, nums("x", "y", "z"), columnValues(t, res.Table, "colB"))
	assert.Equal(t, 4, in.NumRows(), "input must not change")
	assert.Equal(t, "Removed 1 duplicate row.", RemoveDuplicates{}.Summary(res))
}

func TestRemoveDuplicates_NullsCompareEqual(t *testing.T) {
	in := table.MustNew(
		col("a", nil, nil, 1),
		col("b", "x", "x", "x"),
	)
	res, err := Apply(in, RemoveDuplicates{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsAfter)
}

func TestRemoveDuplicates_DistinguishesKinds(t *testing.T) {
	// The number 1 and the text "1" are different cells.
	in := table.MustNew(table.NewColumn("a", []table.Value{table.Number(1), table.Text("1")}))
	res, err := Apply(in, RemoveDuplicates{})
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Same(t, in, res.Table)
	assert.Equal(t, "No duplicate rows found.", RemoveDuplicates{}.Summary(res))
}

func TestRemoveDuplicates_Idempotent(t *testing.T) {
	in := table.MustNew(
		col("a", 1, 1, 2, nil, nil, 2, 3),
		col("b", "p", "p", "q", nil, nil, "q", "p"),
	)
	once, err := Apply(in, RemoveDuplicates{})
	require.NoError(t, err)
	twice, err := Apply(once.Table, RemoveDuplicates{})
	require.NoError(t, err)
	assert.True(t, once.Table.Equal(twice.Table))
	assert.True(t, twice.NoOp)
}

func TestHandleMissing_DropRows(t *testing.T) {
	in := table.MustNew(col("colA", 1, nil, 3), col("colB", "x", "y", "z"))
	res, err := Apply(in, HandleMissing{Column: "colA", Strategy: DropRows})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsAfter)
	assert.Equal(t, nums(1, 3), columnValues(t, res.Table, "colA"))
	assert.Equal(t, nums("x", "z"), columnValues(t, res.Table, "colB"))
}

func TestHandleMissing_DropRowsCanEmptyTable(t *testing.T) {
	in := table.MustNew(col("a", nil, nil))
	res, err := Apply(in, HandleMissing{Column: "a", Strategy: DropRows})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Table.NumRows())
}

func TestHandleMissing_FillMean(t *testing.T) {
	in := table.MustNew(col("colA", 10, 20, nil))
	res, err := Apply(in, HandleMissing{Column: "colA", Strategy: FillMean})
	require.NoError(t, err)
	assert.Equal(t, nums(10, 20, 15.0), columnValues(t, res.Table, "colA"))
	assert.Equal(t, 1, res.CellsFilled)
}

func TestHandleMissing_FillMedian(t *testing.T) {
	in := table.MustNew(col("a", 1, nil, 3, 10, 4))
	res, err := Apply(in, HandleMissing{Column: "a", Strategy: FillMedian})
	require.NoError(t, err)
	assert.Equal(t, nums(1, 3.5, 3, 10, 4), columnValues(t, res.Table, "a"))
}

func TestHandleMissing_FillMeanOnTextIsTypeMismatch(t *testing.T) {
	in := table.MustNew(col("colA", "cat", "dog", nil))
	_, err := Apply(in, HandleMissing{Column: "colA", Strategy: FillMean})
	require.Error(t, err)
	assert.ErrorIs(t, err, table.ErrTypeMismatch)

	var opErr *OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "colA", opErr.Column)
	assert.Equal(t, nums("cat", "dog", nil), columnValues(t, in, "colA"))
}

func TestHandleMissing_FillMeanAllNullIsNoChange(t *testing.T) {
	in := table.MustNew(col("a", nil, nil))
	res, err := Apply(in, HandleMissing{Column: "a", Strategy: FillMean})
	require.NoError(t, err)
	assert.Same(t, in, res.Table)
}

func TestHandleMissing_FillMode(t *testing.T) {
	tests := []struct {
		name string
		in   *table.Column
		want table.Value
	}{
		{"single winner", col("a", "b", "a", "b", nil), table.Text("b")},
		{"tie picks smallest text", col("a", "pear", "apple", nil), table.Text("apple")},
		{"tie picks smallest number", col("a", 9, 2, nil, 9, 2), table.Number(2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Apply(table.MustNew(tt.in), HandleMissing{Column: "a", Strategy: FillMode})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.FillValue)
			for _, v := range columnValues(t, res.Table, "a") {
				assert.False(t, v.IsNull())
			}
		})
	}
}

func TestHandleMissing_FillModeWithoutValues(t *testing.T) {
	_, err := Apply(table.MustNew(col("a", nil)), HandleMissing{Column: "a", Strategy: FillMode})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHandleMissing_FillCustom(t *testing.T) {
	t.Run("numeric literal keeps numeric column", func(t *testing.T) {
		res, err := Apply(table.MustNew(col("a", 1, nil)), HandleMissing{Column: "a", Strategy: FillCustom, Value: "7"})
		require.NoError(t, err)
		assert.Equal(t, nums(1, 7), columnValues(t, res.Table, "a"))
		ok, _ := res.Table.IsNumeric("a")
		assert.True(t, ok)
	})
	t.Run("text literal on numeric column", func(t *testing.T) {
		res, err := Apply(table.MustNew(col("a", 1, nil)), HandleMissing{Column: "a", Strategy: FillCustom, Value: "unknown"})
		require.NoError(t, err)
		assert.Equal(t, nums(1, "unknown"), columnValues(t, res.Table, "a"))
		ok, _ := res.Table.IsNumeric("a")
		assert.False(t, ok)
	})
	t.Run("text column gets text", func(t *testing.T) {
		res, err := Apply(table.MustNew(col("a", "x", nil)), HandleMissing{Column: "a", Strategy: FillCustom, Value: "5"})
		require.NoError(t, err)
		assert.Equal(t, nums("x", "5"), columnValues(t, res.Table, "a"))
	})
	t.Run("empty literal fills empty text", func(t *testing.T) {
		res, err := Apply(table.MustNew(col("a", "x", nil)), HandleMissing{Column: "a", Strategy: FillCustom})
		require.NoError(t, err)
		assert.Equal(t, 1, res.CellsFilled)
		assert.Equal(t, nums("x", ""), columnValues(t, res.Table, "a"))
	})
	t.Run("decimal comma literal", func(t *testing.T) {
		in, err := table.FromRecords([]string{"a"}, [][]string{{"1,5"}, {""}}, table.ParseOptions{DecimalSeparator: ','})
		require.NoError(t, err)
		res, err := Apply(in, HandleMissing{Column: "a", Strategy: FillCustom, Value: "2,5"})
		require.NoError(t, err)
		assert.Equal(t, nums(1.5, 2.5), columnValues(t, res.Table, "a"))
	})
}

func TestFilterRows_UsesTableNumberFormat(t *testing.T) {
	in, err := table.FromRecords([]string{"amount", "code"}, [][]string{{"1,5", "1,5"}, {"3,5", "x"}}, table.ParseOptions{DecimalSeparator: ','})
	require.NoError(t, err)

	res, err := Apply(in, FilterRows{Column: "amount", Operator: Gt, Value: "2,5"})
	require.NoError(t, err)
	assert.Equal(t, nums(3.5), columnValues(t, res.Table, "amount"))

	res, err = Apply(in, FilterRows{Column: "amount", Operator: Eq, Value: "1,5"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAfter)

	// Text cells are coerced with the same separators.
	res, err = Apply(in, FilterRows{Column: "code", Operator: Lt, Value: "2"})
	require.NoError(t, err)
	assert.Equal(t, nums("1,5"), columnValues(t, res.Table, "code"))

	_, err = Apply(in, FilterRows{Column: "amount", Operator: Gt, Value: "2.5"})
	assert.ErrorIs(t, err, ErrInvalidFilterValue)
}

func TestHandleMissing_UnknownColumn(t *testing.T) {
	_, err := Apply(table.MustNew(col("a", 1)), HandleMissing{Column: "b", Strategy: DropRows})
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestFilterRows_Comparisons(t *testing.T) {
	in := table.MustNew(col("colA", 5, 15, 25))
	tests := []struct {
		op   Operator
		val  string
		want []table.Value
	}{
		{Gt, "10", nums(15, 25)},
		{Ge, "15", nums(15, 25)},
		{Lt, "15", nums(5)},
		{Le, "15", nums(5, 15)},
		{Eq, "15", nums(15)},
		{Ne, "15", nums(5, 25)},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			res, err := Apply(in, FilterRows{Column: "colA", Operator: tt.op, Value: tt.val})
			require.NoError(t, err)
			assert.Equal(t, tt.want, columnValues(t, res.Table, "colA"))
		})
	}
}

func TestFilterRows_ComparisonCoercesTextCells(t *testing.T) {
	in := table.MustNew(col("a", "3", "x", "12", nil))
	res, err := Apply(in, FilterRows{Column: "a", Operator: Gt, Value: "5"})
	require.NoError(t, err)
	assert.Equal(t, nums("12"), columnValues(t, res.Table, "a"))
}

func TestFilterRows_InvalidNumericLiteral(t *testing.T) {
	_, err := Apply(table.MustNew(col("a", 1)), FilterRows{Column: "a", Operator: Gt, Value: "ten"})
	assert.ErrorIs(t, err, ErrInvalidFilterValue)
}

func TestFilterRows_EqualityFallsBackToText(t *testing.T) {
	in := table.MustNew(col("a", 1, 2, nil))
	// "abc" cannot become a number, so cells are compared as text and nothing matches.
	res, err := Apply(in, FilterRows{Column: "a", Operator: Eq, Value: "abc"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.RowsAfter)

	res, err = Apply(in, FilterRows{Column: "a", Operator: Ne, Value: "abc"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.RowsAfter)
}

func TestFilterRows_EqualityOnMixedTextColumn(t *testing.T) {
	mixed := table.NewColumn("a", []table.Value{table.Number(1), table.Text("1"), table.Text("one")})
	res, err := Apply(table.MustNew(mixed), FilterRows{Column: "a", Operator: Eq, Value: "1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsAfter)
}

func TestFilterRows_Contains(t *testing.T) {
	in := table.MustNew(col("name", "Alice", "bob", "ALICIA", nil))
	res, err := Apply(in, FilterRows{Column: "name", Operator: Contains, Value: "ali"})
	require.NoError(t, err)
	assert.Equal(t, nums("Alice", "ALICIA"), columnValues(t, res.Table, "name"))
}

func TestFilterRows_NullChecks(t *testing.T) {
	in := table.MustNew(col("a", 1, nil, 3))
	res, err := Apply(in, FilterRows{Column: "a", Operator: IsNull})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAfter)

	res, err = Apply(in, FilterRows{Column: "a", Operator: IsNotNull, Value: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsAfter)
}

func TestFilterRows_InvalidInputBeforeColumnLookup(t *testing.T) {
	in := table.MustNew(col("a", 1))
	_, err := Apply(in, FilterRows{Column: "missing", Operator: Gt})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, table.ErrColumnNotFound)

	_, err = Apply(in, FilterRows{Column: "missing", Operator: Operator(42), Value: "1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseStrategyAndOperator(t *testing.T) {
	s, err := ParseStrategy("Fill with Mean")
	require.NoError(t, err)
	assert.Equal(t, FillMean, s)
	s, err = ParseStrategy("Fill with Value:")
	require.NoError(t, err)
	assert.Equal(t, FillCustom, s)
	_, err = ParseStrategy("interpolate")
	assert.ErrorIs(t, err, ErrInvalidInput)

	op, err := ParseOperator(">=")
	require.NoError(t, err)
	assert.Equal(t, Ge, op)
	op, err = ParseOperator("is-not-null")
	require.NoError(t, err)
	assert.Equal(t, IsNotNull, op)
	_, err = ParseOperator("between")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
