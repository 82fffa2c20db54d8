package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/wrangle-cli/internal/history"
	"github.com/KaramelBytes/wrangle-cli/internal/logging"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
	"github.com/KaramelBytes/wrangle-cli/internal/transform"
)

func newSession(t *testing.T, limit int) *Session {
	t.Helper()
	clock := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	return New(Options{
		HistoryLimit: limit,
		Logger:       logging.Discard(),
		Now:          func() time.Time { return clock },
	})
}

func sample() *table.Table {
	return table.MustNew(
		table.NewColumn("colA", []table.Value{table.Number(1), table.Number(2), table.Number(2), table.Null(), table.Number(5)}),
		table.NewColumn("colB", []table.Value{table.Text("x"), table.Text("y"), table.Text("y"), table.Text("z"), table.Null()}),
	)
}

func loaded(t *testing.T) (*Session, *table.Table) {
	t.Helper()
	s := newSession(t, 0)
	tb := sample()
	_, err := s.Load(tb, "sample.csv")
	require.NoError(t, err)
	return s, tb
}

func TestApplyWithoutData(t *testing.T) {
	s := newSession(t, 0)
	_, err := s.Apply(transform.RemoveDuplicates{})
	assert.ErrorIs(t, err, ErrNoDataLoaded)
	assert.Empty(t, s.Log())
	assert.Equal(t, "No data loaded (Code: WR001). Load a CSV or Excel file first", FormatError(err))
}

func TestLoadResetsHistoryAndLog(t *testing.T) {
	s, _ := loaded(t)
	_, err := s.Apply(transform.RemoveDuplicates{})
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)
	require.True(t, s.CanRedo())

	msg, err := s.Load(sample(), "other.csv")
	require.NoError(t, err)
	assert.Equal(t, "Loaded other.csv (5 rows, 2 columns).", msg)
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	assert.Equal(t, history.Empty, s.HistoryState())
	require.Len(t, s.Log(), 1)
	assert.Equal(t, "[15:04:05] Loaded other.csv (5 rows, 2 columns).", s.Log()[0].String())
	assert.NotEmpty(t, s.Log()[0].ID)
}

func TestUndoRedoInverse(t *testing.T) {
	s, orig := loaded(t)
	msg, err := s.Apply(transform.HandleMissing{Column: "colA", Strategy: transform.DropRows})
	require.NoError(t, err)
	assert.Contains(t, msg, "Dropped 1 row")
	applied := s.Current()

	back, err := s.Undo()
	require.NoError(t, err)
	assert.True(t, back.Equal(orig))
	assert.Same(t, orig, s.Current())

	fwd, err := s.Redo()
	require.NoError(t, err)
	assert.True(t, fwd.Equal(applied))

	msgs := []string{}
	for _, e := range s.Log() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{
		"Loaded sample.csv (5 rows, 2 columns).",
		msg,
		"Performed UNDO",
		"Performed REDO",
	}, msgs)
}

func TestNewEditInvalidatesRedo(t *testing.T) {
	s, _ := loaded(t)
	_, err := s.Apply(transform.RemoveDuplicates{})
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)
	require.True(t, s.CanRedo())

	_, err = s.Apply(transform.FilterRows{Column: "colA", Operator: transform.Gt, Value: "1"})
	require.NoError(t, err)
	assert.False(t, s.CanRedo())
	_, err = s.Redo()
	assert.ErrorIs(t, err, history.ErrNothingToRedo)
}

func TestFailedApplyRollsBack(t *testing.T) {
	s, orig := loaded(t)
	_, err := s.Apply(transform.RemoveDuplicates{})
	require.NoError(t, err)
	before := s.Current()
	logLen := len(s.Log())

	_, err = s.Apply(transform.HandleMissing{Column: "colB", Strategy: transform.FillMean})
	require.ErrorIs(t, err, table.ErrTypeMismatch)
	assert.Same(t, before, s.Current())
	assert.Len(t, s.Log(), logLen)

	// The failed call left no phantom entry: one undo reaches the original.
	back, err := s.Undo()
	require.NoError(t, err)
	assert.Same(t, orig, back)
	assert.False(t, s.CanUndo())
}

func TestFailedApplyKeepsRedo(t *testing.T) {
	s, _ := loaded(t)
	_, err := s.Apply(transform.RemoveDuplicates{})
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)

	_, err = s.Apply(transform.FilterRows{Column: "nope", Operator: transform.Eq, Value: "1"})
	require.ErrorIs(t, err, table.ErrColumnNotFound)
	assert.True(t, s.CanRedo())
}

func TestRemoveDuplicatesNoOpIsInformational(t *testing.T) {
	s := newSession(t, 0)
	_, err := s.Load(table.MustNew(table.NewColumn("a", []table.Value{table.Number(1), table.Number(2)})), "")
	require.NoError(t, err)

	msg, err := s.Apply(transform.RemoveDuplicates{})
	require.NoError(t, err)
	assert.Equal(t, "No duplicate rows found.", msg)
	assert.False(t, s.CanUndo())
	assert.Len(t, s.Log(), 1)
}

func TestUndoThreeTimesReturnsToLoad(t *testing.T) {
	s, orig := loaded(t)
	ops := []transform.Operation{
		transform.RemoveDuplicates{},
		transform.HandleMissing{Column: "colA", Strategy: transform.FillMean},
		transform.FilterRows{Column: "colB", Operator: transform.IsNotNull},
	}
	for _, op := range ops {
		_, err := s.Apply(op)
		require.NoError(t, err, op.Name())
	}
	for range ops {
		_, err := s.Undo()
		require.NoError(t, err)
	}
	assert.Same(t, orig, s.Current())
	assert.False(t, s.CanUndo())
	_, err := s.Undo()
	assert.ErrorIs(t, err, history.ErrNothingToUndo)
	assert.Same(t, orig, s.Current())
}

func TestHistoryLimit(t *testing.T) {
	s := newSession(t, 1)
	_, err := s.Load(sample(), "")
	require.NoError(t, err)
	_, err = s.Apply(transform.RemoveDuplicates{})
	require.NoError(t, err)
	_, err = s.Apply(transform.HandleMissing{Column: "colA", Strategy: transform.DropRows})
	require.NoError(t, err)

	_, err = s.Undo()
	require.NoError(t, err)
	assert.False(t, s.CanUndo())
	assert.Equal(t, 1, s.HistoryLimit())
}

func TestDescribeCodes(t *testing.T) {
	_, err := transform.Apply(sample(), transform.FilterRows{Column: "colA", Operator: transform.Gt, Value: "x"})
	assert.Equal(t, "WR004", Describe(err).Code)
	assert.Contains(t, FormatError(err), `filter_rows on column "colA"`)

	assert.Equal(t, "WR006", Describe(history.ErrNothingToUndo).Code)
	assert.Equal(t, "WR007", Describe(history.ErrNothingToRedo).Code)
	assert.Equal(t, "WR000", Describe(assert.AnError).Code)
}
