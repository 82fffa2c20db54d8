package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/wrangle-cli/internal/history"
	"github.com/KaramelBytes/wrangle-cli/internal/logging"
	"github.com/KaramelBytes/wrangle-cli/internal/session"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
	"github.com/KaramelBytes/wrangle-cli/internal/transform"
)

func TestParseStep(t *testing.T) {
	cases := []struct {
		line string
		want Step
	}{
		{"dedupe", Step{Action: ActionDedupe}},
		{"remove_duplicates", Step{Action: ActionDedupe}},
		{"missing colA mean", Step{Action: ActionMissing, Column: "colA", Strategy: "mean"}},
		{`missing "unit price" fill_custom n/a value`, Step{Action: ActionMissing, Column: "unit price", Strategy: "fill_custom", Value: "n/a value"}},
		{"filter colA > 10", Step{Action: ActionFilter, Column: "colA", Operator: ">", Value: "10"}},
		{"filter city contains new york", Step{Action: ActionFilter, Column: "city", Operator: "contains", Value: "new york"}},
		{"filter colB is not null", Step{Action: ActionFilter, Column: "colB", Operator: "is not null"}},
		{"filter colB is null", Step{Action: ActionFilter, Column: "colB", Operator: "is null"}},
		{"UNDO", Step{Action: ActionUndo}},
	}
	for _, tc := range cases {
		got, err := ParseStep(tc.line)
		require.NoError(t, err, tc.line)
		assert.Equal(t, tc.want, got, tc.line)
	}
}

func TestParseStepErrors(t *testing.T) {
	for _, line := range []string{"", "explode", "missing colA", "missing colA sideways", "filter colA", "filter colA ~~ 3", "dedupe now", `filter "open`} {
		_, err := ParseStep(line)
		assert.ErrorIs(t, err, transform.ErrInvalidInput, line)
	}
}

func TestStepStringRoundTrip(t *testing.T) {
	for _, line := range []string{"dedupe", "missing colA mean", `filter "unit price" >= 2.5`, "filter colB is not null", "redo"} {
		st, err := ParseStep(line)
		require.NoError(t, err)
		assert.Equal(t, line, st.String())
		again, err := ParseStep(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, again)
	}
}

const recipeYAML = `
name: tidy sales
steps:
  - action: dedupe
  - action: handle_missing
    column: amount
    strategy: median
  - "filter region == north"
`

func TestParseYAML(t *testing.T) {
	r, err := Parse([]byte(recipeYAML))
	require.NoError(t, err)
	assert.Equal(t, "tidy sales", r.Name)
	require.Len(t, r.Steps, 3)
	assert.Equal(t, ActionDedupe, r.Steps[0].Action)
	assert.Equal(t, Step{Action: ActionMissing, Column: "amount", Strategy: "median"}, r.Steps[1])
	assert.Equal(t, Step{Action: ActionFilter, Column: "region", Operator: "==", Value: "north"}, r.Steps[2])

	out, err := r.Marshal()
	require.NoError(t, err)
	back, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, r, back)
}

func TestParseBareListAndErrors(t *testing.T) {
	r, err := Parse([]byte("- dedupe\n- undo\n"))
	require.NoError(t, err)
	assert.Len(t, r.Steps, 2)

	_, err = Parse([]byte("steps: []\n"))
	assert.ErrorIs(t, err, ErrEmptyRecipe)

	_, err = Parse([]byte("- action: handle_missing\n  column: a\n  strategy: guess\n"))
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Index)
	assert.ErrorIs(t, err, transform.ErrInvalidInput)

	_, err = Parse([]byte("- action: pivot\n"))
	assert.ErrorIs(t, err, transform.ErrInvalidInput)
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "r.yaml")
	require.NoError(t, os.WriteFile(p, []byte(recipeYAML), 0o644))
	r, err := Load(p)
	require.NoError(t, err)
	assert.Len(t, r.Steps, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFromLines(t *testing.T) {
	r, err := FromLines([]string{"# cleanup", "", "dedupe", "missing amount mean"})
	require.NoError(t, err)
	assert.Len(t, r.Steps, 2)

	_, err = FromLines([]string{"# only comments"})
	assert.ErrorIs(t, err, ErrEmptyRecipe)
}

func salesSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(session.Options{Logger: logging.Discard()})
	tb := table.MustNew(
		table.NewColumn("region", []table.Value{table.Text("north"), table.Text("north"), table.Text("south"), table.Text("north")}),
		table.NewColumn("amount", []table.Value{table.Number(10), table.Number(10), table.Null(), table.Number(30)}),
	)
	_, err := s.Load(tb, "sales.csv")
	require.NoError(t, err)
	return s
}

func TestRunAppliesInOrder(t *testing.T) {
	s := salesSession(t)
	r, err := Parse([]byte(recipeYAML))
	require.NoError(t, err)

	var seen []int
	msgs, err := Run(s, r, func(i int, _ Step, _ string) { seen = append(seen, i) })
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.Equal(t, "Removed 1 duplicate row.", msgs[0])
	assert.Equal(t, 2, s.Current().NumRows())
	assert.Equal(t, 4, len(s.Log()))
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	s := salesSession(t)
	r, err := FromLines([]string{"dedupe", "missing region mean", "filter amount > 0"})
	require.NoError(t, err)

	msgs, err := Run(s, r, nil)
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Index)
	assert.ErrorIs(t, err, table.ErrTypeMismatch)
	assert.Len(t, msgs, 1)
	assert.Equal(t, 3, s.Current().NumRows(), "dedupe stays applied, filter never ran")
	assert.Equal(t, history.UndoAvailable, s.HistoryState())
}

func TestRunUndoRedoSteps(t *testing.T) {
	s := salesSession(t)
	r, err := FromLines([]string{"dedupe", "undo", "redo", "redo"})
	require.NoError(t, err)
	_, err = Run(s, r, nil)
	assert.ErrorIs(t, err, history.ErrNothingToRedo)
	assert.Equal(t, 3, s.Current().NumRows())
}
