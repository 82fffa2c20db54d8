// Package recipe describes a sequence of editing steps, read from YAML or
// from the one-line command syntax shared with the shell.
package recipe

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/wrangle-cli/internal/session"
	"github.com/KaramelBytes/wrangle-cli/internal/transform"
)

// Step actions.
const (
	ActionDedupe  = "remove_duplicates"
	ActionMissing = "handle_missing"
	ActionFilter  = "filter"
	ActionUndo    = "undo"
	ActionRedo    = "redo"
)

// ErrEmptyRecipe is returned when a recipe holds no steps.
var ErrEmptyRecipe = errors.New("recipe has no steps")

// Step is one entry of a recipe.
type Step struct {
	Action   string `yaml:"action"`
	Column   string `yaml:"column,omitempty"`
	Strategy string `yaml:"strategy,omitempty"`
	Operator string `yaml:"operator,omitempty"`
	Value    string `yaml:"value,omitempty"`
}

// Recipe is an ordered list of steps.
type Recipe struct {
	Name  string `yaml:"name,omitempty"`
	Steps []Step `yaml:"steps"`
}

// UnmarshalYAML accepts either a mapping or a one-line string such as
// "filter amount > 10".
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		st, err := ParseStep(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*s = st
		return nil
	}
	type plain Step
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Step(p)
	s.Action = canonicalAction(s.Action)
	return nil
}

func canonicalAction(a string) string {
	switch strings.ToLower(strings.TrimSpace(a)) {
	case "remove_duplicates", "dedupe", "dedup", "drop_duplicates":
		return ActionDedupe
	case "handle_missing", "missing", "fillna":
		return ActionMissing
	case "filter", "filter_rows", "where":
		return ActionFilter
	case "undo":
		return ActionUndo
	case "redo":
		return ActionRedo
	}
	return strings.TrimSpace(a)
}

// Operation builds the transform for an editing step. Undo and redo steps
// have no operation and return nil.
func (s Step) Operation() (transform.Operation, error) {
	switch s.Action {
	case ActionDedupe:
		return transform.RemoveDuplicates{}, nil
	case ActionMissing:
		strategy, err := transform.ParseStrategy(s.Strategy)
		if err != nil {
			return nil, err
		}
		return transform.HandleMissing{Column: s.Column, Strategy: strategy, Value: s.Value}, nil
	case ActionFilter:
		op, err := transform.ParseOperator(s.Operator)
		if err != nil {
			return nil, err
		}
		return transform.FilterRows{Column: s.Column, Operator: op, Value: s.Value}, nil
	case ActionUndo, ActionRedo:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown step %q", transform.ErrInvalidInput, s.Action)
}

// String renders the step in one-line syntax.
func (s Step) String() string {
	parts := []string{}
	switch s.Action {
	case ActionDedupe:
		return "dedupe"
	case ActionMissing:
		parts = append(parts, "missing", quote(s.Column), s.Strategy)
	case ActionFilter:
		parts = append(parts, "filter", quote(s.Column), s.Operator)
	default:
		return s.Action
	}
	if s.Value != "" {
		parts = append(parts, quote(s.Value))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"'") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// Parse decodes a recipe document: either a mapping with a steps list or a
// bare list of steps. Every step is validated.
func Parse(data []byte) (*Recipe, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse recipe: %w", err)
	}
	r := &Recipe{}
	if len(doc.Content) > 0 {
		root := doc.Content[0]
		var err error
		if root.Kind == yaml.SequenceNode {
			err = root.Decode(&r.Steps)
		} else {
			err = root.Decode(r)
		}
		if err != nil {
			return nil, fmt.Errorf("parse recipe: %w", err)
		}
	}
	if len(r.Steps) == 0 {
		return nil, ErrEmptyRecipe
	}
	for i, st := range r.Steps {
		if _, err := st.Operation(); err != nil {
			return nil, &StepError{Index: i, Step: st, Err: err}
		}
	}
	return r, nil
}

// Load reads and parses a recipe file.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	return Parse(data)
}

// FromLines builds a recipe from one-line steps, skipping blanks and
// lines starting with '#'.
func FromLines(lines []string) (*Recipe, error) {
	r := &Recipe{}
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		st, err := ParseStep(line)
		if err != nil {
			return nil, &StepError{Index: i, Err: err}
		}
		r.Steps = append(r.Steps, st)
	}
	if len(r.Steps) == 0 {
		return nil, ErrEmptyRecipe
	}
	return r, nil
}

// Marshal renders r as YAML.
func (r *Recipe) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// StepError reports which step of a recipe failed.
type StepError struct {
	Index int
	Step  Step
	Err   error
}

func (e *StepError) Error() string {
	if e.Step.Action == "" {
		return fmt.Sprintf("step %d: %v", e.Index+1, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Progress is called after each successful step.
type Progress func(index int, step Step, msg string)

// Run applies the steps of r to sess in order and stops at the first
// failure. The session keeps every step applied before the failure.
func Run(sess *session.Session, r *Recipe, progress Progress) ([]string, error) {
	if r == nil || len(r.Steps) == 0 {
		return nil, ErrEmptyRecipe
	}
	var msgs []string
	for i, st := range r.Steps {
		msg, err := runStep(sess, st)
		if err != nil {
			return msgs, &StepError{Index: i, Step: st, Err: err}
		}
		msgs = append(msgs, msg)
		if progress != nil {
			progress(i, st, msg)
		}
	}
	return msgs, nil
}

func runStep(sess *session.Session, st Step) (string, error) {
	switch st.Action {
	case ActionUndo:
		if _, err := sess.Undo(); err != nil {
			return "", err
		}
		return "Performed UNDO", nil
	case ActionRedo:
		if _, err := sess.Redo(); err != nil {
			return "", err
		}
		return "Performed REDO", nil
	}
	op, err := st.Operation()
	if err != nil {
		return "", err
	}
	return sess.Apply(op)
}
