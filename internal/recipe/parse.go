package recipe

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/transform"
)

// ParseStep reads the one-line step syntax:
//
//	dedupe
//	missing <column> <strategy> [value]
//	filter <column> <operator> [value]
//	undo | redo
//
// Column names and values containing spaces may be quoted. Operators may be
// "is null" and "is not null" without quotes.
func ParseStep(line string) (Step, error) {
	fields, err := SplitFields(line)
	if err != nil {
		return Step{}, err
	}
	if len(fields) == 0 {
		return Step{}, fmt.Errorf("%w: empty step", transform.ErrInvalidInput)
	}
	action := canonicalAction(fields[0])
	args := fields[1:]
	switch action {
	case ActionDedupe, ActionUndo, ActionRedo:
		if len(args) > 0 {
			return Step{}, fmt.Errorf("%w: %s takes no arguments", transform.ErrInvalidInput, fields[0])
		}
		return Step{Action: action}, nil
	case ActionMissing:
		if len(args) < 2 {
			return Step{}, fmt.Errorf("%w: usage: missing <column> <strategy> [value]", transform.ErrInvalidInput)
		}
		st := Step{Action: action, Column: args[0], Strategy: args[1], Value: strings.Join(args[2:], " ")}
		if _, err := transform.ParseStrategy(st.Strategy); err != nil {
			return Step{}, err
		}
		return st, nil
	case ActionFilter:
		if len(args) < 2 {
			return Step{}, fmt.Errorf("%w: usage: filter <column> <operator> [value]", transform.ErrInvalidInput)
		}
		rest := args[1:]
		// Longest operator first so "is not null" is not read as "is".
		for n := min(3, len(rest)); n >= 1; n-- {
			opText := strings.Join(rest[:n], " ")
			if _, err := transform.ParseOperator(opText); err == nil {
				return Step{Action: action, Column: args[0], Operator: opText, Value: strings.Join(rest[n:], " ")}, nil
			}
		}
		return Step{}, fmt.Errorf("%w: unknown operator %q", transform.ErrInvalidInput, rest[0])
	}
	return Step{}, fmt.Errorf("%w: unknown step %q", transform.ErrInvalidInput, fields[0])
}

// SplitFields splits on whitespace, honoring single and double quotes and
// backslash escapes inside double quotes.
func SplitFields(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inField bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quote == '"' && r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inField = true
		case r == ' ' || r == '\t':
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
		default:
			cur.WriteRune(r)
			inField = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote", transform.ErrInvalidInput)
	}
	if inField {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
