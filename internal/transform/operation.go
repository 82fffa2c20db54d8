// Package transform implements the editing operations applied to a table.
//
// Every operation is pure: it reads a *table.Table and returns a Result
// holding a new table, or an error. The input table is never modified.
package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

var (
	// ErrInvalidInput indicates a missing required parameter or an unknown option.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidFilterValue indicates a comparison literal that is not a number.
	ErrInvalidFilterValue = errors.New("invalid filter value")
)

// OpError carries the operation and column an error occurred in.
type OpError struct {
	Op     string
	Column string
	Err    error
}

func (e *OpError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s on column %q: %v", e.Op, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op, column string, err error) error {
	return &OpError{Op: op, Column: column, Err: err}
}

// Operation is one named, parameterized transformation.
type Operation interface {
	// Name is the stable identifier used in logs and recipes.
	Name() string
	// Apply runs the operation against t.
	Apply(t *table.Table) (Result, error)
	// Summary renders a human-readable log line for a successful result.
	Summary(r Result) string
}

// Result is the outcome of a successful operation.
type Result struct {
	Table       *table.Table
	RowsBefore  int
	RowsAfter   int
	CellsFilled int
	FillValue   table.Value
	// NoOp is set when the operation found nothing to change.
	NoOp bool
}

// RowsRemoved is the number of rows dropped by the operation.
func (r Result) RowsRemoved() int { return r.RowsBefore - r.RowsAfter }

// Apply runs op against t.
func Apply(t *table.Table, op Operation) (Result, error) {
	if op == nil {
		return Result{}, fmt.Errorf("%w: no operation given", ErrInvalidInput)
	}
	if t == nil {
		return Result{}, opErr(op.Name(), "", fmt.Errorf("%w: no table given", ErrInvalidInput))
	}
	return op.Apply(t)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ":")
	r := strings.NewReplacer(" ", "_", "-", "_")
	return r.Replace(s)
}
