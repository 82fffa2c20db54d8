package session

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/wrangle-cli/internal/history"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
	"github.com/KaramelBytes/wrangle-cli/internal/transform"
)

// UserMessage is the display form of an error.
//
// Codes:
//
//	WR001 - No data loaded          (ErrNoDataLoaded)
//	WR002 - Column not found        (table.ErrColumnNotFound)
//	WR003 - Type mismatch           (table.ErrTypeMismatch)
//	WR004 - Invalid filter value    (transform.ErrInvalidFilterValue)
//	WR005 - Invalid input           (transform.ErrInvalidInput)
//	WR006 - Nothing to undo         (history.ErrNothingToUndo)
//	WR007 - Nothing to redo         (history.ErrNothingToRedo)
//	WR000 - Anything else
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string
}

var errorMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrNoDataLoaded, UserMessage{"No data loaded", "Load a CSV or Excel file first", "WR001"}},
	{table.ErrColumnNotFound, UserMessage{"Column not found", "Check the column name against the loaded table", "WR002"}},
	{table.ErrTypeMismatch, UserMessage{"This action can only be used on numeric columns", "Pick a numeric column or another strategy", "WR003"}},
	{transform.ErrInvalidFilterValue, UserMessage{"Filter value must be a number for this operator", "Enter a numeric value or use == / contains", "WR004"}},
	{transform.ErrInvalidInput, UserMessage{"Missing or invalid parameter", "Select a column, an action and a value where required", "WR005"}},
	{history.ErrNothingToUndo, UserMessage{"Nothing to undo", "", "WR006"}},
	{history.ErrNothingToRedo, UserMessage{"Nothing to redo", "", "WR007"}},
}

var defaultMessage = UserMessage{"An unexpected error occurred", "Check the log output for details", "WR000"}

// Describe maps an error to its user-facing message.
func Describe(err error) UserMessage {
	m, _ := lookup(err)
	return m
}

func lookup(err error) (UserMessage, error) {
	if err == nil {
		return UserMessage{}, nil
	}
	for _, em := range errorMessages {
		if errors.Is(err, em.target) {
			return em.msg, em.target
		}
	}
	return defaultMessage, nil
}

// FormatError renders err as "Message (Code: WR00X). Action: detail". The
// detail is omitted when err is the bare sentinel.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	m, target := lookup(err)
	out := fmt.Sprintf("%s (Code: %s)", m.Message, m.Code)
	if m.Action != "" {
		out += ". " + m.Action
	}
	if err != target {
		out += ": " + err.Error()
	}
	return out
}
