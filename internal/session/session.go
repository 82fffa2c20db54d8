// Package session is the editing engine front end: it applies operations to
// the current table, records undo/redo history and keeps the action log.
//
// A Session is the only owner of its table and history. All entry points
// are serialized, so a Session can be shared with a concurrent host, but no
// call ever blocks on I/O or runs work in the background.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/wrangle-cli/internal/history"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
	"github.com/KaramelBytes/wrangle-cli/internal/transform"
)

// ErrNoDataLoaded is returned by Apply before any table has been loaded.
var ErrNoDataLoaded = errors.New("no data loaded")

// DefaultHistoryLimit caps the undo stack when no limit is configured.
const DefaultHistoryLimit = 100

// LogEntry is one line of the action log.
type LogEntry struct {
	ID      string
	Time    time.Time
	Message string
}

// String renders the entry as "[15:04:05] message".
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// Options configures a Session.
type Options struct {
	// HistoryLimit caps the undo stack; 0 keeps every snapshot.
	HistoryLimit int
	Logger       *slog.Logger
	// Now is the clock used for log timestamps.
	Now func() time.Time
}

// Session holds the live table, its history and the action log.
type Session struct {
	mu      sync.Mutex
	current *table.Table
	source  string
	hist    *history.Manager[*table.Table]
	log     []LogEntry
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an empty session.
func New(opt Options) *Session {
	s := &Session{
		hist:   history.New[*table.Table](opt.HistoryLimit),
		logger: opt.Logger,
		now:    opt.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Load replaces the current table, clears history and the log, and records
// a single entry for the load.
func (s *Session) Load(t *table.Table, source string) (string, error) {
	if t == nil {
		return "", fmt.Errorf("%w: no table to load", transform.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = t
	s.source = source
	s.hist.Clear()
	s.log = nil
	msg := fmt.Sprintf("Loaded %s (%s).", displaySource(source), rowsCols(t))
	s.appendLog(msg)
	s.logger.Info("table loaded", slog.String("source", source), slog.Int("rows", t.NumRows()), slog.Int("cols", t.NumCols()))
	return msg, nil
}

// Apply runs op against the current table. On success the new table
// becomes current, the redo stack is cleared and the returned message is
// logged. On failure the table and history are left exactly as they were.
func (s *Session) Apply(op transform.Operation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return "", ErrNoDataLoaded
	}
	if op == nil {
		return "", fmt.Errorf("%w: no operation given", transform.ErrInvalidInput)
	}

	s.hist.Push(s.current)
	res, err := transform.Apply(s.current, op)
	if err != nil {
		if derr := s.hist.DiscardLastPush(); derr != nil {
			s.logger.Error("history rollback failed", slog.String("op", op.Name()), slog.Any("error", derr))
		}
		s.logger.Debug("operation failed", slog.String("op", op.Name()), slog.Any("error", err))
		return "", err
	}
	msg := op.Summary(res)
	if res.NoOp {
		// Informational only: nothing changed, so nothing to undo.
		_ = s.hist.DiscardLastPush()
		s.logger.Debug("operation changed nothing", slog.String("op", op.Name()))
		return msg, nil
	}

	s.hist.Commit()
	s.hist.ClearRedo()
	s.current = res.Table
	s.appendLog(msg)
	s.logger.Info("operation applied",
		slog.String("op", op.Name()),
		slog.Int("rows_before", res.RowsBefore),
		slog.Int("rows_after", res.RowsAfter),
		slog.Int("cells_filled", res.CellsFilled),
		slog.Int("undo_depth", s.hist.UndoDepth()))
	return msg, nil
}

// Undo restores the previous table.
func (s *Session) Undo() (*table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.hist.Undo(s.current)
	if err != nil {
		return s.current, err
	}
	s.current = prev
	s.appendLog("Performed UNDO")
	s.logger.Debug("undo", slog.Int("undo_depth", s.hist.UndoDepth()), slog.Int("redo_depth", s.hist.RedoDepth()))
	return prev, nil
}

// Redo re-applies the most recently undone change.
func (s *Session) Redo() (*table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.hist.Redo(s.current)
	if err != nil {
		return s.current, err
	}
	s.current = next
	s.appendLog("Performed REDO")
	s.logger.Debug("redo", slog.Int("undo_depth", s.hist.UndoDepth()), slog.Int("redo_depth", s.hist.RedoDepth()))
	return next, nil
}

// Current returns the live table, or nil before the first load.
func (s *Session) Current() *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Loaded reports whether a table has been loaded.
func (s *Session) Loaded() bool { return s.Current() != nil }

// Source returns the name the current table was loaded from.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

// HistoryState reports which of undo and redo are available.
func (s *Session) HistoryState() history.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.State()
}

// HistoryLimit is the undo cap; 0 means unlimited.
func (s *Session) HistoryLimit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Limit()
}

// Log returns a copy of the action log, oldest first.
func (s *Session) Log() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.log))
	copy(out, s.log)
	return out
}

func (s *Session) appendLog(msg string) {
	s.log = append(s.log, LogEntry{ID: uuid.NewString(), Time: s.now(), Message: msg})
}

func displaySource(source string) string {
	if source == "" {
		return "table"
	}
	return source
}

func rowsCols(t *table.Table) string {
	rows := fmt.Sprintf("%d rows", t.NumRows())
	if t.NumRows() == 1 {
		rows = "1 row"
	}
	cols := fmt.Sprintf("%d columns", t.NumCols())
	if t.NumCols() == 1 {
		cols = "1 column"
	}
	return rows + ", " + cols
}
