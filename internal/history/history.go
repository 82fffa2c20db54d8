// Package history keeps the undo and redo stacks of table snapshots.
package history

import "errors"

var (
	// ErrNothingToUndo is returned by Undo when the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned by Redo when the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
	// ErrNoPendingPush is returned by DiscardLastPush when there is nothing to discard.
	ErrNoPendingPush = errors.New("no push to discard")
)

// State summarizes which directions are available.
type State int

const (
	Empty State = iota
	UndoAvailable
	RedoAvailable
	Both
)

func (s State) String() string {
	switch s {
	case UndoAvailable:
		return "undo-available"
	case RedoAvailable:
		return "redo-available"
	case Both:
		return "both"
	default:
		return "empty"
	}
}

// Manager is an undo/redo stack of snapshots.
// A limit of 0 keeps every snapshot; otherwise the oldest undo entry is
// evicted when a push would exceed the limit.
type Manager[S any] struct {
	undo  []S
	redo  []S
	limit int

	// evicted remembers what the last Push dropped so DiscardLastPush can
	// put it back.
	evicted    []S
	hasPending bool
}

// New creates a Manager keeping at most limit undo entries (0 = unbounded).
func New[S any](limit int) *Manager[S] {
	if limit < 0 {
		limit = 0
	}
	return &Manager[S]{limit: limit}
}

// Push appends s to the undo stack. It does not touch the redo stack.
func (m *Manager[S]) Push(s S) {
	m.evicted = m.evicted[:0]
	if m.limit > 0 && len(m.undo) >= m.limit {
		drop := len(m.undo) - m.limit + 1
		m.evicted = append(m.evicted, m.undo[:drop]...)
		m.undo = append(m.undo[:0:0], m.undo[drop:]...)
	}
	m.undo = append(m.undo, s)
	m.hasPending = true
}

// DiscardLastPush removes the entry added by the most recent Push and
// restores anything that push evicted, leaving the stacks exactly as they
// were before it.
func (m *Manager[S]) DiscardLastPush() error {
	if !m.hasPending || len(m.undo) == 0 {
		return ErrNoPendingPush
	}
	m.undo = m.undo[:len(m.undo)-1]
	if len(m.evicted) > 0 {
		m.undo = append(append(make([]S, 0, len(m.evicted)+len(m.undo)), m.evicted...), m.undo...)
		m.evicted = m.evicted[:0]
	}
	m.hasPending = false
	return nil
}

// Undo pops the newest undo entry, pushes current onto the redo stack and
// returns the popped snapshot as the new current state.
func (m *Manager[S]) Undo(current S) (S, error) {
	if len(m.undo) == 0 {
		var zero S
		return zero, ErrNothingToUndo
	}
	m.settle()
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, current)
	return prev, nil
}

// Redo is the mirror of Undo.
func (m *Manager[S]) Redo(current S) (S, error) {
	if len(m.redo) == 0 {
		var zero S
		return zero, ErrNothingToRedo
	}
	m.settle()
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, current)
	return next, nil
}

// Commit marks the last push as final. Later calls to DiscardLastPush fail.
func (m *Manager[S]) Commit() { m.settle() }

// Clear empties both stacks.
func (m *Manager[S]) Clear() {
	m.undo = nil
	m.redo = nil
	m.settle()
}

// ClearRedo empties the redo stack.
func (m *Manager[S]) ClearRedo() { m.redo = nil }

func (m *Manager[S]) CanUndo() bool { return len(m.undo) > 0 }
func (m *Manager[S]) CanRedo() bool { return len(m.redo) > 0 }
func (m *Manager[S]) UndoDepth() int { return len(m.undo) }
func (m *Manager[S]) RedoDepth() int { return len(m.redo) }
func (m *Manager[S]) Limit() int { return m.limit }

// State reports which of undo and redo are available.
func (m *Manager[S]) State() State {
	switch {
	case m.CanUndo() && m.CanRedo():
		return Both
	case m.CanUndo():
		return UndoAvailable
	case m.CanRedo():
		return RedoAvailable
	default:
		return Empty
	}
}

func (m *Manager[S]) settle() {
	m.hasPending = false
	m.evicted = m.evicted[:0]
}
