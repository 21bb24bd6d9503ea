package app

import (
	"context"
	"time"
)

// ActionRecord pairs the forward step of a user mutation with the inverse
// that regenerates the previous state through the Order Service.
type ActionRecord struct {
	Forward Step
	Inverse Step
	At      time.Time
}

// Applier executes one step; satisfied by *Executor.
type Applier interface {
	Apply(ctx context.Context, step Step, counterpart Step) StepResult
}

// ActionLog is the stack of action records backing single-level undo. The
// log stores only the deltas needed to regenerate previous state; it knows
// nothing about the store's shape beyond the injected refresh callback. Redo
// continuations are retained internally but not surfaced.
type ActionLog struct {
	applier Applier
	refresh func(context.Context) error
	clock   func() time.Time
	undo    []ActionRecord
	redo    []ActionRecord
}

// NewActionLog constructs an action log that replays inverses through the
// applier and triggers a wholesale resync via refresh after each undo.
func NewActionLog(applier Applier, refresh func(context.Context) error) *ActionLog {
	if refresh == nil {
		refresh = func(context.Context) error { return nil }
	}
	return &ActionLog{applier: applier, refresh: refresh, clock: time.Now}
}

// Record pushes one action record and truncates any redo continuation.
func (l *ActionLog) Record(forward, inverse Step) {
	if forward == nil || inverse == nil {
		return
	}
	l.undo = append(l.undo, ActionRecord{Forward: forward, Inverse: inverse, At: l.clock().UTC()})
	l.redo = nil
}

// Undo pops the top record, replays its inverse, and resynchronizes. It
// reports false without side effects when the stack is empty. The record
// moves to the internal redo stack with any recreated ids rebound into its
// forward step.
func (l *ActionLog) Undo(ctx context.Context) (StepResult, bool) {
	if len(l.undo) == 0 {
		return StepResult{}, false
	}
	record := l.undo[len(l.undo)-1]
	l.undo = l.undo[:len(l.undo)-1]

	result := l.applier.Apply(ctx, record.Inverse, record.Forward)
	l.redo = append(l.redo, record)

	if err := l.refresh(ctx); err != nil {
		result.Calls = append(result.Calls, CallResult{Op: "refresh", Err: err})
	}
	return result, true
}

// CanUndo reports whether the stack holds at least one record.
func (l *ActionLog) CanUndo() bool {
	return len(l.undo) > 0
}

// Depth returns the undo stack depth.
func (l *ActionLog) Depth() int {
	return len(l.undo)
}

// UndoLabel returns the button label for the top record, e.g. "undo delete".
func (l *ActionLog) UndoLabel() string {
	if len(l.undo) == 0 {
		return "undo"
	}
	top := l.undo[len(l.undo)-1]
	return "undo " + StepLabel(top.Forward.Kind())
}
