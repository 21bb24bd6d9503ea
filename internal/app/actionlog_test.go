package app

import (
	"context"
	"errors"
	"testing"

	"github.com/hylla/partdesk/internal/domain"
)

// recordingApplier captures the steps the log replays.
type recordingApplier struct {
	applied []Step
	result  StepResult
}

func (r *recordingApplier) Apply(_ context.Context, step Step, _ Step) StepResult {
	r.applied = append(r.applied, step)
	return r.result
}

func TestActionLogUndoIsLIFO(t *testing.T) {
	applier := &recordingApplier{}
	log := NewActionLog(applier, nil)

	f1 := &DeleteOrderStep{OrderID: "o1"}
	i1 := &RestoreOrderStep{Order: domain.Order{ID: "o1"}}
	f2 := &UpdateStatusStep{OrderID: "o2", Status: domain.StatusOrdered}
	i2 := &UpdateStatusStep{OrderID: "o2", Status: domain.StatusRequested}
	log.Record(f1, i1)
	log.Record(f2, i2)

	if log.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", log.Depth())
	}
	if _, ok := log.Undo(context.Background()); !ok {
		t.Fatal("first Undo() reported nothing to undo")
	}
	if _, ok := log.Undo(context.Background()); !ok {
		t.Fatal("second Undo() reported nothing to undo")
	}
	if _, ok := log.Undo(context.Background()); ok {
		t.Fatal("third Undo() succeeded on an empty stack")
	}
	if len(applier.applied) != 2 {
		t.Fatalf("applied %d steps, want 2", len(applier.applied))
	}
	if applier.applied[0] != Step(i2) || applier.applied[1] != Step(i1) {
		t.Fatalf("inverses replayed out of order: %v then %v", applier.applied[0].Kind(), applier.applied[1].Kind())
	}
}

func TestActionLogRecordClearsRedo(t *testing.T) {
	applier := &recordingApplier{}
	log := NewActionLog(applier, nil)

	log.Record(&DeleteOrderStep{OrderID: "o1"}, &RestoreOrderStep{Order: domain.Order{ID: "o1"}})
	if _, ok := log.Undo(context.Background()); !ok {
		t.Fatal("Undo() failed")
	}
	if len(log.redo) != 1 {
		t.Fatalf("redo depth = %d, want 1", len(log.redo))
	}
	log.Record(&DeleteOrderStep{OrderID: "o2"}, &RestoreOrderStep{Order: domain.Order{ID: "o2"}})
	if len(log.redo) != 0 {
		t.Fatalf("redo depth = %d after new record, want 0", len(log.redo))
	}
}

func TestActionLogRecordIgnoresNilSteps(t *testing.T) {
	log := NewActionLog(&recordingApplier{}, nil)
	log.Record(nil, &RestoreOrderStep{})
	log.Record(&DeleteOrderStep{}, nil)
	if log.Depth() != 0 {
		t.Fatalf("Depth() = %d, want 0", log.Depth())
	}
}

func TestActionLogUndoTriggersRefresh(t *testing.T) {
	refreshed := 0
	log := NewActionLog(&recordingApplier{}, func(context.Context) error {
		refreshed++
		return nil
	})
	log.Record(&DeleteOrderStep{OrderID: "o1"}, &RestoreOrderStep{})
	if _, ok := log.Undo(context.Background()); !ok {
		t.Fatal("Undo() failed")
	}
	if refreshed != 1 {
		t.Fatalf("refresh ran %d times, want 1", refreshed)
	}
}

func TestActionLogUndoReportsRefreshFailure(t *testing.T) {
	refreshErr := errors.New("network down")
	log := NewActionLog(&recordingApplier{}, func(context.Context) error { return refreshErr })
	log.Record(&DeleteOrderStep{OrderID: "o1"}, &RestoreOrderStep{})

	result, ok := log.Undo(context.Background())
	if !ok {
		t.Fatal("Undo() failed")
	}
	failed := result.Failed()
	if len(failed) != 1 || failed[0].Op != "refresh" || !errors.Is(failed[0].Err, refreshErr) {
		t.Fatalf("Failed() = %v, want the refresh failure", failed)
	}
}

func TestActionLogUndoLabel(t *testing.T) {
	log := NewActionLog(&recordingApplier{}, nil)
	if got := log.UndoLabel(); got != "undo" {
		t.Fatalf("UndoLabel() = %q, want plain undo when empty", got)
	}
	log.Record(&DeleteOrderStep{OrderID: "o1"}, &RestoreOrderStep{})
	if got := log.UndoLabel(); got != "undo "+StepLabel(StepDeleteOrder) {
		t.Fatalf("UndoLabel() = %q", got)
	}
	log.Record(&CreateGroupStep{}, &DeleteGroupStep{})
	if got := log.UndoLabel(); got != "undo "+StepLabel(StepCreateGroup) {
		t.Fatalf("UndoLabel() = %q", got)
	}
}
