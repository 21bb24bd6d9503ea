package app

import (
	"context"
	"errors"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/hylla/partdesk/internal/domain"
)

func newTestExecutor(svc OrderService) *Executor {
	logger := charmlog.New(discardWriter{})
	return NewExecutor(svc, logger)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestApplyDeleteThenRestoreOrder(t *testing.T) {
	svc := newFakeService()
	group := svc.seedGroup(t, domain.GroupInput{ID: "g1", Title: "REV order", Vendor: "REV"})
	order := svc.seedOrder(t, domain.OrderInput{
		ID: "o1", PartName: "NEO motor", Vendor: "REV", Quantity: 2,
		Status: domain.StatusOrdered, GroupID: group.ID,
		Tracking: []domain.TrackingEntry{{Carrier: "ups", Number: "1Z999"}},
	})
	exec := newTestExecutor(svc)

	forward := &DeleteOrderStep{OrderID: order.ID}
	inverse := &RestoreOrderStep{Order: order, GroupID: order.GroupID}

	if res := exec.Apply(context.Background(), forward, inverse); !res.OK() {
		t.Fatalf("delete failed: %v", res.Err())
	}
	if svc.orderCount() != 0 {
		t.Fatalf("order count = %d after delete, want 0", svc.orderCount())
	}

	// The fake pruned the now-empty group, as the backend would; recreate it
	// for the reattach leg.
	svc.seedGroup(t, domain.GroupInput{ID: "g1", Title: "REV order", Vendor: "REV"})

	if res := exec.Apply(context.Background(), inverse, forward); !res.OK() {
		t.Fatalf("restore failed: %v", res.Err())
	}
	restored := svc.findOrderByPart(t, "NEO motor")
	if restored.ID == order.ID {
		t.Fatal("restored order reused the deleted id; a fresh id was expected")
	}
	if restored.Status != domain.StatusOrdered {
		t.Fatalf("Status = %q, want Ordered", restored.Status)
	}
	if restored.GroupID != "g1" {
		t.Fatalf("GroupID = %q, want g1", restored.GroupID)
	}
	if len(restored.Tracking) != 1 || restored.Tracking[0].Number != "1Z999" {
		t.Fatalf("Tracking = %v, want original entry", restored.Tracking)
	}
	if forward.OrderID != restored.ID {
		t.Fatalf("counterpart OrderID = %q, want rebound to %q", forward.OrderID, restored.ID)
	}
}

func TestApplyUpdateStatusWithGroupPointer(t *testing.T) {
	svc := newFakeService()
	svc.seedGroup(t, domain.GroupInput{ID: "g1", Title: "order", Vendor: "WCP"})
	svc.seedOrder(t, domain.OrderInput{ID: "o1", PartName: "belt", Vendor: "WCP", Quantity: 1, Status: domain.StatusOrdered, GroupID: "g1"})
	exec := newTestExecutor(svc)

	clear := ""
	res := exec.Apply(context.Background(), &UpdateStatusStep{OrderID: "o1", Status: domain.StatusRequested, GroupID: &clear}, nil)
	if !res.OK() {
		t.Fatalf("Apply() error = %v", res.Err())
	}
	got := svc.order(t, "o1")
	if got.Status != domain.StatusRequested || got.GroupID != "" {
		t.Fatalf("order = %q/%q, want Requested with no group", got.Status, got.GroupID)
	}

	// Nil pointer leaves the group reference alone.
	svc.seedGroup(t, domain.GroupInput{ID: "g2", Title: "order", Vendor: "WCP"})
	svc.seedOrder(t, domain.OrderInput{ID: "o2", PartName: "pulley", Vendor: "WCP", Quantity: 1, Status: domain.StatusOrdered, GroupID: "g2"})
	res = exec.Apply(context.Background(), &UpdateStatusStep{OrderID: "o2", Status: domain.StatusReceived}, nil)
	if !res.OK() {
		t.Fatalf("Apply() error = %v", res.Err())
	}
	if got := svc.order(t, "o2"); got.GroupID != "g2" {
		t.Fatalf("GroupID = %q, want untouched g2", got.GroupID)
	}
}

func TestApplyCreateGroupThreadsNewID(t *testing.T) {
	svc := newFakeService()
	svc.seedOrder(t, domain.OrderInput{ID: "o1", PartName: "churro", Vendor: "AndyMark", Quantity: 4})
	svc.seedOrder(t, domain.OrderInput{ID: "o2", PartName: "hex shaft", Vendor: "AndyMark", Quantity: 2})
	exec := newTestExecutor(svc)

	counterpart := &DeleteGroupStep{OrderIDs: []string{"o1", "o2"}}
	step := &CreateGroupStep{
		Group:        domain.GroupInput{Title: "AndyMark - Mar 14", Vendor: "AndyMark", Status: domain.StatusOrdered},
		OrderIDs:     []string{"o1", "o2"},
		MemberStatus: domain.StatusOrdered,
		Notes:        "ship to the shop",
		Tracking:     []domain.TrackingEntry{{Carrier: "fedex", Number: "555"}},
	}
	res := exec.Apply(context.Background(), step, counterpart)
	if !res.OK() {
		t.Fatalf("Apply() error = %v", res.Err())
	}
	group := svc.firstGroup(t)
	if counterpart.GroupID != group.ID {
		t.Fatalf("counterpart GroupID = %q, want %q", counterpart.GroupID, group.ID)
	}
	if group.Notes != "ship to the shop" || len(group.Tracking) != 1 {
		t.Fatalf("group metadata not patched: %+v", group)
	}
	for _, id := range []string{"o1", "o2"} {
		got := svc.order(t, id)
		if got.Status != domain.StatusOrdered || got.GroupID != group.ID {
			t.Fatalf("member %s = %q/%q, want Ordered in %q", id, got.Status, got.GroupID, group.ID)
		}
	}
}

func TestApplyRestoreOrdersRecreatesGroupFirst(t *testing.T) {
	svc := newFakeService()
	exec := newTestExecutor(svc)

	snapshots := []domain.Order{
		{ID: "old-1", PartName: "bearing", Vendor: "WCP", Quantity: 10, Status: domain.StatusOrdered},
		{ID: "old-2", PartName: "gear", Vendor: "WCP", Quantity: 3, Status: domain.StatusOrdered},
	}
	groupSnapshot := &domain.GroupInput{
		Title: "WCP - Mar 1", Vendor: "WCP", Status: domain.StatusOrdered,
		Tracking: []domain.TrackingEntry{{Carrier: "ups", Number: "1Z1"}},
		Notes:    "gearbox restock",
	}
	counterpart := &DeleteOrdersStep{OrderIDs: []string{"old-1", "old-2"}}

	res := exec.Apply(context.Background(), &RestoreOrdersStep{Orders: snapshots, Group: groupSnapshot}, counterpart)
	if !res.OK() {
		t.Fatalf("Apply() error = %v", res.Err())
	}
	group := svc.firstGroup(t)
	if group.Notes != "gearbox restock" || len(group.Tracking) != 1 {
		t.Fatalf("group = %+v, want snapshot metadata", group)
	}
	if svc.orderCount() != 2 {
		t.Fatalf("order count = %d, want 2", svc.orderCount())
	}
	for _, part := range []string{"bearing", "gear"} {
		restored := svc.findOrderByPart(t, part)
		if restored.GroupID != group.ID || restored.Status != domain.StatusOrdered {
			t.Fatalf("%s = %q/%q, want Ordered in %q", part, restored.Status, restored.GroupID, group.ID)
		}
	}
	for _, id := range counterpart.OrderIDs {
		if id == "old-1" || id == "old-2" {
			t.Fatalf("counterpart ids not rebound: %v", counterpart.OrderIDs)
		}
	}
}

func TestApplyRestoreOrdersSurvivesGroupCreateFailure(t *testing.T) {
	svc := newFakeService()
	svc.failNext("CreateGroup", errors.New("boom"))
	exec := newTestExecutor(svc)

	step := &RestoreOrdersStep{
		Orders: []domain.Order{{ID: "old-1", PartName: "spacer", Vendor: "WCP", Quantity: 1, Status: domain.StatusRequested}},
		Group:  &domain.GroupInput{Title: "WCP", Vendor: "WCP"},
	}
	res := exec.Apply(context.Background(), step, nil)
	if res.OK() {
		t.Fatal("result OK despite failed group create")
	}
	if svc.orderCount() != 1 {
		t.Fatalf("order count = %d, want orders restored ungrouped", svc.orderCount())
	}
	if restored := svc.findOrderByPart(t, "spacer"); restored.GroupID != "" {
		t.Fatalf("GroupID = %q, want none", restored.GroupID)
	}
}

func TestApplyDeleteOrdersFanOut(t *testing.T) {
	svc := newFakeService()
	ids := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		order := svc.seedOrder(t, domain.OrderInput{ID: fmt8(i), PartName: "part", Vendor: "WCP", Quantity: 1})
		ids = append(ids, order.ID)
	}
	exec := newTestExecutor(svc)

	res := exec.Apply(context.Background(), &DeleteOrdersStep{OrderIDs: ids}, nil)
	if !res.OK() {
		t.Fatalf("Apply() error = %v", res.Err())
	}
	if len(res.Calls) != len(ids) {
		t.Fatalf("call count = %d, want %d", len(res.Calls), len(ids))
	}
	if svc.orderCount() != 0 {
		t.Fatalf("order count = %d, want 0", svc.orderCount())
	}
}

func fmt8(i int) string {
	return string(rune('a'+i)) + "-order"
}

func TestApplyCompoundStopsAtFirstFailure(t *testing.T) {
	svc := newFakeService()
	svc.seedOrder(t, domain.OrderInput{ID: "o1", PartName: "a", Vendor: "WCP", Quantity: 1})
	svc.seedOrder(t, domain.OrderInput{ID: "o2", PartName: "b", Vendor: "WCP", Quantity: 1})
	svc.failNext("AssignOrderGroup", errors.New("service down"))
	exec := newTestExecutor(svc)

	step := &CreateGroupStep{
		Group:    domain.GroupInput{Title: "WCP", Vendor: "WCP"},
		OrderIDs: []string{"o1", "o2"},
	}
	res := exec.Apply(context.Background(), step, nil)
	if res.OK() {
		t.Fatal("result OK despite failed assign")
	}
	// Sub-calls: create group, patch o1, assign o1 (fails). Nothing for o2.
	if len(res.Calls) != 3 {
		t.Fatalf("call count = %d, want 3 (stop at first failure)", len(res.Calls))
	}
	if got := svc.order(t, "o1"); got.Status != domain.StatusOrdered {
		t.Fatalf("o1 status = %q, want partially-applied Ordered", got.Status)
	}
	if got := svc.order(t, "o2"); got.Status != domain.StatusRequested {
		t.Fatalf("o2 status = %q, want untouched Requested", got.Status)
	}
	if len(res.Failed()) != 1 {
		t.Fatalf("failed calls = %d, want 1", len(res.Failed()))
	}
}

func TestApplyDeleteGroupDetachesMembers(t *testing.T) {
	svc := newFakeService()
	svc.seedGroup(t, domain.GroupInput{ID: "g1", Title: "order", Vendor: "REV"})
	svc.seedOrder(t, domain.OrderInput{ID: "o1", PartName: "a", Vendor: "REV", Quantity: 1, Status: domain.StatusOrdered, GroupID: "g1"})
	svc.seedOrder(t, domain.OrderInput{ID: "o2", PartName: "b", Vendor: "REV", Quantity: 1, Status: domain.StatusReceived, GroupID: "g1"})
	exec := newTestExecutor(svc)

	res := exec.Apply(context.Background(), &DeleteGroupStep{GroupID: "g1", OrderIDs: []string{"o1", "o2"}}, nil)
	if !res.OK() {
		t.Fatalf("Apply() error = %v", res.Err())
	}
	if svc.groupCount() != 0 {
		t.Fatalf("group count = %d, want 0", svc.groupCount())
	}
	for _, id := range []string{"o1", "o2"} {
		got := svc.order(t, id)
		if got.Status != domain.StatusRequested || got.GroupID != "" {
			t.Fatalf("%s = %q/%q, want detached Requested", id, got.Status, got.GroupID)
		}
	}
}
