package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hylla/partdesk/internal/domain"
)

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

// fakeService is an in-memory Order Service with the backend's observable
// semantics: server-assigned ids, tracking merged on status patches, and
// memberless groups pruned.
type fakeService struct {
	mu      sync.Mutex
	orders  map[string]domain.Order
	groups  map[string]domain.Group
	nextID  int
	failOn  map[string]error
	callLog []string
}

func newFakeService() *fakeService {
	return &fakeService{
		orders: map[string]domain.Order{},
		groups: map[string]domain.Group{},
		failOn: map[string]error{},
	}
}

// failNext makes every call of the named op fail.
func (f *fakeService) failNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[op] = err
}

func (f *fakeService) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.callLog...)
}

func (f *fakeService) record(op string) error {
	f.callLog = append(f.callLog, op)
	if err, ok := f.failOn[op]; ok {
		return err
	}
	return nil
}

func (f *fakeService) ListOrders(context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListOrders"); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(f.orders))
	for _, order := range f.orders {
		out = append(out, order)
	}
	return out, nil
}

func (f *fakeService) ListGroups(context.Context) ([]domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListGroups"); err != nil {
		return nil, err
	}
	out := make([]domain.Group, 0, len(f.groups))
	for _, group := range f.groups {
		out = append(out, group)
	}
	return out, nil
}

func (f *fakeService) CreateOrder(_ context.Context, in domain.OrderInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateOrder"); err != nil {
		return "", err
	}
	f.nextID++
	in.ID = fmt.Sprintf("order-%d", f.nextID)
	order, err := domain.NewOrder(in, testNow)
	if err != nil {
		return "", err
	}
	f.orders[order.ID] = order
	return order.ID, nil
}

func (f *fakeService) PatchOrder(_ context.Context, id string, patch domain.OrderPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PatchOrder"); err != nil {
		return err
	}
	order, ok := f.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.Apply(patch, testNow)
	f.orders[id] = order
	return nil
}

func (f *fakeService) DeleteOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteOrder"); err != nil {
		return err
	}
	order, ok := f.orders[id]
	if !ok {
		return ErrNotFound
	}
	delete(f.orders, id)
	f.pruneGroup(order.GroupID)
	return nil
}

func (f *fakeService) PatchOrderStatus(_ context.Context, id string, status domain.Status, tracking []domain.TrackingEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PatchOrderStatus"); err != nil {
		return err
	}
	order, ok := f.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.Status = status
	if len(tracking) > 0 {
		order.Tracking = domain.NormalizeTracking(tracking)
	}
	f.orders[id] = order
	return nil
}

func (f *fakeService) AssignOrderGroup(_ context.Context, orderID, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AssignOrderGroup"); err != nil {
		return err
	}
	order, ok := f.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	previous := order.GroupID
	order.GroupID = groupID
	f.orders[orderID] = order
	if previous != groupID {
		f.pruneGroup(previous)
	}
	return nil
}

func (f *fakeService) CreateGroup(_ context.Context, in domain.GroupInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateGroup"); err != nil {
		return "", err
	}
	f.nextID++
	in.ID = fmt.Sprintf("group-%d", f.nextID)
	group, err := domain.NewGroup(in, testNow)
	if err != nil {
		return "", err
	}
	f.groups[group.ID] = group
	return group.ID, nil
}

func (f *fakeService) PatchGroup(_ context.Context, id string, patch domain.GroupPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PatchGroup"); err != nil {
		return err
	}
	group, ok := f.groups[id]
	if !ok {
		return ErrNotFound
	}
	group.Apply(patch, testNow)
	f.groups[id] = group
	return nil
}

func (f *fakeService) DeleteGroup(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteGroup"); err != nil {
		return err
	}
	delete(f.groups, id)
	for orderID, order := range f.orders {
		if order.GroupID == id {
			order.GroupID = ""
			f.orders[orderID] = order
		}
	}
	return nil
}

// pruneGroup drops a group once its last member is gone, mirroring the
// backend.
func (f *fakeService) pruneGroup(groupID string) {
	if groupID == "" {
		return
	}
	for _, order := range f.orders {
		if order.GroupID == groupID {
			return
		}
	}
	delete(f.groups, groupID)
}

// seedOrder inserts an order directly, bypassing id assignment.
func (f *fakeService) seedOrder(t *testing.T, in domain.OrderInput) domain.Order {
	t.Helper()
	order, err := domain.NewOrder(in, testNow)
	if err != nil {
		t.Fatalf("seedOrder: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
	return order
}

// seedGroup inserts a group directly.
func (f *fakeService) seedGroup(t *testing.T, in domain.GroupInput) domain.Group {
	t.Helper()
	group, err := domain.NewGroup(in, testNow)
	if err != nil {
		t.Fatalf("seedGroup: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[group.ID] = group
	return group
}

func (f *fakeService) order(t *testing.T, id string) domain.Order {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		t.Fatalf("order %s not found", id)
	}
	return order
}

func (f *fakeService) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeService) groupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.groups)
}

// findOrderByPart returns the first order with the given part name.
func (f *fakeService) findOrderByPart(t *testing.T, partName string) domain.Order {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.PartName == partName {
			return order
		}
	}
	t.Fatalf("no order with part name %q", partName)
	return domain.Order{}
}

// firstGroup returns the only group, failing unless exactly one exists.
func (f *fakeService) firstGroup(t *testing.T) domain.Group {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.groups) != 1 {
		t.Fatalf("group count = %d, want 1", len(f.groups))
	}
	for _, group := range f.groups {
		return group
	}
	return domain.Group{}
}
