package app

import (
	"context"
	"fmt"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/hylla/partdesk/internal/domain"
)

// Clock returns the current time.
type Clock func() time.Time

// Console orchestrates the gesture flows: validate invariants, build the
// forward/inverse step pair, execute the forward leg, record the pair, then
// resynchronize the store wholesale. Step results are advisory; a partially
// applied step is logged and the refetched state is displayed as the truth.
type Console struct {
	svc       OrderService
	store     *Store
	selection *Selection
	exec      *Executor
	log       *ActionLog
	clock     Clock
	logger    *charmlog.Logger
}

// NewConsole wires the store, selection, executor, and action log over one
// Order Service.
func NewConsole(svc OrderService, logger *charmlog.Logger, clock Clock) *Console {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = charmlog.Default()
	}
	store := NewStore(svc)
	exec := NewExecutor(svc, logger)
	return &Console{
		svc:       svc,
		store:     store,
		selection: NewSelection(),
		exec:      exec,
		log:       NewActionLog(exec, store.Refresh),
		clock:     clock,
		logger:    logger,
	}
}

// Store exposes the read-only order/group cache.
func (c *Console) Store() *Store {
	return c.store
}

// Selection exposes the selection state.
func (c *Console) Selection() *Selection {
	return c.selection
}

// Refresh refetches the order/group cache.
func (c *Console) Refresh(ctx context.Context) error {
	if err := c.store.Refresh(ctx); err != nil {
		return err
	}
	c.pruneSelection()
	return nil
}

// CanUndo reports whether an undo record is available.
func (c *Console) CanUndo() bool {
	return c.log.CanUndo()
}

// UndoLabel returns the label for the undo affordance.
func (c *Console) UndoLabel() string {
	return c.log.UndoLabel()
}

// Undo replays the inverse of the most recent action and resynchronizes.
func (c *Console) Undo(ctx context.Context) (StepResult, bool) {
	result, ok := c.log.Undo(ctx)
	if ok {
		c.pruneSelection()
	}
	return result, ok
}

// ToggleSelect flips one order in or out of the selection.
func (c *Console) ToggleSelect(orderID string) {
	c.selection.Toggle(orderID)
	c.reconcileSelection()
}

// SelectAllRequested selects every ungrouped order still awaiting purchase.
func (c *Console) SelectAllRequested() {
	for _, order := range c.store.Ungrouped(domain.StatusRequested) {
		c.selection.Add(order.ID)
	}
	c.reconcileSelection()
}

// SelectSameVendor extends the selection to every requested order sharing
// the selection's vendor.
func (c *Console) SelectSameVendor() error {
	selected := c.store.Selected(c.selection.IDs())
	vendor, uniform := UniformVendor(selected)
	if len(selected) == 0 || !uniform || vendor == "" {
		return ErrMixedVendors
	}
	for _, order := range c.store.Ungrouped(domain.StatusRequested) {
		if order.NormalizedVendor() == vendor {
			c.selection.Add(order.ID)
		}
	}
	return nil
}

// ClearSelection empties the selection.
func (c *Console) ClearSelection() {
	c.selection.Clear()
}

// StartAddToOrder enters add-to-order mode for the current selection.
func (c *Console) StartAddToOrder() error {
	return c.selection.StartAddToOrder(c.store.Selected(c.selection.IDs()))
}

// ResetAddToOrder leaves add-to-order mode.
func (c *Console) ResetAddToOrder() {
	c.selection.ResetAddToOrder()
}

// CreateOrder submits a new part request and records its deletion as the
// inverse.
func (c *Console) CreateOrder(ctx context.Context, in domain.OrderInput) (StepResult, error) {
	now := c.clock()
	result := StepResult{Kind: StepRestoreOrder}
	id, err := c.svc.CreateOrder(ctx, in)
	result.Calls = append(result.Calls, CallResult{Op: "create order", Target: in.PartName, Err: err})
	if err != nil {
		return result, nil
	}
	in.ID = id
	snapshot, err := domain.NewOrder(in, now)
	if err != nil {
		return result, fmt.Errorf("snapshot created order: %w", err)
	}
	c.log.Record(&RestoreOrderStep{Order: snapshot}, &DeleteOrderStep{OrderID: id})
	return result, c.Refresh(ctx)
}

// DeleteOrder removes one order, recording its restoration as the inverse.
func (c *Console) DeleteOrder(ctx context.Context, orderID string) (StepResult, error) {
	snapshot, ok := c.store.Order(orderID)
	if !ok {
		return StepResult{}, ErrNotFound
	}
	forward := &DeleteOrderStep{OrderID: orderID}
	inverse := &RestoreOrderStep{Order: snapshot, GroupID: snapshot.GroupID}
	result := c.exec.Apply(ctx, forward, inverse)
	c.log.Record(forward, inverse)
	c.selection.Remove(orderID)
	c.reconcileSelection()
	return result, c.Refresh(ctx)
}

// DeleteSelection bulk-deletes the selected orders as one undoable action.
func (c *Console) DeleteSelection(ctx context.Context) (StepResult, error) {
	selected := c.store.Selected(c.selection.IDs())
	if len(selected) == 0 {
		return StepResult{}, ErrEmptySelection
	}
	ids := make([]string, len(selected))
	for i, order := range selected {
		ids[i] = order.ID
	}
	forward := &DeleteOrdersStep{OrderIDs: ids}
	inverse := &RestoreOrdersStep{Orders: selected}
	result := c.exec.Apply(ctx, forward, inverse)
	c.log.Record(forward, inverse)
	c.selection.Clear()
	return result, c.Refresh(ctx)
}

// MoveOrderToStatus drags one order to a status column: guard-checked, the
// group reference cleared, then the status patched.
func (c *Console) MoveOrderToStatus(ctx context.Context, orderID string, target domain.Status) (StepResult, error) {
	order, ok := c.store.Order(orderID)
	if !ok {
		return StepResult{}, ErrNotFound
	}
	if !domain.CanTransition(order, target) {
		return StepResult{}, ErrIllegalTransition
	}
	if order.Status == target {
		return StepResult{}, nil
	}
	clear := ""
	prevGroup := order.GroupID
	forward := &UpdateStatusStep{OrderID: orderID, Status: target, GroupID: &clear}
	inverse := &UpdateStatusStep{OrderID: orderID, Status: order.Status, GroupID: &prevGroup}
	result := c.exec.Apply(ctx, forward, inverse)
	c.log.Record(forward, inverse)
	c.selection.Remove(orderID)
	c.reconcileSelection()
	return result, c.Refresh(ctx)
}

// SetGroupStatus moves every member of a group to the target status.
func (c *Console) SetGroupStatus(ctx context.Context, groupID string, target domain.Status) (StepResult, error) {
	members := c.store.Members(groupID)
	if len(members) == 0 {
		return StepResult{}, ErrNotFound
	}
	forwardEntries := make([]StatusEntry, len(members))
	inverseEntries := make([]StatusEntry, len(members))
	for i, member := range members {
		prevGroup := member.GroupID
		forwardEntries[i] = StatusEntry{OrderID: member.ID, Status: target}
		inverseEntries[i] = StatusEntry{OrderID: member.ID, Status: member.Status, GroupID: &prevGroup}
	}
	forward := &BulkStatusStep{Entries: forwardEntries}
	inverse := &BulkStatusStep{Entries: inverseEntries}
	result := c.exec.Apply(ctx, forward, inverse)
	c.log.Record(forward, inverse)
	return result, c.Refresh(ctx)
}

// CreateGroupFromSelection batches the vendor-uniform selection into a new
// group and moves the members to Ordered.
func (c *Console) CreateGroupFromSelection(ctx context.Context, statusTag string) (StepResult, error) {
	selected := c.store.Selected(c.selection.IDs())
	if len(selected) == 0 {
		return StepResult{}, ErrEmptySelection
	}
	if _, uniform := UniformVendor(selected); !uniform {
		return StepResult{}, ErrMixedVendors
	}
	now := c.clock()
	vendor := selected[0].Vendor
	ids := make([]string, len(selected))
	for i, order := range selected {
		ids[i] = order.ID
	}
	forward := &CreateGroupStep{
		Group: domain.GroupInput{
			Title:              groupTitle(vendor, now),
			Vendor:             vendor,
			Status:             domain.StatusOrdered,
			StatusTag:          statusTag,
			RequestedDisplayAt: now,
		},
		OrderIDs:     ids,
		MemberStatus: domain.StatusOrdered,
	}
	inverse := &DeleteGroupStep{OrderIDs: ids}
	result := c.exec.Apply(ctx, forward, inverse)
	c.log.Record(forward, inverse)
	c.selection.Clear()
	return result, c.Refresh(ctx)
}

// DeleteGroup removes a group. With deleteParts the member part requests are
// deleted too; otherwise they detach back to Requested.
func (c *Console) DeleteGroup(ctx context.Context, groupID string, deleteParts bool) (StepResult, error) {
	group, ok := c.store.Group(groupID)
	if !ok {
		return StepResult{}, ErrNotFound
	}
	members := c.store.Members(groupID)
	ids := make([]string, len(members))
	for i, member := range members {
		ids[i] = member.ID
	}
	snapshot := domain.GroupInput{
		Title:              group.Title,
		Vendor:             group.Vendor,
		Status:             group.Status,
		StatusTag:          group.StatusTag,
		Tracking:           group.Tracking,
		Notes:              group.Notes,
		RequestedDisplayAt: group.RequestedDisplayAt,
	}

	if deleteParts {
		forward := &DeleteOrdersStep{OrderIDs: ids}
		inverse := &RestoreOrdersStep{Orders: members, Group: &snapshot}
		result := c.exec.Apply(ctx, forward, inverse)
		// The group loses its last member above; sweep the empty shell.
		result.Calls = append(result.Calls, CallResult{Op: "delete group", Target: groupID, Err: c.svc.DeleteGroup(ctx, groupID)})
		c.log.Record(forward, inverse)
		c.selection.Clear()
		return result, c.Refresh(ctx)
	}

	forward := &DeleteGroupStep{GroupID: groupID, OrderIDs: ids}
	inverse := &CreateGroupStep{
		Group: domain.GroupInput{
			Title:              group.Title,
			Vendor:             group.Vendor,
			Status:             group.Status,
			StatusTag:          group.StatusTag,
			RequestedDisplayAt: group.RequestedDisplayAt,
		},
		OrderIDs:     ids,
		MemberStatus: group.Status,
		Notes:        group.Notes,
		Tracking:     group.Tracking,
	}
	result := c.exec.Apply(ctx, forward, inverse)
	c.log.Record(forward, inverse)
	c.selection.Clear()
	return result, c.Refresh(ctx)
}

// AddSelectionToOrder drops the vendor-uniform selection onto an existing
// order: into its group when it has one, otherwise batching the target and
// the selection into a fresh group.
func (c *Console) AddSelectionToOrder(ctx context.Context, targetOrderID string) (StepResult, error) {
	target, ok := c.store.Order(targetOrderID)
	if !ok {
		return StepResult{}, ErrNotFound
	}
	selected := c.store.Selected(c.selection.IDs())
	if len(selected) == 0 {
		return StepResult{}, ErrEmptySelection
	}
	vendor, uniform := UniformVendor(selected)
	if !uniform || vendor == "" {
		return StepResult{}, ErrMixedVendors
	}
	if target.NormalizedVendor() != vendor {
		return StepResult{}, ErrVendorMismatch
	}

	var forward, inverse Step
	if target.GroupID != "" {
		groupID := target.GroupID
		forwardEntries := make([]StatusEntry, len(selected))
		inverseEntries := make([]StatusEntry, len(selected))
		for i, order := range selected {
			prevGroup := order.GroupID
			forwardEntries[i] = StatusEntry{OrderID: order.ID, Status: target.Status, GroupID: &groupID}
			inverseEntries[i] = StatusEntry{OrderID: order.ID, Status: order.Status, GroupID: &prevGroup}
		}
		forward = &BulkStatusStep{Entries: forwardEntries}
		inverse = &BulkStatusStep{Entries: inverseEntries}
	} else {
		now := c.clock()
		ids := make([]string, 0, len(selected)+1)
		ids = append(ids, target.ID)
		for _, order := range selected {
			ids = append(ids, order.ID)
		}
		forward = &CreateGroupStep{
			Group: domain.GroupInput{
				Title:              groupTitle(target.Vendor, now),
				Vendor:             target.Vendor,
				Status:             domain.StatusOrdered,
				RequestedDisplayAt: now,
			},
			OrderIDs:     ids,
			MemberStatus: target.Status,
		}
		inverse = &DeleteGroupStep{OrderIDs: ids}
	}

	result := c.exec.Apply(ctx, forward, inverse)
	c.log.Record(forward, inverse)
	c.selection.Clear()
	return result, c.Refresh(ctx)
}

// UpdateOrder patches order fields; the inverse carries the pre-change
// snapshot of the same field subset.
func (c *Console) UpdateOrder(ctx context.Context, orderID string, patch domain.OrderPatch) (StepResult, error) {
	order, ok := c.store.Order(orderID)
	if !ok {
		return StepResult{}, ErrNotFound
	}
	forward := &UpdateOrderStep{OrderID: orderID, Patch: patch}
	inverse := &UpdateOrderStep{OrderID: orderID, Patch: inverseOrderPatch(order, patch)}
	result := c.exec.Apply(ctx, forward, inverse)
	c.log.Record(forward, inverse)
	return result, c.Refresh(ctx)
}

// UpdateGroup patches group metadata with a snapshot inverse.
func (c *Console) UpdateGroup(ctx context.Context, groupID string, patch domain.GroupPatch) (StepResult, error) {
	group, ok := c.store.Group(groupID)
	if !ok {
		return StepResult{}, ErrNotFound
	}
	forward := &UpdateGroupStep{GroupID: groupID, Patch: patch}
	inverse := &UpdateGroupStep{GroupID: groupID, Patch: inverseGroupPatch(group, patch)}
	result := c.exec.Apply(ctx, forward, inverse)
	c.log.Record(forward, inverse)
	return result, c.Refresh(ctx)
}

// reconcileSelection re-checks the add-to-order invariant after a selection
// mutation.
func (c *Console) reconcileSelection() {
	c.selection.Reconcile(c.store.Selected(c.selection.IDs()))
}

// pruneSelection drops selected ids the refetch no longer knows about.
func (c *Console) pruneSelection() {
	for _, id := range c.selection.IDs() {
		if _, ok := c.store.Order(id); !ok {
			c.selection.Remove(id)
		}
	}
	c.reconcileSelection()
}

// groupTitle builds the fallback group title shown on the board.
func groupTitle(vendor string, now time.Time) string {
	if vendor == "" {
		return "Group - " + now.Format("Jan 2 15:04")
	}
	return vendor + " - " + now.Format("Jan 2 15:04")
}

// inverseOrderPatch captures the pre-change values of the fields the patch
// touches.
func inverseOrderPatch(order domain.Order, patch domain.OrderPatch) domain.OrderPatch {
	var out domain.OrderPatch
	if patch.PartName != nil {
		v := order.PartName
		out.PartName = &v
	}
	if patch.PartNumber != nil {
		v := order.PartNumber
		out.PartNumber = &v
	}
	if patch.PartLink != nil {
		v := order.PartLink
		out.PartLink = &v
	}
	if patch.Vendor != nil {
		v := order.Vendor
		out.Vendor = &v
	}
	if patch.Quantity != nil {
		v := order.Quantity
		out.Quantity = &v
	}
	if patch.UnitCost != nil {
		v := order.UnitCost
		out.UnitCost = &v
	}
	if patch.TotalCost != nil {
		v := order.TotalCost
		out.TotalCost = &v
	}
	if patch.Notes != nil {
		v := order.Notes
		out.Notes = &v
	}
	if patch.Tracking != nil {
		v := order.Tracking
		out.Tracking = &v
	}
	if patch.Tags != nil {
		v := order.Tags
		out.Tags = &v
	}
	if patch.Approval != nil {
		v := order.Approval
		out.Approval = &v
	}
	return out
}

// inverseGroupPatch captures the pre-change values of the fields the patch
// touches.
func inverseGroupPatch(group domain.Group, patch domain.GroupPatch) domain.GroupPatch {
	var out domain.GroupPatch
	if patch.Title != nil {
		v := group.Title
		out.Title = &v
	}
	if patch.Status != nil {
		v := group.Status
		out.Status = &v
	}
	if patch.StatusTag != nil {
		v := group.StatusTag
		out.StatusTag = &v
	}
	if patch.Tracking != nil {
		v := group.Tracking
		out.Tracking = &v
	}
	if patch.Notes != nil {
		v := group.Notes
		out.Notes = &v
	}
	return out
}
