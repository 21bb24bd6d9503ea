package app

import (
	"context"
	"sync"

	charmlog "github.com/charmbracelet/log"
	"github.com/hylla/partdesk/internal/domain"
)

// Executor interprets steps into Order Service calls. It is used for the
// forward leg of a user action and for the inverse leg during undo; the
// counterpart argument is the other half of the action record, so recreated
// identifiers can be rebound into it and the pair stays replayable.
type Executor struct {
	svc    OrderService
	logger *charmlog.Logger
}

// NewExecutor constructs an executor over the given Order Service.
func NewExecutor(svc OrderService, logger *charmlog.Logger) *Executor {
	if logger == nil {
		logger = charmlog.Default()
	}
	return &Executor{svc: svc, logger: logger}
}

// Apply executes one step. Compound steps issue ordered dependent sub-calls
// and stop at the first failure; there is no rollback of sub-calls already
// issued. The caller resynchronizes the store wholesale afterwards either
// way.
func (e *Executor) Apply(ctx context.Context, step Step, counterpart Step) StepResult {
	result := StepResult{Kind: step.Kind()}
	switch s := step.(type) {
	case *DeleteOrderStep:
		e.call(&result, "delete order", s.OrderID, e.svc.DeleteOrder(ctx, s.OrderID))
	case *RestoreOrderStep:
		e.applyRestoreOrder(ctx, s, counterpart, &result)
	case *UpdateOrderStep:
		e.call(&result, "patch order", s.OrderID, e.svc.PatchOrder(ctx, s.OrderID, s.Patch))
	case *UpdateStatusStep:
		e.applyStatusEntry(ctx, StatusEntry(*s), &result)
	case *BulkStatusStep:
		for _, entry := range s.Entries {
			if !e.applyStatusEntry(ctx, entry, &result) {
				break
			}
		}
	case *AssignGroupStep:
		e.call(&result, "assign group", s.OrderID, e.svc.AssignOrderGroup(ctx, s.OrderID, s.GroupID))
	case *CreateGroupStep:
		e.applyCreateGroup(ctx, s, counterpart, &result)
	case *RestoreOrdersStep:
		e.applyRestoreOrders(ctx, s, counterpart, &result)
	case *DeleteOrdersStep:
		e.applyDeleteOrders(ctx, s, &result)
	case *DeleteGroupStep:
		e.applyDeleteGroup(ctx, s, &result)
	case *UpdateGroupStep:
		e.call(&result, "patch group", s.GroupID, e.svc.PatchGroup(ctx, s.GroupID, s.Patch))
	}
	if err := result.Err(); err != nil {
		e.logger.Warn("step partially applied", "step", step.Kind(), "err", err)
	}
	return result
}

// call records one sub-call outcome and reports whether it succeeded.
func (e *Executor) call(result *StepResult, op, target string, err error) bool {
	result.Calls = append(result.Calls, CallResult{Op: op, Target: target, Err: err})
	return err == nil
}

// applyStatusEntry patches one order's status and, when the entry carries a
// group pointer, its group reference.
func (e *Executor) applyStatusEntry(ctx context.Context, entry StatusEntry, result *StepResult) bool {
	if !e.call(result, "patch status", entry.OrderID, e.svc.PatchOrderStatus(ctx, entry.OrderID, entry.Status, entry.Tracking)) {
		return false
	}
	if entry.GroupID != nil {
		return e.call(result, "assign group", entry.OrderID, e.svc.AssignOrderGroup(ctx, entry.OrderID, *entry.GroupID))
	}
	return true
}

// applyRestoreOrder recreates one order from its snapshot and reattaches the
// original group. The new id is rebound into a delete-order counterpart.
func (e *Executor) applyRestoreOrder(ctx context.Context, step *RestoreOrderStep, counterpart Step, result *StepResult) {
	newID, err := e.svc.CreateOrder(ctx, orderDraft(step.Order))
	if !e.call(result, "create order", step.Order.PartName, err) {
		return
	}
	if step.GroupID != "" {
		if !e.call(result, "assign group", newID, e.svc.AssignOrderGroup(ctx, newID, step.GroupID)) {
			return
		}
	}
	if del, ok := counterpart.(*DeleteOrderStep); ok {
		del.OrderID = newID
	}
}

// applyCreateGroup creates a group, moves the member orders into it, and
// patches optional metadata. The new group id is threaded into the member
// sub-calls and rebound into a delete-group counterpart.
func (e *Executor) applyCreateGroup(ctx context.Context, step *CreateGroupStep, counterpart Step, result *StepResult) {
	groupID, err := e.svc.CreateGroup(ctx, step.Group)
	if !e.call(result, "create group", step.Group.Title, err) {
		return
	}
	status := step.MemberStatus
	if status == "" {
		status = domain.StatusOrdered
	}
	for _, orderID := range step.OrderIDs {
		if !e.call(result, "patch status", orderID, e.svc.PatchOrderStatus(ctx, orderID, status, nil)) {
			return
		}
		if !e.call(result, "assign group", orderID, e.svc.AssignOrderGroup(ctx, orderID, groupID)) {
			return
		}
	}
	if step.Notes != "" || len(step.Tracking) > 0 {
		notes := step.Notes
		tracking := step.Tracking
		patch := domain.GroupPatch{Notes: &notes, Tracking: &tracking}
		if !e.call(result, "patch group", groupID, e.svc.PatchGroup(ctx, groupID, patch)) {
			return
		}
	}
	if del, ok := counterpart.(*DeleteGroupStep); ok {
		del.GroupID = groupID
	}
}

// applyRestoreOrders bulk-recreates orders, recreating their group first when
// the step carries one. Four dependent calls per order at worst: group
// create, order create, group assign, status restore. A failed group create
// is logged and the orders are restored ungrouped, matching the best-effort
// policy.
func (e *Executor) applyRestoreOrders(ctx context.Context, step *RestoreOrdersStep, counterpart Step, result *StepResult) {
	newGroupID := ""
	if step.Group != nil {
		id, err := e.svc.CreateGroup(ctx, *step.Group)
		e.call(result, "create group", step.Group.Title, err)
		if err != nil {
			e.logger.Warn("group not recreated during restore", "title", step.Group.Title, "err", err)
		} else {
			newGroupID = id
		}
	}
	newIDs := make([]string, 0, len(step.Orders))
	for _, snapshot := range step.Orders {
		newID, err := e.svc.CreateOrder(ctx, orderDraft(snapshot))
		if !e.call(result, "create order", snapshot.PartName, err) {
			return
		}
		newIDs = append(newIDs, newID)
		targetGroup := newGroupID
		if targetGroup == "" {
			targetGroup = snapshot.GroupID
		}
		if targetGroup != "" {
			if !e.call(result, "assign group", newID, e.svc.AssignOrderGroup(ctx, newID, targetGroup)) {
				return
			}
		}
		if snapshot.Status != "" {
			if !e.call(result, "patch status", newID, e.svc.PatchOrderStatus(ctx, newID, snapshot.Status, snapshot.Tracking)) {
				return
			}
		}
	}
	if del, ok := counterpart.(*DeleteOrdersStep); ok && len(newIDs) == len(step.Orders) {
		del.OrderIDs = newIDs
	}
}

// applyDeleteOrders fans the uniform deletes out in parallel; this is the
// only step whose sub-calls do not depend on each other.
func (e *Executor) applyDeleteOrders(ctx context.Context, step *DeleteOrdersStep, result *StepResult) {
	calls := make([]CallResult, len(step.OrderIDs))
	var wg sync.WaitGroup
	for i, orderID := range step.OrderIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			calls[i] = CallResult{Op: "delete order", Target: orderID, Err: e.svc.DeleteOrder(ctx, orderID)}
		}()
	}
	wg.Wait()
	result.Calls = append(result.Calls, calls...)
}

// applyDeleteGroup detaches every member back to Requested, then removes the
// group itself.
func (e *Executor) applyDeleteGroup(ctx context.Context, step *DeleteGroupStep, result *StepResult) {
	for _, orderID := range step.OrderIDs {
		if !e.call(result, "assign group", orderID, e.svc.AssignOrderGroup(ctx, orderID, "")) {
			return
		}
		if !e.call(result, "patch status", orderID, e.svc.PatchOrderStatus(ctx, orderID, domain.StatusRequested, nil)) {
			return
		}
	}
	e.call(result, "delete group", step.GroupID, e.svc.DeleteGroup(ctx, step.GroupID))
}

// orderDraft converts a snapshot into a create payload. The identifier and
// group reference are cleared: the service assigns a fresh id and the group
// is reattached by a dependent call.
func orderDraft(snapshot domain.Order) domain.OrderInput {
	partName := snapshot.PartName
	if partName == "" {
		partName = "Restored part"
	}
	quantity := snapshot.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	return domain.OrderInput{
		PartName:           partName,
		PartNumber:         snapshot.PartNumber,
		PartLink:           snapshot.PartLink,
		Vendor:             snapshot.Vendor,
		Quantity:           quantity,
		UnitCost:           snapshot.UnitCost,
		TotalCost:          snapshot.TotalCost,
		Status:             snapshot.Status,
		Tracking:           snapshot.Tracking,
		Tags:               snapshot.Tags,
		Approval:           snapshot.Approval,
		StudentName:        snapshot.StudentName,
		Notes:              snapshot.Notes,
		RequestedDisplayAt: snapshot.RequestedDisplayAt,
	}
}
