package app

import "github.com/hylla/partdesk/internal/domain"

// StepKind identifies one replayable mutation against the Order Service.
type StepKind string

// Step kinds recorded by the action log.
const (
	StepDeleteOrder   StepKind = "delete-order"
	StepRestoreOrder  StepKind = "restore-order"
	StepUpdateOrder   StepKind = "update-order"
	StepUpdateStatus  StepKind = "update-status"
	StepBulkStatus    StepKind = "bulk-status"
	StepAssignGroup   StepKind = "assign-group"
	StepCreateGroup   StepKind = "create-group"
	StepRestoreOrders StepKind = "restore-orders"
	StepDeleteOrders  StepKind = "delete-orders"
	StepDeleteGroup   StepKind = "delete-group"
	StepUpdateGroup   StepKind = "update-group"
)

// Step is a closed tagged union: every variant carries a payload sufficient
// to replay the operation without referencing any live store state. Variants
// are pointer structs so the executor can rebind recreated identifiers into a
// record's counterpart step.
type Step interface {
	Kind() StepKind
	isStep()
}

// DeleteOrderStep removes one order by id.
type DeleteOrderStep struct {
	OrderID string
}

// RestoreOrderStep recreates one order from a full snapshot and reattaches it
// to its original group when one existed.
type RestoreOrderStep struct {
	Order   domain.Order
	GroupID string
}

// UpdateOrderStep patches a field subset on an existing order.
type UpdateOrderStep struct {
	OrderID string
	Patch   domain.OrderPatch
}

// UpdateStatusStep sets one order's status. A nil GroupID leaves the group
// reference alone; a pointer to the empty string clears it.
type UpdateStatusStep struct {
	OrderID  string
	Status   domain.Status
	GroupID  *string
	Tracking []domain.TrackingEntry
}

// StatusEntry is one order's captured status/group pair inside a bulk step.
type StatusEntry struct {
	OrderID  string
	Status   domain.Status
	GroupID  *string
	Tracking []domain.TrackingEntry
}

// BulkStatusStep applies status/group pairs to many orders in sequence.
type BulkStatusStep struct {
	Entries []StatusEntry
}

// AssignGroupStep sets or clears one order's group reference.
type AssignGroupStep struct {
	OrderID string
	GroupID string
}

// CreateGroupStep creates a group, assigns the member orders to it, moves
// them to the member status, and optionally patches group metadata.
type CreateGroupStep struct {
	Group        domain.GroupInput
	OrderIDs     []string
	MemberStatus domain.Status
	Notes        string
	Tracking     []domain.TrackingEntry
}

// RestoreOrdersStep bulk-recreates a set of orders from snapshots, recreating
// their group first when one is carried.
type RestoreOrdersStep struct {
	Orders []domain.Order
	Group  *domain.GroupInput
}

// DeleteOrdersStep bulk-deletes a set of order ids.
type DeleteOrdersStep struct {
	OrderIDs []string
}

// DeleteGroupStep removes a group after detaching its members back to
// Requested.
type DeleteGroupStep struct {
	GroupID  string
	OrderIDs []string
}

// UpdateGroupStep patches group metadata.
type UpdateGroupStep struct {
	GroupID string
	Patch   domain.GroupPatch
}

func (*DeleteOrderStep) Kind() StepKind   { return StepDeleteOrder }
func (*RestoreOrderStep) Kind() StepKind  { return StepRestoreOrder }
func (*UpdateOrderStep) Kind() StepKind   { return StepUpdateOrder }
func (*UpdateStatusStep) Kind() StepKind  { return StepUpdateStatus }
func (*BulkStatusStep) Kind() StepKind    { return StepBulkStatus }
func (*AssignGroupStep) Kind() StepKind   { return StepAssignGroup }
func (*CreateGroupStep) Kind() StepKind   { return StepCreateGroup }
func (*RestoreOrdersStep) Kind() StepKind { return StepRestoreOrders }
func (*DeleteOrdersStep) Kind() StepKind  { return StepDeleteOrders }
func (*DeleteGroupStep) Kind() StepKind   { return StepDeleteGroup }
func (*UpdateGroupStep) Kind() StepKind   { return StepUpdateGroup }

func (*DeleteOrderStep) isStep()   {}
func (*RestoreOrderStep) isStep()  {}
func (*UpdateOrderStep) isStep()   {}
func (*UpdateStatusStep) isStep()  {}
func (*BulkStatusStep) isStep()    {}
func (*AssignGroupStep) isStep()   {}
func (*CreateGroupStep) isStep()   {}
func (*RestoreOrdersStep) isStep() {}
func (*DeleteOrdersStep) isStep()  {}
func (*DeleteGroupStep) isStep()   {}
func (*UpdateGroupStep) isStep()   {}

// StepLabel returns the human label used for the undo affordance.
func StepLabel(kind StepKind) string {
	switch kind {
	case StepDeleteOrder, StepDeleteOrders:
		return "delete"
	case StepRestoreOrder, StepRestoreOrders:
		return "restore"
	case StepUpdateOrder:
		return "edit"
	case StepUpdateStatus, StepBulkStatus:
		return "status change"
	case StepAssignGroup:
		return "move to order"
	case StepCreateGroup:
		return "create order"
	case StepDeleteGroup:
		return "delete order"
	case StepUpdateGroup:
		return "edit order"
	default:
		return "action"
	}
}
