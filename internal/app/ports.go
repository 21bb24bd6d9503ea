package app

import (
	"context"

	"github.com/hylla/partdesk/internal/domain"
)

// OrderService is the narrow port to the procurement backend. Create calls
// return the server-assigned identifier; an empty groupID on AssignOrderGroup
// clears the order's group reference.
type OrderService interface {
	ListOrders(context.Context) ([]domain.Order, error)
	ListGroups(context.Context) ([]domain.Group, error)

	CreateOrder(context.Context, domain.OrderInput) (string, error)
	PatchOrder(context.Context, string, domain.OrderPatch) error
	DeleteOrder(context.Context, string) error
	PatchOrderStatus(context.Context, string, domain.Status, []domain.TrackingEntry) error
	AssignOrderGroup(ctx context.Context, orderID, groupID string) error

	CreateGroup(context.Context, domain.GroupInput) (string, error)
	PatchGroup(context.Context, string, domain.GroupPatch) error
	DeleteGroup(context.Context, string) error
}
