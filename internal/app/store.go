package app

import (
	"context"
	"slices"

	"github.com/hylla/partdesk/internal/domain"
)

// Store is the in-memory cache of orders and groups. It is replaced
// wholesale by Refresh after every completed step; nothing patches it
// incrementally mid-sequence.
type Store struct {
	svc    OrderService
	orders []domain.Order
	groups []domain.Group
}

// NewStore constructs an empty store over the given Order Service.
func NewStore(svc OrderService) *Store {
	return &Store{svc: svc}
}

// Refresh refetches orders and groups and swaps both in atomically from the
// caller's point of view: a failed fetch leaves the previous contents.
func (s *Store) Refresh(ctx context.Context) error {
	orders, err := s.svc.ListOrders(ctx)
	if err != nil {
		return err
	}
	groups, err := s.svc.ListGroups(ctx)
	if err != nil {
		return err
	}
	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		return a.RequestedDisplayAt.Compare(b.RequestedDisplayAt)
	})
	slices.SortStableFunc(groups, func(a, b domain.Group) int {
		return a.RequestedDisplayAt.Compare(b.RequestedDisplayAt)
	})
	s.orders = orders
	s.groups = groups
	return nil
}

// Orders returns all cached orders in display order.
func (s *Store) Orders() []domain.Order {
	return slices.Clone(s.orders)
}

// Groups returns all cached groups in display order.
func (s *Store) Groups() []domain.Group {
	return slices.Clone(s.groups)
}

// Order returns one cached order by id.
func (s *Store) Order(id string) (domain.Order, bool) {
	for _, order := range s.orders {
		if order.ID == id {
			return order, true
		}
	}
	return domain.Order{}, false
}

// Group returns one cached group by id.
func (s *Store) Group(id string) (domain.Group, bool) {
	for _, group := range s.groups {
		if group.ID == id {
			return group, true
		}
	}
	return domain.Group{}, false
}

// Members returns the cached orders belonging to a group.
func (s *Store) Members(groupID string) []domain.Order {
	if groupID == "" {
		return nil
	}
	var out []domain.Order
	for _, order := range s.orders {
		if order.GroupID == groupID {
			out = append(out, order)
		}
	}
	return out
}

// Ungrouped returns cached orders with the given status and no group
// reference; these render as loose cards on the board.
func (s *Store) Ungrouped(status domain.Status) []domain.Order {
	var out []domain.Order
	for _, order := range s.orders {
		if order.Status == status && order.GroupID == "" {
			out = append(out, order)
		}
	}
	return out
}

// GroupsWithStatus returns cached groups carrying the given status.
func (s *Store) GroupsWithStatus(status domain.Status) []domain.Group {
	var out []domain.Group
	for _, group := range s.groups {
		if group.Status == status {
			out = append(out, group)
		}
	}
	return out
}

// Selected resolves a set of order ids against the cache, skipping ids that
// no longer exist.
func (s *Store) Selected(ids []string) []domain.Order {
	var out []domain.Order
	for _, order := range s.orders {
		if slices.Contains(ids, order.ID) {
			out = append(out, order)
		}
	}
	return out
}
