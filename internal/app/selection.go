package app

import (
	"slices"

	"github.com/hylla/partdesk/internal/domain"
)

// Selection tracks the set of selected order ids plus the transient
// add-to-order mode. Grouping and add-to-order demand a vendor-uniform
// selection; the mode auto-cancels when a selection mutation breaks that
// invariant.
type Selection struct {
	ids          map[string]struct{}
	addToOrder   bool
	targetVendor string
}

// NewSelection constructs an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: map[string]struct{}{}}
}

// Toggle flips one order id in or out of the selection.
func (s *Selection) Toggle(orderID string) {
	if _, ok := s.ids[orderID]; ok {
		delete(s.ids, orderID)
		return
	}
	s.ids[orderID] = struct{}{}
}

// Add inserts one order id.
func (s *Selection) Add(orderID string) {
	s.ids[orderID] = struct{}{}
}

// Remove drops one order id.
func (s *Selection) Remove(orderID string) {
	delete(s.ids, orderID)
}

// Clear empties the selection and cancels add-to-order mode.
func (s *Selection) Clear() {
	s.ids = map[string]struct{}{}
	s.resetAddToOrder()
}

// Has reports whether the order id is selected.
func (s *Selection) Has(orderID string) bool {
	_, ok := s.ids[orderID]
	return ok
}

// Count returns the selection size.
func (s *Selection) Count() int {
	return len(s.ids)
}

// IDs returns the selected order ids in deterministic order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// StartAddToOrder enters add-to-order mode targeting the selection's vendor.
// It fails without state change when the selection is empty or spans
// multiple normalized vendor names.
func (s *Selection) StartAddToOrder(selected []domain.Order) error {
	if len(s.ids) == 0 || len(selected) == 0 {
		return ErrEmptySelection
	}
	vendor, uniform := UniformVendor(selected)
	if !uniform || vendor == "" {
		return ErrMixedVendors
	}
	s.addToOrder = true
	s.targetVendor = vendor
	return nil
}

// ResetAddToOrder leaves add-to-order mode.
func (s *Selection) ResetAddToOrder() {
	s.resetAddToOrder()
}

func (s *Selection) resetAddToOrder() {
	s.addToOrder = false
	s.targetVendor = ""
}

// AddToOrderActive reports whether add-to-order mode is on.
func (s *Selection) AddToOrderActive() bool {
	return s.addToOrder
}

// TargetVendor returns the normalized vendor narrowing valid drop targets
// while add-to-order mode is active.
func (s *Selection) TargetVendor() string {
	return s.targetVendor
}

// Reconcile cancels add-to-order mode when the current selection no longer
// satisfies the vendor invariant. Called after every selection mutation.
func (s *Selection) Reconcile(selected []domain.Order) {
	if !s.addToOrder {
		return
	}
	if len(selected) == 0 {
		s.resetAddToOrder()
		return
	}
	for _, order := range selected {
		if order.NormalizedVendor() != s.targetVendor {
			s.resetAddToOrder()
			return
		}
	}
}

// UniformVendor returns the shared normalized vendor of the orders and
// whether they all agree.
func UniformVendor(orders []domain.Order) (string, bool) {
	if len(orders) == 0 {
		return "", true
	}
	vendor := orders[0].NormalizedVendor()
	for _, order := range orders[1:] {
		if order.NormalizedVendor() != vendor {
			return "", false
		}
	}
	return vendor, true
}
