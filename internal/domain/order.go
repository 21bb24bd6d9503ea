package domain

import (
	"strings"
	"time"
)

// ApprovalStatus tracks mentor sign-off on a part request.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
)

// Order is a single requested/ordered/received line item.
type Order struct {
	ID                 string
	PartName           string
	PartNumber         string
	PartLink           string
	Vendor             string
	Quantity           int
	UnitCost           float64
	TotalCost          float64
	Status             Status
	GroupID            string
	Tracking           []TrackingEntry
	Tags               []string
	Approval           ApprovalStatus
	StudentName        string
	Notes              string
	RequestedDisplayAt time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OrderInput holds raw fields for constructing an order.
type OrderInput struct {
	ID                 string
	PartName           string
	PartNumber         string
	PartLink           string
	Vendor             string
	Quantity           int
	UnitCost           float64
	TotalCost          float64
	Status             Status
	GroupID            string
	Tracking           []TrackingEntry
	Tags               []string
	Approval           ApprovalStatus
	StudentName        string
	Notes              string
	RequestedDisplayAt time.Time
}

// NewOrder validates and normalizes an order.
func NewOrder(in OrderInput, now time.Time) (Order, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.PartName = strings.TrimSpace(in.PartName)
	in.PartNumber = strings.TrimSpace(in.PartNumber)
	in.PartLink = strings.TrimSpace(in.PartLink)
	in.Vendor = strings.TrimSpace(in.Vendor)
	in.GroupID = strings.TrimSpace(in.GroupID)
	in.StudentName = strings.TrimSpace(in.StudentName)

	if in.ID == "" {
		return Order{}, ErrInvalidID
	}
	if in.PartName == "" {
		return Order{}, ErrInvalidPartName
	}
	if in.Quantity <= 0 {
		return Order{}, ErrInvalidQuantity
	}
	if in.Status == "" {
		in.Status = StatusRequested
	}
	if !in.Status.Valid() {
		return Order{}, ErrInvalidStatus
	}
	if in.Approval == "" {
		in.Approval = ApprovalPending
	}
	if in.RequestedDisplayAt.IsZero() {
		in.RequestedDisplayAt = now
	}

	return Order{
		ID:                 in.ID,
		PartName:           in.PartName,
		PartNumber:         in.PartNumber,
		PartLink:           in.PartLink,
		Vendor:             in.Vendor,
		Quantity:           in.Quantity,
		UnitCost:           in.UnitCost,
		TotalCost:          in.TotalCost,
		Status:             in.Status,
		GroupID:            in.GroupID,
		Tracking:           NormalizeTracking(in.Tracking),
		Tags:               normalizeTags(in.Tags),
		Approval:           in.Approval,
		StudentName:        in.StudentName,
		Notes:              strings.TrimSpace(in.Notes),
		RequestedDisplayAt: in.RequestedDisplayAt.UTC(),
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}, nil
}

// NormalizedVendor returns the vendor name used for uniformity checks.
func (o Order) NormalizedVendor() string {
	return NormalizeVendor(o.Vendor)
}

// NormalizeVendor canonicalizes a vendor name for case-insensitive identity.
func NormalizeVendor(vendor string) string {
	return strings.ToLower(strings.TrimSpace(vendor))
}

// OrderPatch carries a field subset for a partial order update. Nil fields are
// left untouched.
type OrderPatch struct {
	PartName   *string
	PartNumber *string
	PartLink   *string
	Vendor     *string
	Quantity   *int
	UnitCost   *float64
	TotalCost  *float64
	Notes      *string
	Tracking   *[]TrackingEntry
	Tags       *[]string
	Approval   *ApprovalStatus
}

// Apply merges the patch into the order.
func (o *Order) Apply(patch OrderPatch, now time.Time) {
	if patch.PartName != nil {
		o.PartName = strings.TrimSpace(*patch.PartName)
	}
	if patch.PartNumber != nil {
		o.PartNumber = strings.TrimSpace(*patch.PartNumber)
	}
	if patch.PartLink != nil {
		o.PartLink = strings.TrimSpace(*patch.PartLink)
	}
	if patch.Vendor != nil {
		o.Vendor = strings.TrimSpace(*patch.Vendor)
	}
	if patch.Quantity != nil && *patch.Quantity > 0 {
		o.Quantity = *patch.Quantity
	}
	if patch.UnitCost != nil {
		o.UnitCost = *patch.UnitCost
	}
	if patch.TotalCost != nil {
		o.TotalCost = *patch.TotalCost
	}
	if patch.Notes != nil {
		o.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.Tracking != nil {
		o.Tracking = NormalizeTracking(*patch.Tracking)
	}
	if patch.Tags != nil {
		o.Tags = normalizeTags(*patch.Tags)
	}
	if patch.Approval != nil {
		o.Approval = *patch.Approval
	}
	o.UpdatedAt = now.UTC()
}

// normalizeTags lowercases, dedupes, and drops empty tag ids.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
