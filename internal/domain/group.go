package domain

import (
	"strings"
	"time"
)

// Group is a placed order batching one or more line items under one vendor
// submission. A group's lifetime is bounded by having at least one member
// order; the Order Service drops memberless groups.
type Group struct {
	ID                 string
	Title              string
	Vendor             string
	Status             Status
	StatusTag          string
	Tracking           []TrackingEntry
	Notes              string
	RequestedDisplayAt time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// GroupInput holds raw fields for constructing a group.
type GroupInput struct {
	ID                 string
	Title              string
	Vendor             string
	Status             Status
	StatusTag          string
	Tracking           []TrackingEntry
	Notes              string
	RequestedDisplayAt time.Time
}

// NewGroup validates and normalizes a group.
func NewGroup(in GroupInput, now time.Time) (Group, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	in.Vendor = strings.TrimSpace(in.Vendor)

	if in.ID == "" {
		return Group{}, ErrInvalidID
	}
	if in.Title == "" {
		return Group{}, ErrInvalidTitle
	}
	if in.Status == "" {
		in.Status = StatusOrdered
	}
	if !in.Status.Valid() {
		return Group{}, ErrInvalidStatus
	}
	if in.RequestedDisplayAt.IsZero() {
		in.RequestedDisplayAt = now
	}

	return Group{
		ID:                 in.ID,
		Title:              in.Title,
		Vendor:             in.Vendor,
		Status:             in.Status,
		StatusTag:          strings.TrimSpace(in.StatusTag),
		Tracking:           NormalizeTracking(in.Tracking),
		Notes:              strings.TrimSpace(in.Notes),
		RequestedDisplayAt: in.RequestedDisplayAt.UTC(),
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}, nil
}

// NormalizedVendor returns the vendor name used for uniformity checks.
func (g Group) NormalizedVendor() string {
	return NormalizeVendor(g.Vendor)
}

// GroupPatch carries a field subset for a partial group update. Nil fields are
// left untouched.
type GroupPatch struct {
	Title     *string
	Status    *Status
	StatusTag *string
	Tracking  *[]TrackingEntry
	Notes     *string
}

// Apply merges the patch into the group.
func (g *Group) Apply(patch GroupPatch, now time.Time) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		g.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Status != nil && patch.Status.Valid() {
		g.Status = *patch.Status
	}
	if patch.StatusTag != nil {
		g.StatusTag = strings.TrimSpace(*patch.StatusTag)
	}
	if patch.Tracking != nil {
		g.Tracking = NormalizeTracking(*patch.Tracking)
	}
	if patch.Notes != nil {
		g.Notes = strings.TrimSpace(*patch.Notes)
	}
	g.UpdatedAt = now.UTC()
}
