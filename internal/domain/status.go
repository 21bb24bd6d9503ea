package domain

import (
	"slices"
	"strings"
)

// Status identifies where an order sits in the procurement lifecycle.
type Status string

const (
	StatusRequested Status = "Requested"
	StatusOrdered   Status = "Ordered"
	StatusReceived  Status = "Received"
)

// validStatuses stores lifecycle statuses in board-column order.
var validStatuses = []Status{StatusRequested, StatusOrdered, StatusReceived}

// Statuses returns the lifecycle statuses in board-column order.
func Statuses() []Status {
	return slices.Clone(validStatuses)
}

// Valid reports whether the status is a known lifecycle status.
func (s Status) Valid() bool {
	return slices.Contains(validStatuses, s)
}

// ParseStatus normalizes a raw status string into a Status.
func ParseStatus(raw string) (Status, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range validStatuses {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", ErrInvalidStatus
}

// CanTransition reports whether an order may move to the target status.
// Leaving Requested requires group membership; moving back to Requested is
// always allowed, with the caller clearing the group reference first.
func CanTransition(order Order, target Status) bool {
	if !target.Valid() {
		return false
	}
	if target == StatusRequested {
		return true
	}
	return order.GroupID != ""
}
