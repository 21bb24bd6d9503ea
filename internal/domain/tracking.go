package domain

import (
	"strings"
	"time"
)

// TrackingEntry describes one carrier shipment attached to an order or group.
type TrackingEntry struct {
	Carrier       string
	Number        string
	State         string
	ETA           string
	URL           string
	Delivered     bool
	LastCheckedAt *time.Time
}

// NormalizeTracking drops entries without a tracking number and defaults the
// carrier, preserving entry order.
func NormalizeTracking(entries []TrackingEntry) []TrackingEntry {
	out := make([]TrackingEntry, 0, len(entries))
	for _, entry := range entries {
		entry.Number = strings.TrimSpace(entry.Number)
		if entry.Number == "" {
			continue
		}
		entry.Carrier = strings.ToLower(strings.TrimSpace(entry.Carrier))
		if entry.Carrier == "" {
			entry.Carrier = "other"
		}
		out = append(out, entry)
	}
	return out
}
