// Package blocking decides whether owner-declared court events prevent a
// booking. It looks at events only; booking-vs-booking overlap belongs to the
// reservation engine.
package blocking

import "github.com/codr1/courtbook/internal/interval"

// Event is the snapshot of a court event the policy needs.
type Event struct {
	ID             int64
	CourtID        int64
	Type           string
	BlocksBookings bool
	Interval       interval.Interval
}

// IsBlocked reports whether any blocking event overlaps iv. Events with
// BlocksBookings unset never block, whatever their type.
func IsBlocked(events []Event, iv interval.Interval) bool {
	for _, event := range events {
		if blocks(event, iv) {
			return true
		}
	}
	return false
}

// Blockers returns the events that block iv, in input order.
func Blockers(events []Event, iv interval.Interval) []Event {
	var out []Event
	for _, event := range events {
		if blocks(event, iv) {
			out = append(out, event)
		}
	}
	return out
}

func blocks(event Event, iv interval.Interval) bool {
	return event.BlocksBookings && interval.Overlaps(iv, event.Interval)
}
