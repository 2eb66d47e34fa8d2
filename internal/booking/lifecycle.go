package booking

import (
	"context"
	"errors"
	"time"
)

// Lifecycle event types, also used as message routing keys.
const (
	EventCreated       = "booking.created"
	EventStatusChanged = "booking.status_changed"
	EventExpired       = "booking.expired"
	EventCompleted     = "booking.completed"
	EventCheckedIn     = "booking.checked_in"
)

// LifecycleEvent describes a committed booking state change.
type LifecycleEvent struct {
	Type           string    `json:"type"`
	BookingID      int64     `json:"booking_id"`
	CourtID        int64     `json:"court_id"`
	PlayerID       *int64    `json:"player_id,omitempty"`
	Status         Status    `json:"status,omitempty"`
	PreviousStatus Status    `json:"previous_status,omitempty"`
	ChangeAmount   *int64    `json:"change_amount,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EventSink receives lifecycle events after the change is committed. Delivery
// is best effort: failures are logged by the caller and never undo the change.
type EventSink interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Publish(context.Context, LifecycleEvent) error { return nil }

// MultiSink delivers each event to every sink and joins their errors.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, event LifecycleEvent) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clock is the time source for expiry and check-in decisions.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return realClock{} }
