package booking

import "errors"

// Conditions callers are expected to branch on with errors.Is. None of them
// indicate a programming error; each maps to a user-facing reason at the HTTP
// boundary.
var (
	ErrInvalidInterval         = errors.New("invalid interval")
	ErrSlotBlockedByEvent      = errors.New("slot blocked by court event")
	ErrSlotAlreadyBooked       = errors.New("slot already booked")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrNotFound                = errors.New("not found")
	ErrNotYourCourt            = errors.New("not your court")
	ErrBookingExpired          = errors.New("booking expired")
	ErrAlreadyCheckedIn        = errors.New("already checked in")
	ErrInsufficientPayment     = errors.New("insufficient payment")
	ErrBookingCancelled        = errors.New("booking cancelled")
	ErrInvalidToken            = errors.New("invalid check-in token")
	ErrCourtInUse              = errors.New("court in use")
	ErrEventOverlapsBookings   = errors.New("event overlaps existing bookings")
	ErrInvalidEventType        = errors.New("invalid event type")
	ErrInvalidRequest          = errors.New("invalid request")
)

// Reason returns the stable reason code for err, or "" when err is not one of
// the engine's conditions.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return ""
}

var reasons = []struct {
	err  error
	code string
}{
	{ErrInvalidInterval, "InvalidInterval"},
	{ErrSlotBlockedByEvent, "SlotBlockedByEvent"},
	{ErrSlotAlreadyBooked, "SlotAlreadyBooked"},
	{ErrInvalidStatusTransition, "InvalidStatusTransition"},
	{ErrNotFound, "NotFound"},
	{ErrNotYourCourt, "NotYourCourt"},
	{ErrBookingExpired, "BookingExpired"},
	{ErrAlreadyCheckedIn, "AlreadyCheckedIn"},
	{ErrInsufficientPayment, "InsufficientPayment"},
	{ErrBookingCancelled, "BookingCancelled"},
	{ErrInvalidToken, "InvalidToken"},
	{ErrCourtInUse, "CourtInUse"},
	{ErrEventOverlapsBookings, "EventOverlapsBookings"},
	{ErrInvalidEventType, "InvalidEventType"},
	{ErrInvalidRequest, "InvalidRequest"},
}
