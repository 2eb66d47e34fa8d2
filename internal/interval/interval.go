// Package interval models half-open time ranges used for court slots and events.
package interval

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	clockLayoutSeconds = "15:04:05"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Valid reports whether Start is strictly before End.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether a and b share any instant. Touching endpoints
// (a.End == b.Start) do not overlap, so back-to-back slots are allowed.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i, other)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// Slot is a booking window expressed the way bookings are stored: a calendar
// date plus start and end times of day.
type Slot struct {
	Date      string
	StartTime string
	EndTime   string
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	parsed, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return parsed, nil
}

// NormalizeClock accepts HH:MM or HH:MM:SS and returns HH:MM.
func NormalizeClock(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("time is required")
	}
	for _, layout := range []string{ClockLayout, clockLayoutSeconds} {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.Format(ClockLayout), nil
		}
	}
	return "", fmt.Errorf("time must be HH:MM")
}

// NormalizeSlot trims and canonicalizes the date and both clock values.
func NormalizeSlot(slot Slot) (Slot, error) {
	date := strings.TrimSpace(slot.Date)
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Slot{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	start, err := NormalizeClock(slot.StartTime)
	if err != nil {
		return Slot{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := NormalizeClock(slot.EndTime)
	if err != nil {
		return Slot{}, fmt.Errorf("end_time: %w", err)
	}
	return Slot{Date: date, StartTime: start, EndTime: end}, nil
}

// FromSlot combines the slot date with its clock times in loc. The result is
// not validated; callers check Valid.
func FromSlot(slot Slot, loc *time.Location) (Interval, error) {
	if loc == nil {
		loc = time.UTC
	}
	normalized, err := NormalizeSlot(slot)
	if err != nil {
		return Interval{}, err
	}
	start, err := combine(normalized.Date, normalized.StartTime, loc)
	if err != nil {
		return Interval{}, err
	}
	end, err := combine(normalized.Date, normalized.EndTime, loc)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// SlotStart returns the absolute start instant of a stored booking slot.
func SlotStart(date, startTime string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	clock, err := NormalizeClock(startTime)
	if err != nil {
		return time.Time{}, err
	}
	return combine(strings.TrimSpace(date), clock, loc)
}

func combine(date, clock string, loc *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %q %q", date, clock)
	}
	return parsed, nil
}
