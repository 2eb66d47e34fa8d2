package courts

import (
	"context"
	"fmt"

	"github.com/codr1/courtbook/internal/booking"
	dbgen "github.com/codr1/courtbook/internal/db/generated"
	"github.com/codr1/courtbook/internal/interval"
)

// Schedule is one court's day: its bookings and the events touching it.
type Schedule struct {
	CourtID  int64             `json:"court_id"`
	Date     string            `json:"date"`
	Bookings []booking.Booking `json:"bookings"`
	Events   []Event           `json:"events"`
}

// Schedule lists bookings and events for courtID on date. Callers other than
// the court owner see bookings without player identity.
func (s *Service) Schedule(ctx context.Context, courtID int64, date string, callerID int64) (Schedule, error) {
	court, err := s.GetCourt(ctx, courtID)
	if err != nil {
		return Schedule{}, err
	}
	day, err := interval.ParseDate(date, s.loc)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: %v", booking.ErrInvalidInterval, err)
	}

	rows, err := s.db.Queries.ListCourtBookingsByDate(ctx, dbgen.ListCourtBookingsByDateParams{
		CourtID: courtID,
		Date:    day.Format(interval.DateLayout),
	})
	if err != nil {
		return Schedule{}, fmt.Errorf("list bookings: %w", err)
	}
	bookings := make([]booking.Booking, 0, len(rows))
	for _, row := range rows {
		b := booking.FromRow(row)
		if court.OwnerID != callerID && (b.PlayerID == nil || *b.PlayerID != callerID) {
			b.PlayerID = nil
			b.CustomerName = ""
		}
		bookings = append(bookings, b)
	}

	events, err := s.ListEvents(ctx, courtID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{
		CourtID:  courtID,
		Date:     day.Format(interval.DateLayout),
		Bookings: bookings,
		Events:   events,
	}, nil
}
