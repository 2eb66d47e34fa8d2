package courts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/booking"
	"github.com/codr1/courtbook/internal/config"
	appdb "github.com/codr1/courtbook/internal/db"
	dbgen "github.com/codr1/courtbook/internal/db/generated"
	"github.com/codr1/courtbook/internal/interval"
)

var eventTypes = map[string]struct{}{
	"maintenance":   {},
	"private_event": {},
	"cleaning":      {},
	"closure":       {},
	"other":         {},
}

// eventTimeLayouts are accepted for event start and end. Layouts without a
// zone are read in the deployment timezone.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

type Event struct {
	ID             int64     `json:"id"`
	CourtID        int64     `json:"court_id"`
	Title          string    `json:"title"`
	EventType      string    `json:"event_type"`
	StartDatetime  time.Time `json:"start_datetime"`
	EndDatetime    time.Time `json:"end_datetime"`
	BlocksBookings bool      `json:"blocks_bookings"`
	Color          string    `json:"color"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
}

type EventInput struct {
	Title          string
	EventType      string
	Start          time.Time
	End            time.Time
	BlocksBookings bool
	Color          string
}

// EventResult is a committed event plus the active bookings it covers. The
// list is filled only under the warn overlap policy.
type EventResult struct {
	Event                 Event   `json:"event"`
	OverlappingBookingIDs []int64 `json:"overlapping_booking_ids,omitempty"`
}

// ParseEventTime reads an event boundary. Values without a zone are in loc.
func ParseEventTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("time must be RFC3339 or YYYY-MM-DDTHH:MM")
}

func eventFromRow(row dbgen.CourtEvent) (Event, error) {
	start, err := appdb.ParseTime(row.StartDatetime)
	if err != nil {
		return Event{}, err
	}
	end, err := appdb.ParseTime(row.EndDatetime)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:             row.ID,
		CourtID:        row.CourtID,
		Title:          row.Title,
		EventType:      row.EventType,
		StartDatetime:  start,
		EndDatetime:    end,
		BlocksBookings: row.BlocksBookings,
		Color:          row.Color,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

func validateEvent(input EventInput) error {
	if _, ok := eventTypes[input.EventType]; !ok {
		return fmt.Errorf("%w: %q", booking.ErrInvalidEventType, input.EventType)
	}
	if !interval.New(input.Start, input.End).Valid() {
		return fmt.Errorf("%w: event start must be before end", booking.ErrInvalidInterval)
	}
	return nil
}

// CreateEvent declares an event on a court the caller owns. Existing bookings
// are never modified; the overlap policy only decides whether to reject,
// report or ignore the active bookings a blocking event covers.
func (s *Service) CreateEvent(ctx context.Context, ownerID, courtID int64, input EventInput) (EventResult, error) {
	if err := validateEvent(input); err != nil {
		return EventResult{}, err
	}

	var (
		row         dbgen.CourtEvent
		overlapping []int64
	)
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		if _, err := ownedCourt(ctx, tx.Queries, ownerID, courtID); err != nil {
			return err
		}
		var err error
		overlapping, err = s.applyOverlapPolicy(ctx, tx.Queries, courtID, input)
		if err != nil {
			return err
		}
		row, err = tx.Queries.CreateCourtEvent(ctx, dbgen.CreateCourtEventParams{
			CourtID:        courtID,
			Title:          strings.TrimSpace(input.Title),
			EventType:      input.EventType,
			StartDatetime:  appdb.FormatTime(input.Start),
			EndDatetime:    appdb.FormatTime(input.End),
			BlocksBookings: input.BlocksBookings,
			Color:          strings.TrimSpace(input.Color),
		})
		if err != nil {
			return fmt.Errorf("create court event: %w", err)
		}
		return nil
	})
	if err != nil {
		return EventResult{}, err
	}

	event, err := eventFromRow(row)
	if err != nil {
		return EventResult{}, err
	}
	log.Ctx(ctx).Info().
		Int64("event_id", event.ID).
		Int64("court_id", courtID).
		Str("event_type", event.EventType).
		Bool("blocks_bookings", event.BlocksBookings).
		Msg("Court event created")
	return EventResult{Event: event, OverlappingBookingIDs: overlapping}, nil
}

// UpdateEvent replaces an event's fields. The overlap policy is applied to the
// new interval.
func (s *Service) UpdateEvent(ctx context.Context, ownerID, eventID int64, input EventInput) (EventResult, error) {
	if err := validateEvent(input); err != nil {
		return EventResult{}, err
	}

	var (
		row         dbgen.CourtEvent
		overlapping []int64
	)
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		existing, err := ownedEvent(ctx, tx.Queries, ownerID, eventID)
		if err != nil {
			return err
		}
		overlapping, err = s.applyOverlapPolicy(ctx, tx.Queries, existing.CourtID, input)
		if err != nil {
			return err
		}
		row, err = tx.Queries.UpdateCourtEvent(ctx, dbgen.UpdateCourtEventParams{
			Title:          strings.TrimSpace(input.Title),
			EventType:      input.EventType,
			StartDatetime:  appdb.FormatTime(input.Start),
			EndDatetime:    appdb.FormatTime(input.End),
			BlocksBookings: input.BlocksBookings,
			Color:          strings.TrimSpace(input.Color),
			UpdatedAt:      appdb.FormatTime(s.clock.Now()),
			ID:             eventID,
		})
		if err != nil {
			return fmt.Errorf("update court event: %w", err)
		}
		return nil
	})
	if err != nil {
		return EventResult{}, err
	}

	event, err := eventFromRow(row)
	if err != nil {
		return EventResult{}, err
	}
	return EventResult{Event: event, OverlappingBookingIDs: overlapping}, nil
}

func (s *Service) DeleteEvent(ctx context.Context, ownerID, eventID int64) error {
	return s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		if _, err := ownedEvent(ctx, tx.Queries, ownerID, eventID); err != nil {
			return err
		}
		if _, err := tx.Queries.DeleteCourtEvent(ctx, eventID); err != nil {
			return fmt.Errorf("delete court event: %w", err)
		}
		return nil
	})
}

// ListEvents returns events on courtID that overlap [from, to).
func (s *Service) ListEvents(ctx context.Context, courtID int64, from, to time.Time) ([]Event, error) {
	if _, err := s.GetCourt(ctx, courtID); err != nil {
		return nil, err
	}
	rows, err := s.db.Queries.ListCourtEvents(ctx, dbgen.ListCourtEventsParams{
		CourtID: courtID,
		EndsBy:  appdb.FormatTime(to),
		StartAt: appdb.FormatTime(from),
	})
	if err != nil {
		return nil, fmt.Errorf("list court events: %w", err)
	}
	events := make([]Event, 0, len(rows))
	for _, row := range rows {
		event, err := eventFromRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *Service) applyOverlapPolicy(ctx context.Context, q *dbgen.Queries, courtID int64, input EventInput) ([]int64, error) {
	if !input.BlocksBookings || s.overlapPolicy == config.OverlapAllow {
		return nil, nil
	}
	ids, err := s.overlappingBookings(ctx, q, courtID, interval.New(input.Start, input.End))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if s.overlapPolicy == config.OverlapReject {
		return nil, fmt.Errorf("%w: bookings %v", booking.ErrEventOverlapsBookings, ids)
	}
	log.Ctx(ctx).Warn().
		Int64("court_id", courtID).
		Ints64("booking_ids", ids).
		Msg("Blocking event covers existing bookings")
	return ids, nil
}

// overlappingBookings returns ids of active bookings on courtID whose slot
// overlaps iv.
func (s *Service) overlappingBookings(ctx context.Context, q *dbgen.Queries, courtID int64, iv interval.Interval) ([]int64, error) {
	rows, err := q.ListActiveBookingsBetweenDates(ctx, dbgen.ListActiveBookingsBetweenDatesParams{
		CourtID:  courtID,
		FromDate: iv.Start.In(s.loc).Format(interval.DateLayout),
		ToDate:   iv.End.In(s.loc).Format(interval.DateLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings in event range: %w", err)
	}
	var ids []int64
	for _, row := range rows {
		b := booking.FromRow(row)
		slot, err := b.Interval(s.loc)
		if err != nil {
			return nil, err
		}
		if interval.Overlaps(slot, iv) {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

func ownedEvent(ctx context.Context, q *dbgen.Queries, ownerID, eventID int64) (dbgen.CourtEvent, error) {
	event, err := q.GetCourtEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.CourtEvent{}, fmt.Errorf("%w: event %d", booking.ErrNotFound, eventID)
		}
		return dbgen.CourtEvent{}, fmt.Errorf("load court event: %w", err)
	}
	if _, err := ownedCourt(ctx, q, ownerID, event.CourtID); err != nil {
		return dbgen.CourtEvent{}, err
	}
	return event, nil
}
