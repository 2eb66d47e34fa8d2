package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/blocking"
	appdb "github.com/codr1/courtbook/internal/db"
	dbgen "github.com/codr1/courtbook/internal/db/generated"
	"github.com/codr1/courtbook/internal/interval"
)

// maxStatusAttempts bounds re-reads when a guarded status update loses a race.
const maxStatusAttempts = 3

type Engine struct {
	db     *appdb.DB
	loc    *time.Location
	policy ConfirmationPolicy
	clock  Clock
	sink   EventSink
}

type Option func(*Engine)

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithConfirmationPolicy(policy ConfirmationPolicy) Option {
	return func(e *Engine) { e.policy = policy }
}

func WithClock(clock Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func WithEventSink(sink EventSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

func NewEngine(database *appdb.DB, opts ...Option) *Engine {
	e := &Engine{
		db:     database,
		loc:    time.UTC,
		policy: DefaultConfirmationPolicy(),
		clock:  SystemClock(),
		sink:   NopSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Location() *time.Location { return e.loc }

// CreateParams describes a booking request. ActorID is the verified caller.
// Owner-entered bookings require the actor to own the court; player bookings
// are made on behalf of PlayerID.
type CreateParams struct {
	ActorID       int64
	CourtID       int64
	PlayerID      *int64
	Player        *PlayerProfile
	CustomerName  string
	Slot          interval.Slot
	Price         *int64
	PaymentMethod PaymentMethod
	Paid          bool
	Source        Source
	// Status overrides the confirmation policy when set.
	Status Status
}

// CreateBooking validates and commits a booking. The blocking-event read, the
// overlap read and the insert share one immediate transaction, so concurrent
// requests for overlapping slots cannot both commit.
func (e *Engine) CreateBooking(ctx context.Context, params CreateParams) (Booking, error) {
	logger := log.Ctx(ctx)

	slot, iv, err := e.resolveSlot(params.Slot)
	if err != nil {
		return Booking{}, err
	}
	switch params.Source {
	case SourceOwner:
	case SourcePlayer:
		if params.PlayerID == nil && params.Player == nil {
			return Booking{}, fmt.Errorf("%w: player bookings require a player", ErrInvalidRequest)
		}
		if params.Paid || params.Price != nil || params.Status != "" {
			return Booking{}, fmt.Errorf("%w: only the court owner may set price, payment or status", ErrNotYourCourt)
		}
	default:
		return Booking{}, fmt.Errorf("%w: unsupported booking source %q", ErrInvalidRequest, params.Source)
	}
	if params.Price != nil && *params.Price < 0 {
		return Booking{}, fmt.Errorf("%w: price must not be negative", ErrInvalidRequest)
	}
	status := params.Status
	if status == "" {
		status = e.policy.InitialStatus(params.Source)
	}
	if status != StatusPending && status != StatusConfirmed {
		return Booking{}, fmt.Errorf("%w: new bookings must be pending or confirmed, got %q", ErrInvalidRequest, status)
	}
	method := params.PaymentMethod
	if method == "" {
		method = MethodCash
	}

	var created dbgen.Booking
	attempt := func() error {
		return e.db.RunInTx(ctx, func(tx *appdb.DB) error {
			row, err := e.insertBooking(ctx, tx.Queries, params, slot, iv, status, method)
			if err != nil {
				return err
			}
			created = row
			return nil
		})
	}

	err = attempt()
	if appdb.IsBusy(err) {
		logger.Warn().Err(err).Int64("court_id", params.CourtID).Msg("Booking transaction contended, retrying once")
		err = attempt()
		if appdb.IsBusy(err) {
			return Booking{}, fmt.Errorf("%w: court %d %s %s-%s", ErrSlotAlreadyBooked, params.CourtID, slot.Date, slot.StartTime, slot.EndTime)
		}
	}
	if appdb.IsOverlapViolation(err) {
		return Booking{}, fmt.Errorf("%w: court %d %s %s-%s", ErrSlotAlreadyBooked, params.CourtID, slot.Date, slot.StartTime, slot.EndTime)
	}
	if err != nil {
		return Booking{}, err
	}

	booking := FromRow(created)
	logger.Info().
		Int64("booking_id", booking.ID).
		Int64("court_id", booking.CourtID).
		Str("date", booking.Date).
		Str("start_time", booking.StartTime).
		Str("end_time", booking.EndTime).
		Str("status", string(booking.Status)).
		Str("source", string(booking.Source)).
		Msg("Booking created")

	e.publish(ctx, LifecycleEvent{
		Type:      EventCreated,
		BookingID: booking.ID,
		CourtID:   booking.CourtID,
		PlayerID:  booking.PlayerID,
		Status:    booking.Status,
	})
	return booking, nil
}

func (e *Engine) insertBooking(
	ctx context.Context,
	q *dbgen.Queries,
	params CreateParams,
	slot interval.Slot,
	iv interval.Interval,
	status Status,
	method PaymentMethod,
) (dbgen.Booking, error) {
	court, err := q.GetCourt(ctx, params.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Booking{}, fmt.Errorf("%w: court %d", ErrNotFound, params.CourtID)
		}
		return dbgen.Booking{}, fmt.Errorf("load court: %w", err)
	}
	if params.Source == SourceOwner && court.OwnerID != params.ActorID {
		return dbgen.Booking{}, fmt.Errorf("%w: court %d", ErrNotYourCourt, court.ID)
	}

	events, err := LoadBlockingEvents(ctx, q, court.ID, iv)
	if err != nil {
		return dbgen.Booking{}, err
	}
	if blockers := blocking.Blockers(events, iv); len(blockers) > 0 {
		return dbgen.Booking{}, fmt.Errorf("%w: %s event %d", ErrSlotBlockedByEvent, blockers[0].Type, blockers[0].ID)
	}

	overlapping, err := q.ListOverlappingBookings(ctx, dbgen.ListOverlappingBookingsParams{
		CourtID:   court.ID,
		Date:      slot.Date,
		EndTime:   slot.EndTime,
		StartTime: slot.StartTime,
	})
	if err != nil {
		return dbgen.Booking{}, fmt.Errorf("load overlapping bookings: %w", err)
	}
	if len(overlapping) > 0 {
		return dbgen.Booking{}, fmt.Errorf("%w: conflicts with booking %d", ErrSlotAlreadyBooked, overlapping[0].ID)
	}

	price := ProratedPrice(court.HourlyPrice, iv.Duration())
	if params.Price != nil {
		price = *params.Price
	}

	playerID := params.PlayerID
	if params.Player != nil {
		id := params.Player.ID
		playerID = &id
		if err := q.UpsertPlayer(ctx, dbgen.UpsertPlayerParams{
			ID:          params.Player.ID,
			DisplayName: strings.TrimSpace(params.Player.DisplayName),
			Email:       nullString(strings.TrimSpace(params.Player.Email)),
			Phone:       nullString(strings.TrimSpace(params.Player.Phone)),
		}); err != nil {
			return dbgen.Booking{}, fmt.Errorf("upsert player: %w", err)
		}
	} else if playerID != nil {
		if err := q.EnsurePlayer(ctx, *playerID); err != nil {
			return dbgen.Booking{}, fmt.Errorf("ensure player: %w", err)
		}
	}

	paymentStatus := PaymentUnpaid
	if params.Paid {
		paymentStatus = PaymentPaid
	}

	row, err := q.CreateBooking(ctx, dbgen.CreateBookingParams{
		CourtID:       court.ID,
		PlayerID:      nullInt64(playerID),
		CustomerName:  nullString(strings.TrimSpace(params.CustomerName)),
		Date:          slot.Date,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		TotalPrice:    price,
		Status:        string(status),
		PaymentStatus: string(paymentStatus),
		PaymentMethod: string(method),
		Source:        string(params.Source),
	})
	if err != nil {
		return dbgen.Booking{}, err
	}
	return row, nil
}

func (e *Engine) resolveSlot(slot interval.Slot) (interval.Slot, interval.Interval, error) {
	normalized, err := interval.NormalizeSlot(slot)
	if err != nil {
		return interval.Slot{}, interval.Interval{}, fmt.Errorf("%w: %v", ErrInvalidInterval, err)
	}
	iv, err := interval.FromSlot(normalized, e.loc)
	if err != nil {
		return interval.Slot{}, interval.Interval{}, fmt.Errorf("%w: %v", ErrInvalidInterval, err)
	}
	if !iv.Valid() {
		return interval.Slot{}, interval.Interval{}, fmt.Errorf("%w: start %s must be before end %s", ErrInvalidInterval, normalized.StartTime, normalized.EndTime)
	}
	return normalized, iv, nil
}

// LoadBlockingEvents returns the blocking events on courtID that overlap iv,
// as a snapshot for the blocking policy.
func LoadBlockingEvents(ctx context.Context, q *dbgen.Queries, courtID int64, iv interval.Interval) ([]blocking.Event, error) {
	rows, err := q.ListBlockingCourtEventsInRange(ctx, dbgen.ListBlockingCourtEventsInRangeParams{
		CourtID: courtID,
		EndsBy:  appdb.FormatTime(iv.End),
		StartAt: appdb.FormatTime(iv.Start),
	})
	if err != nil {
		return nil, fmt.Errorf("load blocking events: %w", err)
	}
	events := make([]blocking.Event, 0, len(rows))
	for _, row := range rows {
		event, err := BlockingEventFromRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func BlockingEventFromRow(row dbgen.CourtEvent) (blocking.Event, error) {
	start, err := appdb.ParseTime(row.StartDatetime)
	if err != nil {
		return blocking.Event{}, err
	}
	end, err := appdb.ParseTime(row.EndDatetime)
	if err != nil {
		return blocking.Event{}, err
	}
	return blocking.Event{
		ID:             row.ID,
		CourtID:        row.CourtID,
		Type:           row.EventType,
		BlocksBookings: row.BlocksBookings,
		Interval:       interval.New(start, end),
	}, nil
}

// StatusChange is a requested status transition by ActorID.
type StatusChange struct {
	BookingID int64
	Status    Status
	Reason    string
	ActorID   int64
}

// UpdateBookingStatus applies an allowed transition. The court owner may make
// any allowed transition; the booking's player may only cancel. Rows are never
// deleted.
func (e *Engine) UpdateBookingStatus(ctx context.Context, change StatusChange) (Booking, error) {
	logger := log.Ctx(ctx)

	var (
		updated  dbgen.Booking
		previous Status
	)
	err := e.db.RunInTx(ctx, func(tx *appdb.DB) error {
		q := tx.Queries
		for attempt := 0; attempt < maxStatusAttempts; attempt++ {
			row, err := q.GetBookingDetails(ctx, change.BookingID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: booking %d", ErrNotFound, change.BookingID)
				}
				return fmt.Errorf("load booking: %w", err)
			}
			details := DetailsFromRow(row)
			if err := authorizeStatusChange(details, change); err != nil {
				return err
			}
			if details.IsCheckedIn {
				return fmt.Errorf("%w: booking %d is checked in", ErrInvalidStatusTransition, details.ID)
			}
			if !Transition(details.Status, change.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, details.Status, change.Status)
			}

			now := appdb.FormatTime(e.clock.Now())
			params := dbgen.UpdateBookingStatusParams{
				Status:        string(change.Status),
				UpdatedAt:     now,
				ID:            details.ID,
				CurrentStatus: string(details.Status),
			}
			if change.Status == StatusCancelled {
				params.CancelledAt = nullString(now)
				params.CancellationReason = nullString(cancellationReason(details, change))
			}
			affected, err := q.UpdateBookingStatus(ctx, params)
			if err != nil {
				if appdb.IsResurrectViolation(err) {
					return fmt.Errorf("%w: booking %d is cancelled", ErrInvalidStatusTransition, details.ID)
				}
				return fmt.Errorf("update booking status: %w", err)
			}
			if affected == 0 {
				logger.Debug().Int64("booking_id", details.ID).Msg("Booking status changed concurrently, re-reading")
				continue
			}

			updated, err = q.GetBooking(ctx, details.ID)
			if err != nil {
				return fmt.Errorf("reload booking: %w", err)
			}
			previous = details.Status
			return nil
		}
		return fmt.Errorf("%w: booking %d kept changing", ErrInvalidStatusTransition, change.BookingID)
	})
	if err != nil {
		return Booking{}, err
	}

	booking := FromRow(updated)
	logger.Info().
		Int64("booking_id", booking.ID).
		Str("from", string(previous)).
		Str("to", string(booking.Status)).
		Int64("actor_id", change.ActorID).
		Msg("Booking status updated")

	e.publish(ctx, LifecycleEvent{
		Type:           EventStatusChanged,
		BookingID:      booking.ID,
		CourtID:        booking.CourtID,
		PlayerID:       booking.PlayerID,
		Status:         booking.Status,
		PreviousStatus: previous,
	})
	return booking, nil
}

func authorizeStatusChange(details Details, change StatusChange) error {
	if details.CourtOwnerID == change.ActorID {
		return nil
	}
	if details.PlayerID != nil && *details.PlayerID == change.ActorID && change.Status == StatusCancelled {
		return nil
	}
	return fmt.Errorf("%w: booking %d", ErrNotYourCourt, details.ID)
}

func cancellationReason(details Details, change StatusChange) string {
	if reason := strings.TrimSpace(change.Reason); reason != "" {
		return reason
	}
	if details.CourtOwnerID == change.ActorID {
		return ReasonOwnerCancelled
	}
	return ReasonPlayerCancel
}

// GetBooking returns booking details visible to the court owner or the
// booking's player.
func (e *Engine) GetBooking(ctx context.Context, bookingID, actorID int64) (Details, error) {
	row, err := e.db.Queries.GetBookingDetails(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Details{}, fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
		}
		return Details{}, fmt.Errorf("load booking: %w", err)
	}
	details := DetailsFromRow(row)
	if details.CourtOwnerID != actorID && (details.PlayerID == nil || *details.PlayerID != actorID) {
		return Details{}, fmt.Errorf("%w: booking %d", ErrNotYourCourt, bookingID)
	}
	return details, nil
}

// ListDay returns every booking on courtID for date, cancelled ones included.
func (e *Engine) ListDay(ctx context.Context, courtID int64, date string) ([]Booking, error) {
	rows, err := e.db.Queries.ListCourtBookingsByDate(ctx, dbgen.ListCourtBookingsByDateParams{
		CourtID: courtID,
		Date:    date,
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	bookings := make([]Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, FromRow(row))
	}
	return bookings, nil
}

func (e *Engine) publish(ctx context.Context, event LifecycleEvent) {
	Publish(ctx, e.sink, e.clock, event)
}

// Publish stamps and delivers event, logging delivery failures.
func Publish(ctx context.Context, sink EventSink, clock Clock, event LifecycleEvent) {
	if sink == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = clock.Now().UTC()
	}
	if err := sink.Publish(ctx, event); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("event_type", event.Type).
			Int64("booking_id", event.BookingID).
			Msg("Failed to publish booking event")
	}
}
