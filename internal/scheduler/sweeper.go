package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/booking"
	"github.com/codr1/courtbook/internal/db"
	dbgen "github.com/codr1/courtbook/internal/db/generated"
	"github.com/codr1/courtbook/internal/interval"
)

const (
	sweeperJobName    = "booking_sweeper"
	sweeperJobTimeout = time.Minute
)

// Sweeper expires bookings nobody showed up for and completes bookings whose
// play has ended.
type Sweeper struct {
	db                     *db.DB
	loc                    *time.Location
	clock                  booking.Clock
	sink                   booking.EventSink
	grace                  time.Duration
	includeUnpaidConfirmed bool
	completeAfterEnd       bool
}

type SweeperOption func(*Sweeper)

func WithSweeperLocation(loc *time.Location) SweeperOption {
	return func(s *Sweeper) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithSweeperClock(clock booking.Clock) SweeperOption {
	return func(s *Sweeper) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithSweeperEventSink(sink booking.EventSink) SweeperOption {
	return func(s *Sweeper) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithGrace sets how long after its start an unchecked booking survives.
func WithGrace(grace time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if grace >= 0 {
			s.grace = grace
		}
	}
}

// WithUnpaidConfirmed controls whether confirmed but unpaid bookings are
// swept alongside pending ones.
func WithUnpaidConfirmed(include bool) SweeperOption {
	return func(s *Sweeper) { s.includeUnpaidConfirmed = include }
}

// WithCompletion controls whether Sweep also completes finished bookings.
func WithCompletion(enabled bool) SweeperOption {
	return func(s *Sweeper) { s.completeAfterEnd = enabled }
}

func NewSweeper(database *db.DB, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		db:                     database,
		loc:                    time.UTC,
		clock:                  booking.SystemClock(),
		sink:                   booking.NopSink{},
		grace:                  15 * time.Minute,
		includeUnpaidConfirmed: true,
		completeAfterEnd:       true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SweepResult counts the bookings a sweep changed.
type SweepResult struct {
	CancelledCount int `json:"cancelled_count"`
	CompletedCount int `json:"completed_count"`
}

// AutoCancelLateBookings cancels unchecked bookings whose start is more than
// the grace period in the past. The guard is part of the update, so a check-in
// that commits first keeps its booking and a repeated run changes nothing.
func (s *Sweeper) AutoCancelLateBookings(ctx context.Context) (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.grace).In(s.loc)
	stamp := db.FormatTime(now)

	var rows []dbgen.ExpireLateBookingsRow
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		var err error
		rows, err = tx.Queries.ExpireLateBookings(ctx, dbgen.ExpireLateBookingsParams{
			CancelledAt:            sql.NullString{String: stamp, Valid: true},
			UpdatedAt:              stamp,
			IncludeUnpaidConfirmed: s.includeUnpaidConfirmed,
			CutoffDate:             cutoff.Format(interval.DateLayout),
			CutoffTime:             cutoff.Format(interval.ClockLayout),
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("expire late bookings: %w", err)
	}

	logger := log.Ctx(ctx)
	if len(rows) == 0 {
		logger.Debug().Msg("No late bookings to expire")
		return 0, nil
	}
	for _, row := range rows {
		booking.Publish(ctx, s.sink, s.clock, booking.LifecycleEvent{
			Type:      booking.EventExpired,
			BookingID: row.ID,
			CourtID:   row.CourtID,
			PlayerID:  nullPlayerID(row.PlayerID),
			Status:    booking.StatusCancelled,
		})
	}
	logger.Info().Int("count", len(rows)).Msg("Expired late bookings")
	return len(rows), nil
}

// CompleteFinishedBookings marks checked-in confirmed bookings as completed
// once their end has passed.
func (s *Sweeper) CompleteFinishedBookings(ctx context.Context) (int, error) {
	now := s.clock.Now()
	local := now.In(s.loc)

	var rows []dbgen.CompleteFinishedBookingsRow
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		var err error
		rows, err = tx.Queries.CompleteFinishedBookings(ctx, dbgen.CompleteFinishedBookingsParams{
			UpdatedAt:  db.FormatTime(now),
			CutoffDate: local.Format(interval.DateLayout),
			CutoffTime: local.Format(interval.ClockLayout),
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("complete finished bookings: %w", err)
	}

	for _, row := range rows {
		booking.Publish(ctx, s.sink, s.clock, booking.LifecycleEvent{
			Type:           booking.EventCompleted,
			BookingID:      row.ID,
			CourtID:        row.CourtID,
			PlayerID:       nullPlayerID(row.PlayerID),
			Status:         booking.StatusCompleted,
			PreviousStatus: booking.StatusConfirmed,
		})
	}
	if len(rows) > 0 {
		log.Ctx(ctx).Info().Int("count", len(rows)).Msg("Completed finished bookings")
	}
	return len(rows), nil
}

// Sweep runs expiry and, when enabled, completion.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	cancelled, err := s.AutoCancelLateBookings(ctx)
	if err != nil {
		return result, err
	}
	result.CancelledCount = cancelled
	if !s.completeAfterEnd {
		return result, nil
	}
	completed, err := s.CompleteFinishedBookings(ctx)
	if err != nil {
		return result, err
	}
	result.CompletedCount = completed
	return result, nil
}

// RegisterSweeperJob schedules Sweep on the singleton scheduler.
func RegisterSweeperJob(sweeper *Sweeper, every time.Duration) error {
	if sweeper == nil {
		return fmt.Errorf("sweeper job requires a sweeper")
	}
	jobLogger := log.With().
		Str("component", "booking_sweeper_job").
		Str("job_name", sweeperJobName).
		Logger()

	_, err := AddIntervalJob(sweeperJobName, every, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweeperJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		result, err := sweeper.Sweep(ctx)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Booking sweep failed")
			return
		}
		jobLogger.Debug().
			Int("cancelled", result.CancelledCount).
			Int("completed", result.CompletedCount).
			Msg("Booking sweep finished")
	})
	return err
}

func nullPlayerID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
