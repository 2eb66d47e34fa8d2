// Package checkin verifies scanned bookings and settles them on site.
//
// Verification is read-only and may be repeated. Settlement is the only
// mutating step and runs as a single guarded update, so a double submit or a
// racing expiry sweep results in at most one check-in.
package checkin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/booking"
	appdb "github.com/codr1/courtbook/internal/db"
	dbgen "github.com/codr1/courtbook/internal/db/generated"
	"github.com/codr1/courtbook/internal/interval"
)

type Processor struct {
	db     *appdb.DB
	loc    *time.Location
	clock  booking.Clock
	signer *Signer
	sink   booking.EventSink
}

type Option func(*Processor)

func WithLocation(loc *time.Location) Option {
	return func(p *Processor) {
		if loc != nil {
			p.loc = loc
		}
	}
}

func WithClock(clock booking.Clock) Option {
	return func(p *Processor) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func WithSigner(signer *Signer) Option {
	return func(p *Processor) {
		if signer != nil {
			p.signer = signer
		}
	}
}

func WithEventSink(sink booking.EventSink) Option {
	return func(p *Processor) {
		if sink != nil {
			p.sink = sink
		}
	}
}

func NewProcessor(database *appdb.DB, opts ...Option) *Processor {
	p := &Processor{
		db:     database,
		loc:    time.UTC,
		clock:  booking.SystemClock(),
		signer: &Signer{},
		sink:   booking.NopSink{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Verification is what the scanner displays before settlement.
type Verification struct {
	booking.Details
	AmountDue         int64 `json:"amount_due"`
	RequiresCashInput bool  `json:"requires_cash_input"`
}

// Verify checks that callerID may check in bookingID right now. It never
// mutates state.
func (p *Processor) Verify(ctx context.Context, bookingID, callerID int64) (Verification, error) {
	details, err := loadDetails(ctx, p.db.Queries, bookingID)
	if err != nil {
		return Verification{}, err
	}
	if err := p.checkable(details, callerID, p.clock.Now()); err != nil {
		return Verification{}, err
	}

	v := Verification{Details: details}
	if details.PaymentStatus != booking.PaymentPaid {
		v.AmountDue = details.TotalPrice
		v.RequiresCashInput = details.PaymentMethod == booking.MethodCash
	}
	return v, nil
}

// checkable applies the rules shared by Verify and Settle to a live row:
// the caller owns the court, the booking date has not passed in the
// deployment timezone, and the booking is neither checked in nor cancelled.
func (p *Processor) checkable(details booking.Details, callerID int64, now time.Time) error {
	if details.CourtOwnerID != callerID {
		return fmt.Errorf("%w: booking %d", booking.ErrNotYourCourt, details.ID)
	}
	today := now.In(p.loc).Format(interval.DateLayout)
	if details.Date < today {
		return fmt.Errorf("%w: booking %d was on %s", booking.ErrBookingExpired, details.ID, details.Date)
	}
	if details.IsCheckedIn {
		return fmt.Errorf("%w: booking %d", booking.ErrAlreadyCheckedIn, details.ID)
	}
	if details.Status == booking.StatusCancelled {
		return fmt.Errorf("%w: booking %d", booking.ErrBookingCancelled, details.ID)
	}
	return nil
}

// VerifyToken decodes a scanned payload and verifies the booking it names.
func (p *Processor) VerifyToken(ctx context.Context, raw string, callerID int64) (Verification, error) {
	token, err := p.signer.Decode(raw)
	if err != nil {
		return Verification{}, err
	}
	return p.Verify(ctx, token.BookingID, callerID)
}

// IssueToken returns the QR payload for a booking visible to callerID.
func (p *Processor) IssueToken(ctx context.Context, bookingID, callerID int64) (string, error) {
	details, err := loadDetails(ctx, p.db.Queries, bookingID)
	if err != nil {
		return "", err
	}
	if details.CourtOwnerID != callerID && (details.PlayerID == nil || *details.PlayerID != callerID) {
		return "", fmt.Errorf("%w: booking %d", booking.ErrNotYourCourt, bookingID)
	}
	if details.Status == booking.StatusCancelled {
		return "", fmt.Errorf("%w: booking %d", booking.ErrBookingCancelled, bookingID)
	}
	return p.EncodeToken(details.Booking, details.CourtName)
}

// EncodeToken builds the payload for a booking that was just committed.
func (p *Processor) EncodeToken(b booking.Booking, courtName string) (string, error) {
	return p.signer.Encode(b, courtName, p.clock.Now())
}

type SettleRequest struct {
	BookingID    int64
	CashTendered *int64
	CallerID     int64
}

type Settlement struct {
	BookingID      int64                 `json:"booking_id"`
	PaymentStatus  booking.PaymentStatus `json:"payment_status"`
	AmountTendered *int64                `json:"amount_tendered,omitempty"`
	ChangeAmount   *int64                `json:"change_amount,omitempty"`
	CheckedInAt    string                `json:"checked_in_at"`
}

// Settle checks the booking in, collecting cash when it is due. It succeeds at
// most once per booking; later calls observe ErrAlreadyCheckedIn.
func (p *Processor) Settle(ctx context.Context, req SettleRequest) (Settlement, error) {
	logger := log.Ctx(ctx)

	var (
		settlement Settlement
		details    booking.Details
	)
	err := p.db.RunInTx(ctx, func(tx *appdb.DB) error {
		q := tx.Queries
		var err error
		details, err = loadDetails(ctx, q, req.BookingID)
		if err != nil {
			return err
		}
		now := p.clock.Now()
		if err := p.checkable(details, req.CallerID, now); err != nil {
			return err
		}
		checkedInAt := appdb.NullTime(now)
		settlement = Settlement{
			BookingID:     details.ID,
			PaymentStatus: details.PaymentStatus,
			CheckedInAt:   checkedInAt.String,
		}

		var affected int64
		if details.PaymentStatus == booking.PaymentPaid || details.PaymentMethod != booking.MethodCash {
			affected, err = q.CheckInBooking(ctx, dbgen.CheckInBookingParams{
				CheckedInAt: checkedInAt,
				UpdatedAt:   checkedInAt.String,
				ID:          details.ID,
			})
			if err != nil {
				return fmt.Errorf("check in booking: %w", err)
			}
		} else {
			if req.CashTendered == nil {
				return fmt.Errorf("%w: cash tender required, %d due", booking.ErrInsufficientPayment, details.TotalPrice)
			}
			tendered := *req.CashTendered
			if tendered < details.TotalPrice {
				return fmt.Errorf("%w: tendered %d, %d due", booking.ErrInsufficientPayment, tendered, details.TotalPrice)
			}
			change := tendered - details.TotalPrice
			affected, err = q.SettleCashBooking(ctx, dbgen.SettleCashBookingParams{
				CheckedInAt:    checkedInAt,
				AmountTendered: sql.NullInt64{Int64: tendered, Valid: true},
				ChangeAmount:   sql.NullInt64{Int64: change, Valid: true},
				UpdatedAt:      checkedInAt.String,
				ID:             details.ID,
			})
			if err != nil {
				return fmt.Errorf("settle cash booking: %w", err)
			}
			settlement.PaymentStatus = booking.PaymentPaid
			settlement.AmountTendered = &tendered
			settlement.ChangeAmount = &change
		}

		if affected == 0 {
			logger.Debug().Int64("booking_id", details.ID).Msg("Settlement guard matched no rows")
			return p.explainLostSettle(ctx, q, details.ID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, booking.ErrAlreadyCheckedIn) {
			logger.Info().Int64("booking_id", req.BookingID).Msg("Booking already checked in")
		}
		return Settlement{}, err
	}

	logger.Info().
		Int64("booking_id", settlement.BookingID).
		Str("payment_status", string(settlement.PaymentStatus)).
		Int64("caller_id", req.CallerID).
		Msg("Booking checked in")

	booking.Publish(ctx, p.sink, p.clock, booking.LifecycleEvent{
		Type:         booking.EventCheckedIn,
		BookingID:    details.ID,
		CourtID:      details.CourtID,
		PlayerID:     details.PlayerID,
		Status:       booking.StatusConfirmed,
		ChangeAmount: settlement.ChangeAmount,
	})
	return settlement, nil
}

// explainLostSettle re-reads a booking whose guarded update matched no rows
// and reports why.
func (p *Processor) explainLostSettle(ctx context.Context, q *dbgen.Queries, bookingID int64) error {
	current, err := loadDetails(ctx, q, bookingID)
	if err != nil {
		return err
	}
	switch {
	case current.IsCheckedIn:
		return fmt.Errorf("%w: booking %d", booking.ErrAlreadyCheckedIn, bookingID)
	case current.Status == booking.StatusCancelled:
		return fmt.Errorf("%w: booking %d", booking.ErrBookingCancelled, bookingID)
	default:
		return fmt.Errorf("settle booking %d: state changed to %s/%s", bookingID, current.Status, current.PaymentStatus)
	}
}

func loadDetails(ctx context.Context, q *dbgen.Queries, bookingID int64) (booking.Details, error) {
	row, err := q.GetBookingDetails(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Details{}, fmt.Errorf("%w: booking %d", booking.ErrNotFound, bookingID)
		}
		return booking.Details{}, fmt.Errorf("load booking: %w", err)
	}
	return booking.DetailsFromRow(row), nil
}
