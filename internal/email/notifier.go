package email

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/booking"
	dbgen "github.com/codr1/courtbook/internal/db/generated"
)

const defaultSendTimeout = 5 * time.Second

// Sender delivers a single message. SESClient is the production
// implementation.
type Sender interface {
	Send(ctx context.Context, to string, msg Message) error
}

// TokenEncoder builds the check-in payload embedded in confirmation mail.
type TokenEncoder interface {
	Encode(b booking.Booking, courtName string, now time.Time) (string, error)
}

// Notifier mails players about their bookings. It is a booking.EventSink:
// created bookings get a confirmation carrying the check-in code, cancelled
// and expired bookings get a cancellation notice. Delivery is asynchronous.
type Notifier struct {
	q       *dbgen.Queries
	sender  Sender
	tokens  TokenEncoder
	clock   booking.Clock
	timeout time.Duration

	inflight sync.WaitGroup
}

var _ booking.EventSink = (*Notifier)(nil)

func NewNotifier(q *dbgen.Queries, sender Sender, tokens TokenEncoder) *Notifier {
	return &Notifier{
		q:       q,
		sender:  sender,
		tokens:  tokens,
		clock:   booking.SystemClock(),
		timeout: defaultSendTimeout,
	}
}

func (n *Notifier) Publish(ctx context.Context, event booking.LifecycleEvent) error {
	if n == nil || n.sender == nil || n.q == nil {
		return nil
	}
	switch {
	case event.Type == booking.EventCreated:
	case event.Type == booking.EventExpired:
	case event.Type == booking.EventStatusChanged && event.Status == booking.StatusCancelled:
	default:
		return nil
	}
	if event.PlayerID == nil {
		return nil
	}

	row, err := n.q.GetBookingDetails(ctx, event.BookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load booking %d for email: %w", event.BookingID, err)
	}
	details := booking.DetailsFromRow(row)
	recipient := strings.TrimSpace(details.PlayerEmail)
	if recipient == "" {
		return nil
	}

	var message Message
	if event.Type == booking.EventCreated {
		message, err = n.confirmation(details)
		if err != nil {
			return err
		}
	} else {
		message = BuildBookingCancellation(CancellationDetails{
			CourtName: details.CourtName,
			Date:      details.Date,
			TimeRange: timeRange(details.Booking),
			Reason:    details.CancellationReason,
		})
	}

	logger := log.Ctx(ctx).With().
		Int64("booking_id", details.ID).
		Str("event", event.Type).
		Logger()
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		// The request that triggered the event may finish before delivery.
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, recipient, message); err != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send booking email")
			return
		}
		logger.Debug().Msg("Booking email sent")
	}()
	return nil
}

// Drain blocks until every send started by Publish has finished or ctx is
// done, whichever comes first.
func (n *Notifier) Drain(ctx context.Context) error {
	if n == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		n.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) confirmation(details booking.Details) (Message, error) {
	var token string
	if n.tokens != nil {
		encoded, err := n.tokens.Encode(details.Booking, details.CourtName, n.clock.Now())
		if err != nil {
			return Message{}, fmt.Errorf("encode check-in token: %w", err)
		}
		token = encoded
	}
	due := details.TotalPrice
	if details.PaymentStatus == booking.PaymentPaid {
		due = 0
	}
	return BuildBookingConfirmation(BookingDetails{
		CourtName:    details.CourtName,
		Location:     details.CourtLocation,
		Date:         details.Date,
		TimeRange:    timeRange(details.Booking),
		Status:       string(details.Status),
		AmountDue:    due,
		PayAtCourt:   details.PaymentMethod == booking.MethodCash,
		CheckInToken: token,
	}), nil
}

func timeRange(b booking.Booking) string {
	return fmt.Sprintf("%s - %s", b.StartTime, b.EndTime)
}
