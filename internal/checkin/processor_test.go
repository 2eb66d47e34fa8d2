package checkin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/codr1/courtbook/internal/booking"
	"github.com/codr1/courtbook/internal/db"
	"github.com/codr1/courtbook/internal/interval"
	"github.com/codr1/courtbook/internal/testutil"
)

const (
	ownerID  int64 = 1
	playerID int64 = 2
)

type fixture struct {
	db        *db.DB
	clock     *testutil.Clock
	engine    *booking.Engine
	processor *Processor
	courtID   int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	court := testutil.SeedCourt(t, database, ownerID, "Court C", 500)
	clock := testutil.NewClock(time.Date(2025, 3, 1, 9, 50, 0, 0, time.UTC))
	return fixture{
		db:        database,
		clock:     clock,
		engine:    booking.NewEngine(database, booking.WithClock(clock)),
		processor: NewProcessor(database, WithClock(clock)),
		courtID:   court.ID,
	}
}

func (f fixture) book(t *testing.T, method booking.PaymentMethod, paid bool) booking.Booking {
	t.Helper()
	id := playerID
	b, err := f.engine.CreateBooking(context.Background(), booking.CreateParams{
		ActorID:       ownerID,
		CourtID:       f.courtID,
		PlayerID:      &id,
		Slot:          interval.Slot{Date: "2025-03-01", StartTime: "10:00", EndTime: "11:00"},
		PaymentMethod: method,
		Paid:          paid,
		Source:        booking.SourceOwner,
		Status:        booking.StatusConfirmed,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func int64Ptr(v int64) *int64 { return &v }

func TestVerifyReturnsDetails(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, booking.MethodCash, false)

	v, err := f.processor.Verify(context.Background(), b.ID, ownerID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if v.CourtName != "Court C" || v.AmountDue != 500 || !v.RequiresCashInput {
		t.Fatalf("verification = %+v", v)
	}

	again, err := f.processor.Verify(context.Background(), b.ID, ownerID)
	if err != nil {
		t.Fatalf("verify is repeatable: %v", err)
	}
	if again.IsCheckedIn {
		t.Fatalf("verify must not mutate")
	}
}

func TestVerifyPaidBookingNeedsNoCash(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, booking.MethodCard, true)

	v, err := f.processor.Verify(context.Background(), b.ID, ownerID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if v.AmountDue != 0 || v.RequiresCashInput {
		t.Fatalf("verification = %+v", v)
	}
}

func TestVerifyFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, booking.MethodCash, false)

	if _, err := f.processor.Verify(ctx, 9999, ownerID); !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("missing booking: got %v", err)
	}
	if _, err := f.processor.Verify(ctx, b.ID, playerID); !errors.Is(err, booking.ErrNotYourCourt) {
		t.Fatalf("non-owner: got %v", err)
	}

	// Same day after the start time is still verifiable.
	f.clock.Set(time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC))
	if _, err := f.processor.Verify(ctx, b.ID, ownerID); err != nil {
		t.Fatalf("same-day verify: %v", err)
	}

	f.clock.Set(time.Date(2025, 3, 2, 0, 0, 1, 0, time.UTC))
	if _, err := f.processor.Verify(ctx, b.ID, ownerID); !errors.Is(err, booking.ErrBookingExpired) {
		t.Fatalf("past date: got %v", err)
	}
}

func TestVerifyExpiryUsesDeploymentTimezone(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, booking.MethodCash, false)
	loc := time.FixedZone("UTC+8", 8*60*60)
	processor := NewProcessor(f.db, WithClock(f.clock), WithLocation(loc))

	// 2025-03-01T17:00Z is already 2025-03-02 in UTC+8.
	f.clock.Set(time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC))
	if _, err := processor.Verify(context.Background(), b.ID, ownerID); !errors.Is(err, booking.ErrBookingExpired) {
		t.Fatalf("expected ErrBookingExpired, got %v", err)
	}
}

func TestVerifyCancelledAndCheckedIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cancelled := f.book(t, booking.MethodCash, false)
	if _, err := f.engine.UpdateBookingStatus(ctx, booking.StatusChange{BookingID: cancelled.ID, Status: booking.StatusCancelled, ActorID: ownerID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.processor.Verify(ctx, cancelled.ID, ownerID); !errors.Is(err, booking.ErrBookingCancelled) {
		t.Fatalf("cancelled: got %v", err)
	}

	paid := f.book(t, booking.MethodPrepaid, true)
	if _, err := f.processor.Settle(ctx, SettleRequest{BookingID: paid.ID, CallerID: ownerID}); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := f.processor.Verify(ctx, paid.ID, ownerID); !errors.Is(err, booking.ErrAlreadyCheckedIn) {
		t.Fatalf("checked in: got %v", err)
	}
}

func TestVerifyToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, booking.MethodCash, false)

	signer := NewSigner("secret")
	processor := NewProcessor(f.db, WithClock(f.clock), WithSigner(signer))
	raw, err := processor.IssueToken(ctx, b.ID, playerID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	v, err := processor.VerifyToken(ctx, raw, ownerID)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if v.ID != b.ID {
		t.Fatalf("verified booking %d, want %d", v.ID, b.ID)
	}

	if _, err := processor.VerifyToken(ctx, `{"bookingId":1}`, ownerID); !errors.Is(err, booking.ErrInvalidToken) {
		t.Fatalf("unsigned token: got %v", err)
	}
	if _, err := processor.IssueToken(ctx, b.ID, 777); !errors.Is(err, booking.ErrNotYourCourt) {
		t.Fatalf("stranger token: got %v", err)
	}
}

func TestSettleCash(t *testing.T) {
	tests := []struct {
		name       string
		tendered   *int64
		wantChange int64
		wantErr    error
	}{
		{name: "exact", tendered: int64Ptr(500), wantChange: 0},
		{name: "change due", tendered: int64Ptr(600), wantChange: 100},
		{name: "short", tendered: int64Ptr(400), wantErr: booking.ErrInsufficientPayment},
		{name: "missing tender", tendered: nil, wantErr: booking.ErrInsufficientPayment},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			b := f.book(t, booking.MethodCash, false)

			settlement, err := f.processor.Settle(ctx, SettleRequest{BookingID: b.ID, CashTendered: tc.tendered, CallerID: ownerID})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				v, verr := f.processor.Verify(ctx, b.ID, ownerID)
				if verr != nil || v.IsCheckedIn {
					t.Fatalf("failed settle must not check in: %+v %v", v, verr)
				}
				return
			}
			if err != nil {
				t.Fatalf("settle: %v", err)
			}
			if settlement.ChangeAmount == nil || *settlement.ChangeAmount != tc.wantChange {
				t.Fatalf("change = %v, want %d", settlement.ChangeAmount, tc.wantChange)
			}

			row, err := f.db.Queries.GetBooking(ctx, b.ID)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if !row.IsCheckedIn || row.PaymentStatus != "paid" || row.Status != "confirmed" {
				t.Fatalf("row = %+v", row)
			}
			if row.AmountTendered.Int64 != *tc.tendered || row.ChangeAmount.Int64 != tc.wantChange {
				t.Fatalf("tender/change = %d/%d", row.AmountTendered.Int64, row.ChangeAmount.Int64)
			}
		})
	}
}

func TestSettleNonCashConfirmsPendingBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := playerID
	b, err := f.engine.CreateBooking(ctx, booking.CreateParams{
		ActorID:       playerID,
		CourtID:       f.courtID,
		PlayerID:      &id,
		Slot:          interval.Slot{Date: "2025-03-01", StartTime: "12:00", EndTime: "13:00"},
		PaymentMethod: booking.MethodOnline,
		Source:        booking.SourcePlayer,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if b.Status != booking.StatusPending {
		t.Fatalf("status = %s", b.Status)
	}

	settlement, err := f.processor.Settle(ctx, SettleRequest{BookingID: b.ID, CashTendered: int64Ptr(1), CallerID: ownerID})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settlement.ChangeAmount != nil {
		t.Fatalf("non-cash settle should not compute change")
	}
	row, err := f.db.Queries.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !row.IsCheckedIn || row.Status != "confirmed" || row.PaymentStatus != "unpaid" {
		t.Fatalf("row = %+v", row)
	}
}

func TestSettleRejectsNonOwnerAndCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, booking.MethodCash, false)

	if _, err := f.processor.Settle(ctx, SettleRequest{BookingID: b.ID, CashTendered: int64Ptr(500), CallerID: playerID}); !errors.Is(err, booking.ErrNotYourCourt) {
		t.Fatalf("non-owner: got %v", err)
	}
	if _, err := f.engine.UpdateBookingStatus(ctx, booking.StatusChange{BookingID: b.ID, Status: booking.StatusCancelled, ActorID: ownerID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.processor.Settle(ctx, SettleRequest{BookingID: b.ID, CashTendered: int64Ptr(500), CallerID: ownerID}); !errors.Is(err, booking.ErrBookingCancelled) {
		t.Fatalf("cancelled: got %v", err)
	}
}

func TestSettleRejectsPastBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paid := f.book(t, booking.MethodCard, true)

	f.clock.Set(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))
	if _, err := f.processor.Settle(ctx, SettleRequest{BookingID: paid.ID, CallerID: ownerID}); !errors.Is(err, booking.ErrBookingExpired) {
		t.Fatalf("settle past booking: got %v", err)
	}
	row, err := f.db.Queries.GetBooking(ctx, paid.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if row.CheckedInAt.Valid {
		t.Fatalf("past booking was checked in at %s", row.CheckedInAt.String)
	}
}

func TestConcurrentSettleAtMostOnce(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, booking.MethodCash, false)

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		others    []error
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(tender int64) {
			defer wg.Done()
			<-start
			_, err := f.processor.Settle(context.Background(), SettleRequest{BookingID: b.ID, CashTendered: &tender, CallerID: ownerID})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			others = append(others, err)
		}(int64(500 + i*100))
	}
	close(start)
	wg.Wait()

	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}
	for _, err := range others {
		if !errors.Is(err, booking.ErrAlreadyCheckedIn) {
			t.Fatalf("loser error = %v, want ErrAlreadyCheckedIn", err)
		}
	}
}
