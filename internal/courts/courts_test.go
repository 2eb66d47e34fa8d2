package courts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codr1/courtbook/internal/booking"
	"github.com/codr1/courtbook/internal/config"
	"github.com/codr1/courtbook/internal/interval"
	"github.com/codr1/courtbook/internal/testutil"
)

const (
	ownerID  int64 = 5
	playerID int64 = 6
)

var day = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func bookSlot(t *testing.T, engine *booking.Engine, courtID int64, start, end string) booking.Booking {
	t.Helper()
	id := playerID
	b, err := engine.CreateBooking(context.Background(), booking.CreateParams{
		ActorID:  playerID,
		CourtID:  courtID,
		PlayerID: &id,
		Slot:     interval.Slot{Date: "2025-03-01", StartTime: start, EndTime: end},
		Source:   booking.SourcePlayer,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func maintenance(start, end time.Duration) EventInput {
	return EventInput{
		Title:          "Resurfacing",
		EventType:      "maintenance",
		Start:          day.Add(start),
		End:            day.Add(end),
		BlocksBookings: true,
		Color:          "#ef4444",
	}
}

func TestCourtCRUD(t *testing.T) {
	database := testutil.NewTestDB(t)
	service := NewService(database)
	ctx := context.Background()

	created, err := service.CreateCourt(ctx, ownerID, CourtInput{Name: " Court A ", CourtCount: 2, HourlyPrice: 800})
	if err != nil {
		t.Fatalf("create court: %v", err)
	}
	if created.Name != "Court A" || created.OwnerID != ownerID {
		t.Fatalf("created = %+v", created)
	}

	updated, err := service.UpdateCourt(ctx, ownerID, created.ID, CourtInput{Name: "Court A+", CourtCount: 3, HourlyPrice: 900})
	if err != nil {
		t.Fatalf("update court: %v", err)
	}
	if updated.Name != "Court A+" || updated.HourlyPrice != 900 {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := service.UpdateCourt(ctx, playerID, created.ID, CourtInput{Name: "Mine", CourtCount: 1}); !errors.Is(err, booking.ErrNotYourCourt) {
		t.Fatalf("non-owner update: got %v", err)
	}

	listed, err := service.ListOwnerCourts(ctx, ownerID)
	if err != nil {
		t.Fatalf("list courts: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d courts", len(listed))
	}

	if err := service.DeleteCourt(ctx, ownerID, created.ID); err != nil {
		t.Fatalf("delete unused court: %v", err)
	}
	if _, err := service.GetCourt(ctx, created.ID); !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("deleted court: got %v", err)
	}
}

func TestDeleteCourtInUse(t *testing.T) {
	database := testutil.NewTestDB(t)
	service := NewService(database)
	engine := booking.NewEngine(database)
	ctx := context.Background()

	withBooking := testutil.SeedCourt(t, database, ownerID, "Booked", 500)
	b := bookSlot(t, engine, withBooking.ID, "10:00", "11:00")
	if _, err := engine.UpdateBookingStatus(ctx, booking.StatusChange{BookingID: b.ID, Status: booking.StatusCancelled, ActorID: ownerID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := service.DeleteCourt(ctx, ownerID, withBooking.ID); !errors.Is(err, booking.ErrCourtInUse) {
		t.Fatalf("court with cancelled booking: got %v", err)
	}

	withEvent := testutil.SeedCourt(t, database, ownerID, "Evented", 500)
	testutil.SeedEvent(t, database, withEvent.ID, "cleaning", day.Add(8*time.Hour), day.Add(9*time.Hour), false)
	if err := service.DeleteCourt(ctx, ownerID, withEvent.ID); !errors.Is(err, booking.ErrCourtInUse) {
		t.Fatalf("court with event: got %v", err)
	}

	if err := service.DeleteCourt(ctx, playerID, withEvent.ID); !errors.Is(err, booking.ErrNotYourCourt) {
		t.Fatalf("non-owner delete: got %v", err)
	}
}

func TestCreateEventValidation(t *testing.T) {
	database := testutil.NewTestDB(t)
	court := testutil.SeedCourt(t, database, ownerID, "Court", 500)
	service := NewService(database)
	ctx := context.Background()

	bad := maintenance(12*time.Hour, 10*time.Hour)
	if _, err := service.CreateEvent(ctx, ownerID, court.ID, bad); !errors.Is(err, booking.ErrInvalidInterval) {
		t.Fatalf("inverted event: got %v", err)
	}

	unknown := maintenance(10*time.Hour, 12*time.Hour)
	unknown.EventType = "party"
	if _, err := service.CreateEvent(ctx, ownerID, court.ID, unknown); !errors.Is(err, booking.ErrInvalidEventType) {
		t.Fatalf("unknown type: got %v", err)
	}

	if _, err := service.CreateEvent(ctx, playerID, court.ID, maintenance(10*time.Hour, 12*time.Hour)); !errors.Is(err, booking.ErrNotYourCourt) {
		t.Fatalf("non-owner event: got %v", err)
	}
}

func TestEventOverlapPolicies(t *testing.T) {
	tests := []struct {
		policy      string
		wantErr     error
		wantReports bool
	}{
		{policy: config.OverlapAllow},
		{policy: config.OverlapWarn, wantReports: true},
		{policy: config.OverlapReject, wantErr: booking.ErrEventOverlapsBookings},
	}

	for _, tc := range tests {
		t.Run(tc.policy, func(t *testing.T) {
			database := testutil.NewTestDB(t)
			court := testutil.SeedCourt(t, database, ownerID, "Court C", 500)
			engine := booking.NewEngine(database)
			service := NewService(database, WithOverlapPolicy(tc.policy))
			ctx := context.Background()

			existing := bookSlot(t, engine, court.ID, "10:00", "11:00")
			bookSlot(t, engine, court.ID, "12:00", "13:00")

			result, err := service.CreateEvent(ctx, ownerID, court.ID, maintenance(10*time.Hour+30*time.Minute, 12*time.Hour))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("create event: %v", err)
			}
			if tc.wantReports {
				if len(result.OverlappingBookingIDs) != 1 || result.OverlappingBookingIDs[0] != existing.ID {
					t.Fatalf("overlapping = %v, want [%d]", result.OverlappingBookingIDs, existing.ID)
				}
			} else if len(result.OverlappingBookingIDs) != 0 {
				t.Fatalf("allow policy reported %v", result.OverlappingBookingIDs)
			}

			still, err := engine.GetBooking(ctx, existing.ID, ownerID)
			if err != nil {
				t.Fatalf("get booking: %v", err)
			}
			if still.Status != booking.StatusPending {
				t.Fatalf("existing booking changed to %s", still.Status)
			}
		})
	}
}

func TestNonBlockingEventIgnoresOverlapPolicy(t *testing.T) {
	database := testutil.NewTestDB(t)
	court := testutil.SeedCourt(t, database, ownerID, "Court", 500)
	engine := booking.NewEngine(database)
	service := NewService(database, WithOverlapPolicy(config.OverlapReject))

	bookSlot(t, engine, court.ID, "10:00", "11:00")
	input := maintenance(10*time.Hour, 11*time.Hour)
	input.EventType = "private_event"
	input.BlocksBookings = false
	if _, err := service.CreateEvent(context.Background(), ownerID, court.ID, input); err != nil {
		t.Fatalf("informational event: %v", err)
	}
}

func TestMaintenanceScenarioWithWarnPolicy(t *testing.T) {
	database := testutil.NewTestDB(t)
	service := NewService(database)
	engine := booking.NewEngine(database)
	ctx := context.Background()

	court, err := service.CreateCourt(ctx, ownerID, CourtInput{Name: "Court C", CourtCount: 1, HourlyPrice: 500})
	if err != nil {
		t.Fatalf("create court: %v", err)
	}
	first := bookSlot(t, engine, court.ID, "10:00", "11:00")

	result, err := service.CreateEvent(ctx, ownerID, court.ID, maintenance(10*time.Hour+30*time.Minute, 12*time.Hour))
	if err != nil {
		t.Fatalf("create maintenance event: %v", err)
	}
	if len(result.OverlappingBookingIDs) != 1 || result.OverlappingBookingIDs[0] != first.ID {
		t.Fatalf("overlapping = %v", result.OverlappingBookingIDs)
	}

	other := playerID + 1
	_, err = engine.CreateBooking(ctx, booking.CreateParams{
		ActorID:  other,
		CourtID:  court.ID,
		PlayerID: &other,
		Slot:     interval.Slot{Date: "2025-03-01", StartTime: "10:30", EndTime: "11:30"},
		Source:   booking.SourcePlayer,
	})
	if !errors.Is(err, booking.ErrSlotBlockedByEvent) {
		t.Fatalf("expected ErrSlotBlockedByEvent, got %v", err)
	}
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	database := testutil.NewTestDB(t)
	court := testutil.SeedCourt(t, database, ownerID, "Court", 500)
	service := NewService(database)
	ctx := context.Background()

	created, err := service.CreateEvent(ctx, ownerID, court.ID, maintenance(8*time.Hour, 9*time.Hour))
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	moved := maintenance(14*time.Hour, 15*time.Hour)
	moved.EventType = "closure"
	updated, err := service.UpdateEvent(ctx, ownerID, created.Event.ID, moved)
	if err != nil {
		t.Fatalf("update event: %v", err)
	}
	if updated.Event.EventType != "closure" || !updated.Event.StartDatetime.Equal(day.Add(14*time.Hour)) {
		t.Fatalf("updated = %+v", updated.Event)
	}

	if _, err := service.UpdateEvent(ctx, playerID, created.Event.ID, moved); !errors.Is(err, booking.ErrNotYourCourt) {
		t.Fatalf("non-owner update: got %v", err)
	}

	events, err := service.ListEvents(ctx, court.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("listed %d events", len(events))
	}

	if err := service.DeleteEvent(ctx, ownerID, created.Event.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if err := service.DeleteEvent(ctx, ownerID, created.Event.ID); !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("second delete: got %v", err)
	}
}

func TestScheduleRedactsOtherPlayers(t *testing.T) {
	database := testutil.NewTestDB(t)
	court := testutil.SeedCourt(t, database, ownerID, "Court", 500)
	engine := booking.NewEngine(database)
	service := NewService(database)
	ctx := context.Background()

	bookSlot(t, engine, court.ID, "10:00", "11:00")
	testutil.SeedEvent(t, database, court.ID, "cleaning", day.Add(7*time.Hour), day.Add(8*time.Hour), true)
	testutil.SeedEvent(t, database, court.ID, "closure", day.AddDate(0, 0, 1), day.AddDate(0, 0, 1).Add(time.Hour), true)

	owner, err := service.Schedule(ctx, court.ID, "2025-03-01", ownerID)
	if err != nil {
		t.Fatalf("owner schedule: %v", err)
	}
	if len(owner.Bookings) != 1 || owner.Bookings[0].PlayerID == nil {
		t.Fatalf("owner schedule bookings = %+v", owner.Bookings)
	}
	if len(owner.Events) != 1 {
		t.Fatalf("owner schedule events = %+v", owner.Events)
	}

	stranger, err := service.Schedule(ctx, court.ID, "2025-03-01", 999)
	if err != nil {
		t.Fatalf("stranger schedule: %v", err)
	}
	if stranger.Bookings[0].PlayerID != nil {
		t.Fatalf("stranger sees player identity")
	}

	if _, err := service.Schedule(ctx, court.ID, "tomorrow", ownerID); !errors.Is(err, booking.ErrInvalidInterval) {
		t.Fatalf("bad date: got %v", err)
	}
}

func TestParseEventTime(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	got, err := ParseEventTime("2025-03-01T10:30", loc)
	if err != nil {
		t.Fatalf("parse local: %v", err)
	}
	if !got.Equal(time.Date(2025, 3, 1, 2, 30, 0, 0, time.UTC)) {
		t.Fatalf("local parse = %v", got)
	}
	got, err = ParseEventTime("2025-03-01T10:30:00Z", loc)
	if err != nil {
		t.Fatalf("parse rfc3339: %v", err)
	}
	if !got.Equal(time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("rfc3339 parse = %v", got)
	}
	if _, err := ParseEventTime("10:30", loc); err == nil {
		t.Fatalf("expected error for clock-only value")
	}
}
