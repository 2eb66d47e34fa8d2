package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/codr1/courtbook/internal/db"
	dbgen "github.com/codr1/courtbook/internal/db/generated"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// SeedCourt inserts a court owned by ownerID.
func SeedCourt(t *testing.T, database *db.DB, ownerID int64, name string, hourlyPrice int64) dbgen.Court {
	t.Helper()

	court, err := database.Queries.CreateCourt(context.Background(), dbgen.CreateCourtParams{
		OwnerID:     ownerID,
		Name:        name,
		Location:    "Main Hall",
		CourtCount:  1,
		SurfaceType: "hardcourt",
		HourlyPrice: hourlyPrice,
	})
	if err != nil {
		t.Fatalf("seed court: %v", err)
	}
	return court
}

// SeedEvent inserts a court event over [start, end).
func SeedEvent(t *testing.T, database *db.DB, courtID int64, eventType string, start, end time.Time, blocks bool) dbgen.CourtEvent {
	t.Helper()

	event, err := database.Queries.CreateCourtEvent(context.Background(), dbgen.CreateCourtEventParams{
		CourtID:        courtID,
		Title:          eventType,
		EventType:      eventType,
		StartDatetime:  db.FormatTime(start),
		EndDatetime:    db.FormatTime(end),
		BlocksBookings: blocks,
		Color:          "#f97316",
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return event
}

// Clock is a controllable clock for tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
