// Package courts manages owner-side catalog data: courts and the events
// declared on them.
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
)

type Service struct {
	db            *appdb.DB
	loc           *time.Location
	clock         booking.Clock
	overlapPolicy string
}

type Option func(*Service)

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(clock booking.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithOverlapPolicy sets how a new blocking event treats active bookings it
// covers: config.OverlapAllow, config.OverlapWarn or config.OverlapReject.
func WithOverlapPolicy(policy string) Option {
	return func(s *Service) {
		if policy != "" {
			s.overlapPolicy = policy
		}
	}
}

func NewService(database *appdb.DB, opts ...Option) *Service {
	s := &Service{
		db:            database,
		loc:           time.UTC,
		clock:         booking.SystemClock(),
		overlapPolicy: config.OverlapWarn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location { return s.loc }

type Court struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"owner_id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	CourtCount  int64  `json:"court_count"`
	SurfaceType string `json:"surface_type"`
	HourlyPrice int64  `json:"hourly_price"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CourtInput struct {
	Name        string
	Location    string
	CourtCount  int64
	SurfaceType string
	HourlyPrice int64
}

func courtFromRow(row dbgen.Court) Court {
	return Court{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Name:        row.Name,
		Location:    row.Location,
		CourtCount:  row.CourtCount,
		SurfaceType: row.SurfaceType,
		HourlyPrice: row.HourlyPrice,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (s *Service) CreateCourt(ctx context.Context, ownerID int64, input CourtInput) (Court, error) {
	row, err := s.db.Queries.CreateCourt(ctx, dbgen.CreateCourtParams{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(input.Name),
		Location:    strings.TrimSpace(input.Location),
		CourtCount:  input.CourtCount,
		SurfaceType: strings.TrimSpace(input.SurfaceType),
		HourlyPrice: input.HourlyPrice,
	})
	if err != nil {
		return Court{}, fmt.Errorf("create court: %w", err)
	}
	log.Ctx(ctx).Info().Int64("court_id", row.ID).Int64("owner_id", ownerID).Msg("Court created")
	return courtFromRow(row), nil
}

func (s *Service) GetCourt(ctx context.Context, courtID int64) (Court, error) {
	row, err := s.db.Queries.GetCourt(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Court{}, fmt.Errorf("%w: court %d", booking.ErrNotFound, courtID)
		}
		return Court{}, fmt.Errorf("load court: %w", err)
	}
	return courtFromRow(row), nil
}

func (s *Service) ListOwnerCourts(ctx context.Context, ownerID int64) ([]Court, error) {
	rows, err := s.db.Queries.ListCourtsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	out := make([]Court, 0, len(rows))
	for _, row := range rows {
		out = append(out, courtFromRow(row))
	}
	return out, nil
}

func (s *Service) UpdateCourt(ctx context.Context, ownerID, courtID int64, input CourtInput) (Court, error) {
	var updated dbgen.Court
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		if _, err := ownedCourt(ctx, tx.Queries, ownerID, courtID); err != nil {
			return err
		}
		row, err := tx.Queries.UpdateCourt(ctx, dbgen.UpdateCourtParams{
			Name:        strings.TrimSpace(input.Name),
			Location:    strings.TrimSpace(input.Location),
			CourtCount:  input.CourtCount,
			SurfaceType: strings.TrimSpace(input.SurfaceType),
			HourlyPrice: input.HourlyPrice,
			UpdatedAt:   appdb.FormatTime(s.clock.Now()),
			ID:          courtID,
			OwnerID:     ownerID,
		})
		if err != nil {
			return fmt.Errorf("update court: %w", err)
		}
		updated = row
		return nil
	})
	if err != nil {
		return Court{}, err
	}
	return courtFromRow(updated), nil
}

// DeleteCourt removes a court that nothing references. Courts with bookings
// or events fail with ErrCourtInUse; nothing cascades.
func (s *Service) DeleteCourt(ctx context.Context, ownerID, courtID int64) error {
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		if _, err := ownedCourt(ctx, tx.Queries, ownerID, courtID); err != nil {
			return err
		}
		refs, err := tx.Queries.CountCourtReferences(ctx, courtID)
		if err != nil {
			return fmt.Errorf("count court references: %w", err)
		}
		if refs.BookingCount > 0 || refs.EventCount > 0 {
			return fmt.Errorf("%w: %d bookings and %d events reference court %d",
				booking.ErrCourtInUse, refs.BookingCount, refs.EventCount, courtID)
		}
		if _, err := tx.Queries.DeleteCourt(ctx, dbgen.DeleteCourtParams{ID: courtID, OwnerID: ownerID}); err != nil {
			return fmt.Errorf("delete court: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Int64("court_id", courtID).Int64("owner_id", ownerID).Msg("Court deleted")
	return nil
}

func ownedCourt(ctx context.Context, q *dbgen.Queries, ownerID, courtID int64) (dbgen.Court, error) {
	court, err := q.GetCourt(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Court{}, fmt.Errorf("%w: court %d", booking.ErrNotFound, courtID)
		}
		return dbgen.Court{}, fmt.Errorf("load court: %w", err)
	}
	if court.OwnerID != ownerID {
		return dbgen.Court{}, fmt.Errorf("%w: court %d", booking.ErrNotYourCourt, courtID)
	}
	return court, nil
}
