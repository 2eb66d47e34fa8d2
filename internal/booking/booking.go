// Package booking is the reservation engine: it validates and commits court
// bookings, keeps them clear of blocking events and of each other, and owns
// the booking status lifecycle.
package booking

import (
	"database/sql"
	"fmt"
	"time"

	dbgen "github.com/codr1/courtbook/internal/db/generated"
	"github.com/codr1/courtbook/internal/interval"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodCash    PaymentMethod = "cash"
	MethodCard    PaymentMethod = "card"
	MethodOnline  PaymentMethod = "online"
	MethodPrepaid PaymentMethod = "prepaid"
)

// ParsePaymentMethod maps request input to a method. Empty input means cash.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	switch PaymentMethod(value) {
	case "":
		return MethodCash, nil
	case MethodCash, MethodCard, MethodOnline, MethodPrepaid:
		return PaymentMethod(value), nil
	default:
		return "", fmt.Errorf("unsupported payment method %q", value)
	}
}

// Source records who entered the booking.
type Source string

const (
	SourceOwner  Source = "owner"
	SourcePlayer Source = "player"
)

// Cancellation reasons stamped on cancelled rows.
const (
	ReasonExpired        = "expired"
	ReasonOwnerCancelled = "owner_cancelled"
	ReasonPlayerCancel   = "player_cancelled"
)

// ConfirmationPolicy decides the initial status of a new booking.
type ConfirmationPolicy struct {
	OwnerStatus  Status
	PlayerStatus Status
}

// DefaultConfirmationPolicy auto-confirms owner entries and leaves player
// self-service bookings pending owner confirmation.
func DefaultConfirmationPolicy() ConfirmationPolicy {
	return ConfirmationPolicy{OwnerStatus: StatusConfirmed, PlayerStatus: StatusPending}
}

// InitialStatus returns the status a booking from source starts in.
func (p ConfirmationPolicy) InitialStatus(source Source) Status {
	if source == SourceOwner {
		if p.OwnerStatus == "" {
			return StatusConfirmed
		}
		return p.OwnerStatus
	}
	if p.PlayerStatus == "" {
		return StatusPending
	}
	return p.PlayerStatus
}

// Transition reports whether from -> to is an allowed status change.
func Transition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	default:
		return false
	}
}

type Booking struct {
	ID                 int64         `json:"id"`
	CourtID            int64         `json:"court_id"`
	PlayerID           *int64        `json:"player_id,omitempty"`
	CustomerName       string        `json:"customer_name,omitempty"`
	Date               string        `json:"date"`
	StartTime          string        `json:"start_time"`
	EndTime            string        `json:"end_time"`
	TotalPrice         int64         `json:"total_price"`
	Status             Status        `json:"status"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
	PaymentMethod      PaymentMethod `json:"payment_method"`
	Source             Source        `json:"source"`
	IsCheckedIn        bool          `json:"is_checked_in"`
	CheckedInAt        string        `json:"checked_in_at,omitempty"`
	AmountTendered     *int64        `json:"amount_tendered,omitempty"`
	ChangeAmount       *int64        `json:"change_amount,omitempty"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
	CancelledAt        string        `json:"cancelled_at,omitempty"`
	CreatedAt          string        `json:"created_at"`
	UpdatedAt          string        `json:"updated_at"`
}

// Slot returns the stored date and clock times.
func (b Booking) Slot() interval.Slot {
	return interval.Slot{Date: b.Date, StartTime: b.StartTime, EndTime: b.EndTime}
}

// Interval returns the absolute booking window in loc.
func (b Booking) Interval(loc *time.Location) (interval.Interval, error) {
	return interval.FromSlot(b.Slot(), loc)
}

// Active reports whether the booking still occupies its slot.
func (b Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// Details is a booking joined with its court and player profile.
type Details struct {
	Booking
	CourtOwnerID  int64  `json:"court_owner_id"`
	CourtName     string `json:"court_name"`
	CourtLocation string `json:"court_location,omitempty"`
	PlayerName    string `json:"player_name,omitempty"`
	PlayerEmail   string `json:"player_email,omitempty"`
	PlayerPhone   string `json:"player_phone,omitempty"`
}

// DisplayName is the player's name or the walk-in customer name.
func (d Details) DisplayName() string {
	if d.PlayerName != "" {
		return d.PlayerName
	}
	return d.CustomerName
}

// PlayerProfile is the identity the upstream gateway verified for a player.
type PlayerProfile struct {
	ID          int64
	DisplayName string
	Email       string
	Phone       string
}

func FromRow(row dbgen.Booking) Booking {
	return Booking{
		ID:                 row.ID,
		CourtID:            row.CourtID,
		PlayerID:           nullInt64Ptr(row.PlayerID),
		CustomerName:       row.CustomerName.String,
		Date:               row.Date,
		StartTime:          row.StartTime,
		EndTime:            row.EndTime,
		TotalPrice:         row.TotalPrice,
		Status:             Status(row.Status),
		PaymentStatus:      PaymentStatus(row.PaymentStatus),
		PaymentMethod:      PaymentMethod(row.PaymentMethod),
		Source:             Source(row.Source),
		IsCheckedIn:        row.IsCheckedIn,
		CheckedInAt:        row.CheckedInAt.String,
		AmountTendered:     nullInt64Ptr(row.AmountTendered),
		ChangeAmount:       nullInt64Ptr(row.ChangeAmount),
		CancellationReason: row.CancellationReason.String,
		CancelledAt:        row.CancelledAt.String,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func DetailsFromRow(row dbgen.GetBookingDetailsRow) Details {
	return Details{
		Booking: FromRow(dbgen.Booking{
			ID:                 row.ID,
			CourtID:            row.CourtID,
			PlayerID:           row.PlayerID,
			CustomerName:       row.CustomerName,
			Date:               row.Date,
			StartTime:          row.StartTime,
			EndTime:            row.EndTime,
			TotalPrice:         row.TotalPrice,
			Status:             row.Status,
			PaymentStatus:      row.PaymentStatus,
			PaymentMethod:      row.PaymentMethod,
			Source:             row.Source,
			IsCheckedIn:        row.IsCheckedIn,
			CheckedInAt:        row.CheckedInAt,
			AmountTendered:     row.AmountTendered,
			ChangeAmount:       row.ChangeAmount,
			CancellationReason: row.CancellationReason,
			CancelledAt:        row.CancelledAt,
			CreatedAt:          row.CreatedAt,
			UpdatedAt:          row.UpdatedAt,
		}),
		CourtOwnerID:  row.CourtOwnerID,
		CourtName:     row.CourtName,
		CourtLocation: row.CourtLocation,
		PlayerName:    row.PlayerName.String,
		PlayerEmail:   row.PlayerEmail.String,
		PlayerPhone:   row.PlayerPhone.String,
	}
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

// ProratedPrice charges hourlyPrice per minute of d, rounded to the nearest
// minor unit.
func ProratedPrice(hourlyPrice int64, d time.Duration) int64 {
	minutes := int64(d / time.Minute)
	return (hourlyPrice*minutes + 30) / 60
}
