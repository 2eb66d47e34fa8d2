package email

import (
	"fmt"
	"strings"
)

const (
	KindConfirmation = "booking_confirmation"
	KindCancellation = "booking_cancellation"
)

// Message is one outbound email. Kind tags it for delivery metrics.
type Message struct {
	Kind    string
	Subject string
	Body    string
}

func (m Message) kind() string {
	if m.Kind == "" {
		return "other"
	}
	return m.Kind
}

type BookingDetails struct {
	CourtName    string
	Location     string
	Date         string
	TimeRange    string
	Status       string
	AmountDue    int64
	PayAtCourt   bool
	CheckInToken string
}

type CancellationDetails struct {
	CourtName string
	Date      string
	TimeRange string
	Reason    string
}

// FormatMoney renders minor units as a decimal amount.
func FormatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func BuildBookingConfirmation(details BookingDetails) Message {
	court := orDefault(details.CourtName, "your court")
	status := orDefault(details.Status, "pending")

	subject := "Booking Received - " + court
	if status == "confirmed" {
		subject = "Booking Confirmed - " + court
	}

	lines := []string{
		fmt.Sprintf("Your booking at %s is %s.", court, status),
		"",
		fmt.Sprintf("Court: %s", court),
	}
	if location := strings.TrimSpace(details.Location); location != "" {
		lines = append(lines, fmt.Sprintf("Location: %s", location))
	}
	lines = append(lines,
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", orDefault(details.TimeRange, "TBD")),
	)
	if details.AmountDue > 0 {
		due := fmt.Sprintf("Amount due: %s", FormatMoney(details.AmountDue))
		if details.PayAtCourt {
			due += " (pay at the court)"
		}
		lines = append(lines, due)
	}
	if token := strings.TrimSpace(details.CheckInToken); token != "" {
		lines = append(lines,
			"",
			"Show this check-in code at the front desk:",
			token,
		)
	}

	return Message{Kind: KindConfirmation, Subject: subject, Body: strings.Join(lines, "\n")}
}

func BuildBookingCancellation(details CancellationDetails) Message {
	court := orDefault(details.CourtName, "your court")

	lines := []string{
		fmt.Sprintf("Your booking at %s has been cancelled.", court),
		"",
		fmt.Sprintf("Court: %s", court),
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", orDefault(details.TimeRange, "TBD")),
	}
	if reason := cancellationReasonLabel(details.Reason); reason != "" {
		lines = append(lines, fmt.Sprintf("Reason: %s", reason))
	}

	return Message{
		Kind:    KindCancellation,
		Subject: "Booking Cancelled - " + court,
		Body:    strings.Join(lines, "\n"),
	}
}

func cancellationReasonLabel(reason string) string {
	switch strings.TrimSpace(reason) {
	case "expired":
		return "Not checked in before the start of the booking"
	case "owner_cancelled":
		return "Cancelled by the court owner"
	case "player_cancelled":
		return "Cancelled at your request"
	}
	return strings.TrimSpace(reason)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
