package checkin

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/codr1/courtbook/internal/booking"
)

// Token is the QR payload shown to the player. Only BookingID is
// authoritative; the rest is display data re-checked against the live row.
type Token struct {
	BookingID int64  `json:"bookingId"`
	CourtName string `json:"courtName"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature,omitempty"`
}

// Signer encodes tokens and, when keyed, signs them with a keyed BLAKE2b MAC.
// A zero Signer produces and accepts unsigned tokens.
type Signer struct {
	key []byte
}

func NewSigner(key string) *Signer {
	if key == "" {
		return &Signer{}
	}
	raw := []byte(key)
	if len(raw) > blake2b.Size {
		sum := blake2b.Sum256(raw)
		raw = sum[:]
	}
	return &Signer{key: raw}
}

func (s *Signer) Keyed() bool {
	return s != nil && len(s.key) > 0
}

// Encode builds the payload for a booking at issuance time now.
func (s *Signer) Encode(b booking.Booking, courtName string, now time.Time) (string, error) {
	token := Token{
		BookingID: b.ID,
		CourtName: courtName,
		Date:      b.Date,
		StartTime: b.StartTime,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if s.Keyed() {
		sig, err := s.sign(token)
		if err != nil {
			return "", err
		}
		token.Signature = sig
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("encode check-in token: %w", err)
	}
	return string(payload), nil
}

// Decode parses a scanned payload. When the signer is keyed the signature must
// match.
func (s *Signer) Decode(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Token{}, fmt.Errorf("%w: empty payload", booking.ErrInvalidToken)
	}

	var token Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return Token{}, fmt.Errorf("%w: %v", booking.ErrInvalidToken, err)
	}
	if token.BookingID <= 0 {
		return Token{}, fmt.Errorf("%w: missing bookingId", booking.ErrInvalidToken)
	}

	if s.Keyed() {
		if token.Signature == "" {
			return Token{}, fmt.Errorf("%w: missing signature", booking.ErrInvalidToken)
		}
		want, err := s.sign(token)
		if err != nil {
			return Token{}, err
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(token.Signature))) != 1 {
			return Token{}, fmt.Errorf("%w: signature mismatch", booking.ErrInvalidToken)
		}
	}
	return token, nil
}

func (s *Signer) sign(token Token) (string, error) {
	mac, err := blake2b.New256(s.key)
	if err != nil {
		return "", fmt.Errorf("init token mac: %w", err)
	}
	fields := []string{
		strconv.FormatInt(token.BookingID, 10),
		token.CourtName,
		token.Date,
		token.StartTime,
		token.Timestamp,
	}
	mac.Write([]byte(strings.Join(fields, "\n")))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
