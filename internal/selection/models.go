package selection

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"seatstudio/internal/layout"
)

// State of an attendee's reservation flow.
type State string

const (
	StateBrowsing  State = "browsing"
	StateReserving State = "reserving"
	StateReserved  State = "reserved"
	StatePaying    State = "paying"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
)

// Locked reports whether the selection is frozen.
func (s State) Locked() bool {
	return s != StateBrowsing && s != StateFailed
}

var (
	ErrReservationInFlight   = errors.New("reservation already in flight")
	ErrAlreadyReserved       = errors.New("seats already reserved")
	ErrEmptySelection        = errors.New("no seats selected")
	ErrPaymentNotAllowed     = errors.New("payment requires a confirmed reservation")
	ErrPaymentAlreadyStarted = errors.New("payment already started")
	ErrConfirmNotAllowed     = errors.New("confirmation requires a started payment")
	ErrSelectionLocked       = errors.New("selection is locked by a reservation")
	ErrFlowClosed            = errors.New("selection flow closed")
	ErrNotLoaded             = errors.New("layout not loaded")
)

// Failure reasons reported by a ReservationFailure.
const (
	ReasonTransport         = "transport"
	ReasonRejected          = "rejected"
	ReasonUnexpectedStatus  = "unexpected_status"
	ReasonMalformedResponse = "malformed_response"
	ReasonNotConfirmed      = "not_confirmed"
)

// ReservationFailure is returned when the seating service did not grant a
// hold. The attendee's selection has been cleared by the time it is seen.
type ReservationFailure struct {
	Reason     string
	StatusCode int
	Message    string
	Conflicts  []string
	Cause      error
}

func (e *ReservationFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reservation failed: %s", e.Reason)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if len(e.Conflicts) > 0 {
		fmt.Fprintf(&b, " [conflicts: %s]", strings.Join(e.Conflicts, ", "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ReservationFailure) Unwrap() error {
	return e.Cause
}

// Selection is the attendee's set of chosen seats. The total is derived from
// the seats' current prices on every call.
type Selection struct {
	layout *layout.Layout
	seats  map[string]struct{}
}

func NewSelection(l *layout.Layout) *Selection {
	return &Selection{layout: l, seats: make(map[string]struct{})}
}

func (s *Selection) IsSelected(seatNumber string) bool {
	_, ok := s.seats[seatNumber]
	return ok
}

func (s *Selection) add(seatNumber string) {
	s.seats[seatNumber] = struct{}{}
}

func (s *Selection) remove(seatNumber string) {
	delete(s.seats, seatNumber)
}

func (s *Selection) clear() {
	s.seats = make(map[string]struct{})
}

func (s *Selection) Len() int {
	return len(s.seats)
}

// SeatNumbers returns the selected seats in layout order.
func (s *Selection) SeatNumbers() []string {
	out := make([]string, 0, len(s.seats))
	for seatNumber := range s.seats {
		out = append(out, seatNumber)
	}
	sort.Slice(out, func(i, j int) bool {
		a, aok := s.layout.Index(out[i])
		b, bok := s.layout.Index(out[j])
		if aok && bok {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}

// Total sums the current price of every selected seat.
func (s *Selection) Total() float64 {
	var total float64
	for seatNumber := range s.seats {
		if seat, ok := s.layout.Seat(seatNumber); ok {
			total += seat.Price
		}
	}
	return total
}

// Reservation is the hold granted by the seating service.
type Reservation struct {
	ReservationID string     `json:"reservation_id,omitempty"`
	EventID       string     `json:"event_id"`
	SeatNumbers   []string   `json:"seat_numbers"`
	Total         float64    `json:"total"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	ReservedAt    time.Time  `json:"reserved_at"`
}

// PaymentHandoff carries what the payment step needs. It is produced once
// per reservation.
type PaymentHandoff struct {
	EventID       string   `json:"event_id"`
	ReservationID string   `json:"reservation_id,omitempty"`
	SeatNumbers   []string `json:"seat_numbers"`
	Amount        float64  `json:"amount"`
}
