package seating

import "time"

// LayoutResponse is returned by GET /layouts/{eventId}.
type LayoutResponse struct {
	LayoutJSON string `json:"layoutJson"`
}

type SaveLayoutRequest struct {
	EventID    string `json:"eventId"`
	LayoutJSON string `json:"layoutJson"`
}

// SeatNumbersRequest is the body of the reserve and confirm calls.
type SeatNumbersRequest struct {
	SeatNumbers []string `json:"seatNumbers"`
}

// ReserveResponse is the seating service's answer to a hold request. Success
// is a pointer so a missing flag can be told apart from false.
type ReserveResponse struct {
	Success       *bool      `json:"success"`
	ReservationID string     `json:"reservationId,omitempty"`
	SeatNumbers   []string   `json:"seatNumbers,omitempty"`
	Conflicts     []string   `json:"conflicts,omitempty"`
	Message       string     `json:"message,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// ReserveOutcome carries the raw result of a reserve call. Interpreting it is
// left to the caller.
type ReserveOutcome struct {
	StatusCode int
	Body       *ReserveResponse
	DecodeErr  error
}

type ConfirmResponse struct {
	Success     *bool    `json:"success"`
	SeatNumbers []string `json:"seatNumbers,omitempty"`
	Message     string   `json:"message,omitempty"`
}
