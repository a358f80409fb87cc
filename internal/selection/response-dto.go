package selection

import "seatstudio/internal/layout"

// SeatView is a seat as the picker shows it.
type SeatView struct {
	layout.Seat
	Selected bool `json:"selected"`
}

type FailureResponse struct {
	Reason    string   `json:"reason"`
	Message   string   `json:"message,omitempty"`
	Conflicts []string `json:"conflicts,omitempty"`
}

type SessionResponse struct {
	SessionID      string           `json:"session_id"`
	EventID        string           `json:"event_id"`
	Origin         string           `json:"origin"`
	FallbackReason string           `json:"fallback_reason,omitempty"`
	State          State            `json:"state"`
	Seats          []SeatView       `json:"seats"`
	SelectedSeats  []string         `json:"selected_seats"`
	TotalPrice     float64          `json:"total_price"`
	Reservation    *Reservation     `json:"reservation,omitempty"`
	LastFailure    *FailureResponse `json:"last_failure,omitempty"`
}

type ToggleResponse struct {
	Applied       bool     `json:"applied"`
	State         State    `json:"state"`
	SelectedSeats []string `json:"selected_seats"`
	TotalPrice    float64  `json:"total_price"`
}

type RefreshResponse struct {
	DroppedSeats []string         `json:"dropped_seats"`
	Session      *SessionResponse `json:"session"`
}

func toFailureResponse(f *ReservationFailure) *FailureResponse {
	if f == nil {
		return nil
	}
	return &FailureResponse{Reason: f.Reason, Message: f.Message, Conflicts: f.Conflicts}
}

func toSessionResponse(id string, s Snapshot) *SessionResponse {
	selected := make(map[string]bool, len(s.Selected))
	for _, seatNumber := range s.Selected {
		selected[seatNumber] = true
	}

	seats := make([]SeatView, 0, len(s.Seats))
	for _, seat := range s.Seats {
		seats = append(seats, SeatView{Seat: seat, Selected: selected[seat.SeatNumber]})
	}

	selectedSeats := s.Selected
	if selectedSeats == nil {
		selectedSeats = []string{}
	}

	return &SessionResponse{
		SessionID:     id,
		EventID:       s.EventID,
		Origin:        string(s.Origin),
		State:         s.State,
		Seats:         seats,
		SelectedSeats: selectedSeats,
		TotalPrice:    s.Total,
		Reservation:   s.Reservation,
		LastFailure:   toFailureResponse(s.Failure),
	}
}
