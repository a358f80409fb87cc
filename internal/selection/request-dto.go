package selection

import "seatstudio/internal/layout"

type CreateSessionRequest struct {
	EventID      string  `json:"event_id" validate:"required,max=64"`
	Capacity     int     `json:"capacity" validate:"min=0,max=10000"`
	VIPCount     int     `json:"vip_count" validate:"min=0"`
	VIPPrice     float64 `json:"vip_price" validate:"min=0"`
	RegularPrice float64 `json:"regular_price" validate:"min=0"`
	Shape        string  `json:"shape" validate:"omitempty,oneof=circle square"`
	Width        int     `json:"width" validate:"min=0,max=10000"`
	Height       int     `json:"height" validate:"min=0,max=10000"`
}

func (r CreateSessionRequest) Pricing() layout.Pricing {
	return layout.Pricing{
		Capacity:     r.Capacity,
		VIPCount:     r.VIPCount,
		VIPPrice:     r.VIPPrice,
		RegularPrice: r.RegularPrice,
	}
}

type ToggleSeatRequest struct {
	SeatNumber string `json:"seat_number" validate:"required,max=64"`
}
