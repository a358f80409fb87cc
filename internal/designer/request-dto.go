package designer

import (
	"seatstudio/internal/layout"
)

type MountRequest struct {
	EventID      string  `json:"event_id" validate:"required,max=64"`
	Capacity     int     `json:"capacity" validate:"min=0,max=10000"`
	VIPCount     int     `json:"vip_count" validate:"min=0"`
	VIPPrice     float64 `json:"vip_price" validate:"min=0"`
	RegularPrice float64 `json:"regular_price" validate:"min=0"`
	Shape        string  `json:"shape" validate:"omitempty,oneof=circle square"`
	Width        int     `json:"width" validate:"min=0,max=10000"`
	Height       int     `json:"height" validate:"min=0,max=10000"`
	ResumeDraft  bool    `json:"resume_draft"`
}

func (r MountRequest) Pricing() layout.Pricing {
	return layout.Pricing{
		Capacity:     r.Capacity,
		VIPCount:     r.VIPCount,
		VIPPrice:     r.VIPPrice,
		RegularPrice: r.RegularPrice,
	}
}

type DragRequest struct {
	SeatNumber string    `json:"seat_number" validate:"required,max=64"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Phase      DragPhase `json:"phase" validate:"required,oneof=start move end"`
}

type ClickRequest struct {
	SeatNumber string `json:"seat_number" validate:"required,max=64"`
}

// PricingRequest carries the event form's category inputs.
type PricingRequest struct {
	Capacity     int     `json:"capacity" validate:"min=0,max=10000"`
	VIPCount     int     `json:"vip_count" validate:"min=0"`
	VIPPrice     float64 `json:"vip_price" validate:"min=0"`
	RegularPrice float64 `json:"regular_price" validate:"min=0"`
}

func (r PricingRequest) Pricing() layout.Pricing {
	return layout.Pricing{
		Capacity:     r.Capacity,
		VIPCount:     r.VIPCount,
		VIPPrice:     r.VIPPrice,
		RegularPrice: r.RegularPrice,
	}
}

// RegenerateRequest overrides the session pricing for the new grid. Omitted
// fields keep their current value.
type RegenerateRequest struct {
	Capacity     *int     `json:"capacity" validate:"omitempty,min=0,max=10000"`
	VIPCount     *int     `json:"vip_count" validate:"omitempty,min=0"`
	VIPPrice     *float64 `json:"vip_price" validate:"omitempty,min=0"`
	RegularPrice *float64 `json:"regular_price" validate:"omitempty,min=0"`
}

func (r RegenerateRequest) apply(p layout.Pricing) layout.Pricing {
	if r.Capacity != nil {
		p.Capacity = *r.Capacity
	}
	if r.VIPCount != nil {
		p.VIPCount = *r.VIPCount
	}
	if r.VIPPrice != nil {
		p.VIPPrice = *r.VIPPrice
	}
	if r.RegularPrice != nil {
		p.RegularPrice = *r.RegularPrice
	}
	return p
}

type PatchSeatRequest struct {
	SeatType *string  `json:"seat_type" validate:"omitempty,oneof=VIP Regular"`
	Price    *float64 `json:"price" validate:"omitempty,min=0"`
	Row      string   `json:"row" validate:"max=16"`
	Section  string   `json:"section" validate:"max=64"`
}

func (r PatchSeatRequest) patch() SeatPatch {
	p := SeatPatch{Price: r.Price, Row: r.Row, Section: r.Section}
	if r.SeatType != nil {
		t := layout.SeatType(*r.SeatType)
		p.SeatType = &t
	}
	return p
}
