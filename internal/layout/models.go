package layout

import "errors"

// SeatType is the pricing category of a seat.
type SeatType string

const (
	SeatTypeVIP     SeatType = "VIP"
	SeatTypeRegular SeatType = "Regular"
)

func (t SeatType) IsValid() bool {
	switch t {
	case SeatTypeVIP, SeatTypeRegular:
		return true
	}
	return false
}

func (t SeatType) String() string {
	return string(t)
}

// Toggle flips VIP <-> Regular. Unknown types become VIP.
func (t SeatType) Toggle() SeatType {
	if t == SeatTypeVIP {
		return SeatTypeRegular
	}
	return SeatTypeVIP
}

// SeatStatus is the persisted availability of a seat. Anything other than
// "available" (unavailable, booked, held...) is treated as taken.
type SeatStatus string

const (
	StatusAvailable   SeatStatus = "available"
	StatusUnavailable SeatStatus = "unavailable"
	StatusBooked      SeatStatus = "booked"

	// statusSelected only exists in attendee UI state and is never stored on a seat.
	statusSelected SeatStatus = "selected"
)

// IsBooked reports whether the seat cannot be selected. A missing status
// counts as available.
func (s SeatStatus) IsBooked() bool {
	return s != "" && s != StatusAvailable
}

func (s SeatStatus) String() string {
	return string(s)
}

// Seat is one bookable unit. Field names match the layout document stored by
// the seating service.
type Seat struct {
	SeatNumber string     `json:"seatNumber"`
	Row        string     `json:"row"`
	Section    string     `json:"section"`
	SeatType   SeatType   `json:"seatType"`
	Price      float64    `json:"price"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	Status     SeatStatus `json:"status"`
}

func (s Seat) IsVIP() bool {
	return s.SeatType == SeatTypeVIP
}

func (s Seat) IsBooked() bool {
	return s.Status.IsBooked()
}

// Pricing holds the organizer's global category inputs for an event.
type Pricing struct {
	Capacity     int     `json:"capacity"`
	VIPCount     int     `json:"vip_count"`
	VIPPrice     float64 `json:"vip_price"`
	RegularPrice float64 `json:"regular_price"`
}

// PriceFor returns the current default price of a category.
func (p Pricing) PriceFor(t SeatType) float64 {
	if t == SeatTypeVIP {
		return p.VIPPrice
	}
	return p.RegularPrice
}

// normalized clamps the counts into range and negative prices to zero.
func (p Pricing) normalized() Pricing {
	if p.Capacity < 0 {
		p.Capacity = 0
	}
	if p.VIPCount < 0 {
		p.VIPCount = 0
	}
	if p.VIPCount > p.Capacity && p.Capacity > 0 {
		p.VIPCount = p.Capacity
	}
	if p.VIPPrice < 0 {
		p.VIPPrice = 0
	}
	if p.RegularPrice < 0 {
		p.RegularPrice = 0
	}
	return p
}

var (
	ErrSeatNotFound    = errors.New("seat not found")
	ErrDuplicateSeat   = errors.New("duplicate seat number")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidSeatType = errors.New("invalid seat type")
	ErrInvalidStatus   = errors.New("invalid seat status")
	ErrMalformedLayout = errors.New("malformed layout document")
	ErrEmptySeatNumber = errors.New("seat number is required")
)
