package layout

import "fmt"

// Layout is the in-session seat collection for one event. Slice order is the
// generation order and is kept stable so re-renders do not shuffle seats.
//
// A Layout is owned by a single designer or selection session and is not safe
// for concurrent use.
type Layout struct {
	EventID string

	seats   []Seat
	index   map[string]int
	toggled map[string]bool

	// Reclassify decides categories on a bulk pricing change. Nil means
	// ByGenerationIndex.
	Reclassify Reclassifier
}

// New builds a layout from seats, rejecting duplicate or empty seat numbers.
func New(eventID string, seats []Seat) (*Layout, error) {
	l := &Layout{
		EventID: eventID,
		seats:   make([]Seat, 0, len(seats)),
		index:   make(map[string]int, len(seats)),
		toggled: make(map[string]bool),
	}
	for _, seat := range seats {
		if seat.SeatNumber == "" {
			return nil, ErrEmptySeatNumber
		}
		if _, exists := l.index[seat.SeatNumber]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSeat, seat.SeatNumber)
		}
		l.index[seat.SeatNumber] = len(l.seats)
		l.seats = append(l.seats, seat)
	}
	return l, nil
}

func (l *Layout) Len() int {
	return len(l.seats)
}

// Seats returns a copy of the seats in generation order.
func (l *Layout) Seats() []Seat {
	out := make([]Seat, len(l.seats))
	copy(out, l.seats)
	return out
}

func (l *Layout) Seat(seatNumber string) (Seat, bool) {
	i, ok := l.index[seatNumber]
	if !ok {
		return Seat{}, false
	}
	return l.seats[i], true
}

// Index returns the generation-order index of a seat.
func (l *Layout) Index(seatNumber string) (int, bool) {
	i, ok := l.index[seatNumber]
	return i, ok
}

func (l *Layout) Clone() *Layout {
	c := &Layout{
		EventID:    l.EventID,
		seats:      l.Seats(),
		index:      make(map[string]int, len(l.index)),
		toggled:    make(map[string]bool, len(l.toggled)),
		Reclassify: l.Reclassify,
	}
	for k, v := range l.index {
		c.index[k] = v
	}
	for k, v := range l.toggled {
		c.toggled[k] = v
	}
	return c
}

func (l *Layout) mutate(seatNumber string, fn func(*Seat)) (Seat, error) {
	i, ok := l.index[seatNumber]
	if !ok {
		return Seat{}, fmt.Errorf("%w: %s", ErrSeatNotFound, seatNumber)
	}
	fn(&l.seats[i])
	return l.seats[i], nil
}

// SEAT MUTATIONS

// SetSeatType sets one seat's category. Like a click toggle it counts as an
// individual override for bulk reclassification.
func (l *Layout) SetSeatType(seatNumber string, t SeatType) (Seat, error) {
	if !t.IsValid() {
		return Seat{}, fmt.Errorf("%w: %q", ErrInvalidSeatType, t)
	}
	seat, err := l.mutate(seatNumber, func(s *Seat) { s.SeatType = t })
	if err != nil {
		return Seat{}, err
	}
	l.toggled[seatNumber] = true
	return seat, nil
}

func (l *Layout) SetSeatPrice(seatNumber string, price float64) (Seat, error) {
	if price < 0 {
		return Seat{}, ErrInvalidPrice
	}
	return l.mutate(seatNumber, func(s *Seat) { s.Price = price })
}

// SetSeatPosition stores the grid-snapped position of a seat.
func (l *Layout) SetSeatPosition(seatNumber string, x, y int) (Seat, error) {
	sx, sy := SnapPoint(x, y)
	return l.mutate(seatNumber, func(s *Seat) {
		s.X = sx
		s.Y = sy
	})
}

func (l *Layout) SetSeatLabels(seatNumber, row, section string) (Seat, error) {
	return l.mutate(seatNumber, func(s *Seat) {
		if row != "" {
			s.Row = row
		}
		if section != "" {
			s.Section = section
		}
	})
}

// SetSeatStatus updates the persisted status. The attendee-only "selected"
// state is rejected.
func (l *Layout) SetSeatStatus(seatNumber string, status SeatStatus) (Seat, error) {
	if status == "" || status == statusSelected {
		return Seat{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return l.mutate(seatNumber, func(s *Seat) { s.Status = status })
}

// ToggleSeatType flips a single seat between VIP and Regular and resets its
// price to the new category's current default.
func (l *Layout) ToggleSeatType(seatNumber string, p Pricing) (Seat, error) {
	seat, err := l.mutate(seatNumber, func(s *Seat) {
		s.SeatType = s.SeatType.Toggle()
		s.Price = p.PriceFor(s.SeatType)
	})
	if err != nil {
		return Seat{}, err
	}
	l.toggled[seatNumber] = true
	return seat, nil
}

// Toggled reports whether a seat's category was set individually, by a click
// toggle or SetSeatType.
func (l *Layout) Toggled(seatNumber string) bool {
	return l.toggled[seatNumber]
}

// Validate checks the invariants a persisted layout must hold.
func (l *Layout) Validate() error {
	seen := make(map[string]struct{}, len(l.seats))
	for _, s := range l.seats {
		if s.SeatNumber == "" {
			return ErrEmptySeatNumber
		}
		if _, dup := seen[s.SeatNumber]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSeat, s.SeatNumber)
		}
		seen[s.SeatNumber] = struct{}{}
		if !s.SeatType.IsValid() {
			return fmt.Errorf("%w: %q on seat %s", ErrInvalidSeatType, s.SeatType, s.SeatNumber)
		}
		if s.Price < 0 {
			return fmt.Errorf("%w: seat %s", ErrInvalidPrice, s.SeatNumber)
		}
	}
	return nil
}

// BookedCount returns the number of seats that are not available.
func (l *Layout) BookedCount() int {
	n := 0
	for _, s := range l.seats {
		if s.IsBooked() {
			n++
		}
	}
	return n
}
