package layout

// Reclassifier picks the category of the seat at generation-order index i
// during a bulk pricing change. toggled is true when the seat was set
// individually since the layout was loaded.
type Reclassifier func(i int, seat Seat, toggled bool, p Pricing) SeatType

// ByGenerationIndex makes the first VIPCount generated seats VIP and the rest
// Regular, discarding individual toggles. Existing saved layouts rely on this
// convention.
func ByGenerationIndex(i int, _ Seat, _ bool, p Pricing) SeatType {
	if i < p.VIPCount {
		return SeatTypeVIP
	}
	return SeatTypeRegular
}

// PreservingToggles behaves like ByGenerationIndex except that seats the
// organizer set by hand, by click or per-seat edit, keep their category.
func PreservingToggles(i int, seat Seat, toggled bool, p Pricing) SeatType {
	if toggled && seat.SeatType.IsValid() {
		return seat.SeatType
	}
	return ByGenerationIndex(i, seat, toggled, p)
}

// RecolorForCategoryChange re-derives every seat's category and price after
// the organizer changes the VIP count or either price. Per-seat prices are
// overwritten with the category default.
func (l *Layout) RecolorForCategoryChange(p Pricing) {
	p = p.normalized()
	classify := l.Reclassify
	if classify == nil {
		classify = ByGenerationIndex
	}
	for i := range l.seats {
		seat := &l.seats[i]
		seat.SeatType = classify(i, *seat, l.toggled[seat.SeatNumber], p)
		seat.Price = p.PriceFor(seat.SeatType)
	}
}
