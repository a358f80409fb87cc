package layout

import "fmt"

// Default grid geometry. Saved layouts were produced with these values, so
// changing them breaks compatibility.
const (
	GridPitch      = 50
	SeatsPerRow    = 10
	OriginX        = 50
	OriginY        = 50
	DefaultSection = "Main"
)

// GenerateDefaultGrid lays out Capacity seats row-major, SeatsPerRow per row.
// The first VIPCount seats in generation order are VIP; VIP seats therefore
// cluster at the start of the grid rather than in a distinguished area.
func GenerateDefaultGrid(eventID string, p Pricing) *Layout {
	p = p.normalized()
	seats := make([]Seat, 0, p.Capacity)
	for i := 0; i < p.Capacity; i++ {
		row, col := i/SeatsPerRow, i%SeatsPerRow
		seatType := SeatTypeRegular
		if i < p.VIPCount {
			seatType = SeatTypeVIP
		}
		seats = append(seats, Seat{
			SeatNumber: fmt.Sprintf("S%d", i+1),
			Row:        RowLabel(row),
			Section:    DefaultSection,
			SeatType:   seatType,
			Price:      p.PriceFor(seatType),
			X:          OriginX + col*GridPitch,
			Y:          OriginY + row*GridPitch,
			Status:     StatusAvailable,
		})
	}
	// seat numbers are unique by construction
	l, _ := New(eventID, seats)
	return l
}

// RowLabel converts a zero-based row index to A, B, ... Z, AA, AB ...
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}

// Snap moves a coordinate down onto the grid, so 123 -> 100 and 77 -> 50.
// Coordinates never go below zero.
func Snap(v int) int {
	if v <= 0 {
		return 0
	}
	return (v / GridPitch) * GridPitch
}

func SnapPoint(x, y int) (int, int) {
	return Snap(x), Snap(y)
}
