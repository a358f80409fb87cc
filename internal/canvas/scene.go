package canvas

import "errors"

type Shape string

const (
	ShapeCircle Shape = "circle"
	ShapeSquare Shape = "square"
)

func (s Shape) IsValid() bool {
	switch s {
	case ShapeCircle, ShapeSquare:
		return true
	}
	return false
}

// Mode selects between the organizer editor and the attendee seat picker.
type Mode string

const (
	ModeDesign   Mode = "design"
	ModeReadOnly Mode = "read_only"
)

// Size of the drawing container in canvas units.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

const (
	DefaultWidth  = 800
	DefaultHeight = 600
	SeatRadius    = 18
	surfaceMargin = 50
)

// Fill colors.
const (
	FillVIP      = "#FFD700"
	FillRegular  = "#4A90D9"
	FillSelected = "#FF5722"
	FillBooked   = "#9E9E9E"
	strokeColor  = "#263238"
)

// Node is the visual primitive for one seat. Its fields are always derived
// from the seat it mirrors; it holds no state of its own besides Dragging.
type Node struct {
	SeatNumber string `json:"seat_number"`
	Shape      Shape  `json:"shape"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Fill       string `json:"fill"`
	Label      string `json:"label"`
	Clickable  bool   `json:"clickable"`
	Dragging   bool   `json:"dragging"`
	Redraws    int    `json:"redraws"`
}

// Surface is the drawing area owned by a mounted renderer.
type Surface struct {
	Size
	shape Shape
	nodes map[string]*Node
	order []string
}

func newSurface(size Size, shape Shape) *Surface {
	return &Surface{
		Size:  size,
		shape: shape,
		nodes: make(map[string]*Node),
	}
}

func (s *Surface) node(seatNumber string) (*Node, bool) {
	n, ok := s.nodes[seatNumber]
	return n, ok
}

func (s *Surface) add(n *Node) {
	if _, exists := s.nodes[n.SeatNumber]; !exists {
		s.order = append(s.order, n.SeatNumber)
	}
	s.nodes[n.SeatNumber] = n
}

// fit grows the surface so a node at (x, y) stays visible.
func (s *Surface) fit(x, y int) {
	if w := x + SeatRadius + surfaceMargin; w > s.Width {
		s.Width = w
	}
	if h := y + SeatRadius + surfaceMargin; h > s.Height {
		s.Height = h
	}
}

var (
	ErrAlreadyMounted = errors.New("renderer already mounted")
	ErrNotMounted     = errors.New("renderer not mounted")
	ErrInvalidShape   = errors.New("invalid seat shape")
	ErrInvalidMode    = errors.New("invalid render mode")
)
