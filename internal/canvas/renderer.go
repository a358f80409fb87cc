package canvas

import (
	"context"

	"seatstudio/internal/layout"
	"seatstudio/pkg/logger"
)

// SelectionView answers whether a seat is in the attendee's current selection.
type SelectionView interface {
	IsSelected(seatNumber string) bool
}

// Renderer projects a layout onto a Surface and turns gestures into layout
// mutations. Every visual change goes through the layout first; nodes are
// re-derived from seats and never edited directly.
//
// A Renderer belongs to one session and is not safe for concurrent use.
type Renderer struct {
	layout  *layout.Layout
	pricing layout.Pricing
	mode    Mode
	surface *Surface

	selection SelectionView
	onSelect  func(seatNumber string) bool
}

type Option func(*Renderer)

// WithPricing sets the category defaults used when a click toggles a seat.
func WithPricing(p layout.Pricing) Option {
	return func(r *Renderer) { r.pricing = p }
}

// WithSelection wires the attendee variant. In read-only mode clicks on
// available seats are forwarded to onSelect.
func WithSelection(view SelectionView, onSelect func(seatNumber string) bool) Option {
	return func(r *Renderer) {
		r.selection = view
		r.onSelect = onSelect
	}
}

func New(l *layout.Layout, opts ...Option) *Renderer {
	r := &Renderer{layout: l, mode: ModeDesign}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Mode() Mode {
	return r.mode
}

func (r *Renderer) Mounted() bool {
	return r.surface != nil
}

// SetPricing updates the category defaults after a global pricing change.
func (r *Renderer) SetPricing(p layout.Pricing) {
	r.pricing = p
}

// Mount acquires a surface sized to container, falling back to the default
// size, and creates one node per seat.
func (r *Renderer) Mount(container Size, shape Shape, mode Mode) error {
	if r.surface != nil {
		return ErrAlreadyMounted
	}
	switch mode {
	case "":
		mode = ModeDesign
	case ModeDesign, ModeReadOnly:
	default:
		return ErrInvalidMode
	}
	r.mode = mode
	if shape == "" {
		shape = ShapeCircle
	}
	if !shape.IsValid() {
		return ErrInvalidShape
	}
	if container.Width <= 0 || container.Height <= 0 {
		container = Size{Width: DefaultWidth, Height: DefaultHeight}
	}

	r.surface = newSurface(container, shape)
	r.Sync()
	return nil
}

// Unmount releases the surface and every node reference. Gestures arriving
// afterwards are dropped.
func (r *Renderer) Unmount() {
	r.surface = nil
	r.selection = nil
	r.onSelect = nil
}

// Rebind points the renderer at a new layout, e.g. after regeneration, and
// re-projects every node.
func (r *Renderer) Rebind(l *layout.Layout) {
	r.layout = l
	if r.surface != nil {
		r.surface.nodes = make(map[string]*Node)
		r.surface.order = nil
		r.Sync()
	}
}

// Sync re-projects every seat. Used after bulk changes.
func (r *Renderer) Sync() {
	if r.surface == nil {
		return
	}
	for _, seat := range r.layout.Seats() {
		n, ok := r.surface.node(seat.SeatNumber)
		if !ok {
			n = &Node{SeatNumber: seat.SeatNumber, Shape: r.surface.shape}
			r.surface.add(n)
		}
		r.project(seat, n)
	}
}

// Refresh re-projects a single seat after an edit made outside a gesture.
func (r *Renderer) Refresh(seatNumber string) bool {
	n, seat, ok := r.lookup("refresh", seatNumber)
	if !ok {
		return false
	}
	r.project(seat, n)
	return true
}

func (r *Renderer) project(seat layout.Seat, n *Node) {
	n.X, n.Y = seat.X, seat.Y
	n.Label = seat.SeatNumber
	n.Fill = r.fillFor(seat)
	n.Clickable = r.mode == ModeDesign || !seat.IsBooked()
	n.Redraws++
	r.surface.fit(seat.X, seat.Y)
}

func (r *Renderer) fillFor(seat layout.Seat) string {
	if r.mode == ModeReadOnly {
		switch {
		case seat.IsBooked():
			return FillBooked
		case r.selection != nil && r.selection.IsSelected(seat.SeatNumber):
			return FillSelected
		}
	}
	if seat.IsVIP() {
		return FillVIP
	}
	return FillRegular
}

// lookup resolves a gesture target. Stale or unknown seat numbers and
// gestures on an unmounted renderer are dropped.
func (r *Renderer) lookup(gesture, seatNumber string) (*Node, layout.Seat, bool) {
	if r.surface == nil {
		logger.GetDefault().LogGestureDropped(context.Background(), gesture, seatNumber)
		return nil, layout.Seat{}, false
	}
	seat, ok := r.layout.Seat(seatNumber)
	if !ok {
		logger.GetDefault().LogGestureDropped(context.Background(), gesture, seatNumber)
		return nil, layout.Seat{}, false
	}
	n, ok := r.surface.node(seatNumber)
	if !ok {
		n = &Node{SeatNumber: seatNumber, Shape: r.surface.shape}
		r.surface.add(n)
	}
	return n, seat, true
}

// GESTURES

func (r *Renderer) OnDragStart(seatNumber string) bool {
	if r.mode != ModeDesign {
		return false
	}
	n, _, ok := r.lookup("drag_start", seatNumber)
	if !ok {
		return false
	}
	n.Dragging = true
	return true
}

// OnDragMove snaps the proposed position, writes it to the layout and
// redraws only the dragged node.
func (r *Renderer) OnDragMove(seatNumber string, x, y int) bool {
	if r.mode != ModeDesign {
		return false
	}
	n, _, ok := r.lookup("drag_move", seatNumber)
	if !ok {
		return false
	}
	seat, err := r.layout.SetSeatPosition(seatNumber, x, y)
	if err != nil {
		return false
	}
	n.Dragging = true
	r.project(seat, n)
	return true
}

func (r *Renderer) OnDragEnd(seatNumber string) bool {
	if r.mode != ModeDesign {
		return false
	}
	n, _, ok := r.lookup("drag_end", seatNumber)
	if !ok || !n.Dragging {
		return false
	}
	n.Dragging = false
	return true
}

// OnClick toggles the seat category in design mode. In read-only mode it
// forwards clicks on available seats to the selection callback.
func (r *Renderer) OnClick(seatNumber string) bool {
	n, seat, ok := r.lookup("click", seatNumber)
	if !ok {
		return false
	}

	if r.mode == ModeReadOnly {
		if seat.IsBooked() || r.onSelect == nil {
			return false
		}
		if !r.onSelect(seatNumber) {
			return false
		}
		if updated, ok := r.layout.Seat(seatNumber); ok {
			r.project(updated, n)
		}
		return true
	}

	updated, err := r.layout.ToggleSeatType(seatNumber, r.pricing)
	if err != nil {
		return false
	}
	r.project(updated, n)
	return true
}

// SCENE ACCESS

func (r *Renderer) Node(seatNumber string) (Node, bool) {
	if r.surface == nil {
		return Node{}, false
	}
	n, ok := r.surface.node(seatNumber)
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes in seat order.
func (r *Renderer) Nodes() []Node {
	if r.surface == nil {
		return nil
	}
	out := make([]Node, 0, len(r.surface.order))
	for _, seatNumber := range r.surface.order {
		if n, ok := r.surface.nodes[seatNumber]; ok {
			out = append(out, *n)
		}
	}
	return out
}

func (r *Renderer) SurfaceSize() (Size, bool) {
	if r.surface == nil {
		return Size{}, false
	}
	return r.surface.Size, true
}
