package designer

import (
	"fmt"
	"io"
	"sync"
	"time"

	"seatstudio/internal/canvas"
	"seatstudio/internal/layout"
)

// Session is one organizer's open editor. It owns its layout and renderer;
// gestures are applied one at a time in arrival order.
type Session struct {
	mu sync.Mutex

	eventID        string
	pricing        layout.Pricing
	origin         layout.Origin
	fallbackReason string
	layout         *layout.Layout
	renderer       *canvas.Renderer
	shape          canvas.Shape

	dirty       bool
	saving      bool
	lastSavedAt *time.Time
	closed      bool
}

func newSession(eventID string, p layout.Pricing, res layout.LoadResult, size canvas.Size, shape canvas.Shape) (*Session, error) {
	r := canvas.New(res.Layout, canvas.WithPricing(p))
	if err := r.Mount(size, shape, canvas.ModeDesign); err != nil {
		return nil, err
	}
	return &Session{
		eventID:        eventID,
		pricing:        p,
		origin:         res.Origin,
		fallbackReason: res.FallbackReason,
		layout:         res.Layout,
		renderer:       r,
		shape:          shape,
		dirty:          res.Origin != layout.OriginPersisted,
	}, nil
}

// Close unmounts the renderer. Gestures after Close are rejected.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.renderer.Unmount()
}

// with runs fn under the session lock unless the session is closed.
func (s *Session) with(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	return fn()
}

// GESTURES

// GestureResult reports whether a gesture changed anything and the seat's
// state afterwards.
type GestureResult struct {
	Applied bool
	Seat    *layout.Seat
	Node    *canvas.Node
}

func (s *Session) result(seatNumber string, applied bool) GestureResult {
	res := GestureResult{Applied: applied}
	if seat, ok := s.layout.Seat(seatNumber); ok {
		res.Seat = &seat
	}
	if n, ok := s.renderer.Node(seatNumber); ok {
		res.Node = &n
	}
	return res
}

func (s *Session) Drag(seatNumber string, x, y int, phase DragPhase) (GestureResult, error) {
	var res GestureResult
	err := s.with(func() error {
		var applied bool
		switch phase {
		case DragStart:
			applied = s.renderer.OnDragStart(seatNumber)
		case DragMove:
			applied = s.renderer.OnDragMove(seatNumber, x, y)
		case DragEnd:
			applied = s.renderer.OnDragEnd(seatNumber)
		default:
			return ErrInvalidPhase
		}
		if applied && phase == DragMove {
			s.dirty = true
		}
		res = s.result(seatNumber, applied)
		return nil
	})
	return res, err
}

func (s *Session) Click(seatNumber string) (GestureResult, error) {
	var res GestureResult
	err := s.with(func() error {
		applied := s.renderer.OnClick(seatNumber)
		if applied {
			s.dirty = true
		}
		res = s.result(seatNumber, applied)
		return nil
	})
	return res, err
}

// UpdatePricing applies new category inputs and reclassifies every seat.
func (s *Session) UpdatePricing(p layout.Pricing) error {
	return s.with(func() error {
		s.pricing = p
		s.layout.RecolorForCategoryChange(p)
		s.renderer.SetPricing(p)
		s.renderer.Sync()
		s.dirty = true
		return nil
	})
}

// SeatPatch holds optional per-seat edits.
type SeatPatch struct {
	SeatType *layout.SeatType
	Price    *float64
	Row      string
	Section  string
}

// PatchSeat applies a per-seat edit. A type change resets the price to the
// category default unless a price is given too.
func (s *Session) PatchSeat(seatNumber string, patch SeatPatch) (layout.Seat, error) {
	var seat layout.Seat
	err := s.with(func() error {
		current, ok := s.layout.Seat(seatNumber)
		if !ok {
			return fmt.Errorf("%w: %s", layout.ErrSeatNotFound, seatNumber)
		}

		if patch.SeatType != nil && *patch.SeatType != current.SeatType {
			if _, err := s.layout.SetSeatType(seatNumber, *patch.SeatType); err != nil {
				return err
			}
			if patch.Price == nil {
				if _, err := s.layout.SetSeatPrice(seatNumber, s.pricing.PriceFor(*patch.SeatType)); err != nil {
					return err
				}
			}
		}
		if patch.Price != nil {
			if _, err := s.layout.SetSeatPrice(seatNumber, *patch.Price); err != nil {
				return err
			}
		}
		updated, err := s.layout.SetSeatLabels(seatNumber, patch.Row, patch.Section)
		if err != nil {
			return err
		}

		s.renderer.Refresh(seatNumber)
		s.dirty = true
		seat = updated
		return nil
	})
	return seat, err
}

// Regenerate replaces the layout with a fresh default grid.
func (s *Session) Regenerate(p layout.Pricing, reclassify layout.Reclassifier) error {
	return s.with(func() error {
		fresh := layout.GenerateDefaultGrid(s.eventID, p)
		fresh.Reclassify = reclassify

		s.pricing = p
		s.layout = fresh
		s.origin = layout.OriginGenerated
		s.fallbackReason = ""
		s.renderer.SetPricing(p)
		s.renderer.Rebind(fresh)
		s.dirty = true
		return nil
	})
}

// beginSave serializes the layout and marks the session as saving.
func (s *Session) beginSave() (string, int, error) {
	var (
		raw   string
		seats int
	)
	err := s.with(func() error {
		if s.saving {
			return ErrSaveInProgress
		}
		if err := s.layout.Validate(); err != nil {
			return err
		}
		encoded, err := s.layout.Serialize()
		if err != nil {
			return err
		}
		raw, seats = encoded, s.layout.Len()
		s.saving = true
		return nil
	})
	return raw, seats, err
}

func (s *Session) endSave(savedJSON string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saving = false
	if !ok || s.closed {
		return
	}
	// edits made while the save was in flight keep the session dirty
	if current, err := s.layout.Serialize(); err == nil && current == savedJSON {
		s.dirty = false
	}
	now := time.Now().UTC()
	s.lastSavedAt = &now
	if s.origin != layout.OriginPersisted {
		s.origin = layout.OriginPersisted
		s.fallbackReason = ""
	}
}

func (s *Session) RenderSVG(w io.Writer) error {
	return s.with(func() error {
		return s.renderer.RenderSVG(w)
	})
}

// Snapshot is a consistent copy of the session for display.
type Snapshot struct {
	EventID        string
	Origin         layout.Origin
	FallbackReason string
	Pricing        layout.Pricing
	Shape          canvas.Shape
	Surface        canvas.Size
	Seats          []layout.Seat
	Nodes          []canvas.Node
	Dirty          bool
	Saving         bool
	LastSavedAt    *time.Time
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	size, _ := s.renderer.SurfaceSize()
	return Snapshot{
		EventID:        s.eventID,
		Origin:         s.origin,
		FallbackReason: s.fallbackReason,
		Pricing:        s.pricing,
		Shape:          s.shape,
		Surface:        size,
		Seats:          s.layout.Seats(),
		Nodes:          s.renderer.Nodes(),
		Dirty:          s.dirty,
		Saving:         s.saving,
		LastSavedAt:    s.lastSavedAt,
	}
}

func (s *Session) EventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventID
}
