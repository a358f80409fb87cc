package selection

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"seatstudio/internal/canvas"
	"seatstudio/internal/layout"
	"seatstudio/internal/seating"
	"seatstudio/pkg/logger"
)

// SeatingClient is the part of the seating service the attendee flow uses.
type SeatingClient interface {
	GetLayout(ctx context.Context, eventID string) (string, error)
	Reserve(ctx context.Context, eventID string, seatNumbers []string) (*seating.ReserveOutcome, error)
	Confirm(ctx context.Context, eventID string, seatNumbers []string) (*seating.ConfirmResponse, error)
}

// Flow is one attendee's seat picker: a read-only layout, the selection on
// top of it and the reservation state machine
//
//	browsing -> reserving -> reserved -> paying -> confirmed
//	reserving -> failed -> browsing
//
// Network calls run without the lock held; their results are discarded if
// the flow was closed or reloaded in the meantime.
type Flow struct {
	mu sync.Mutex

	client SeatingClient
	loader *layout.Loader
	size   canvas.Size
	shape  canvas.Shape

	eventID   string
	pricing   layout.Pricing
	origin    layout.Origin
	layout    *layout.Layout
	renderer  *canvas.Renderer
	selection *Selection
	gen       int

	state       State
	reservation *Reservation
	failure     *ReservationFailure
	confirming  bool
	closed      bool
}

type FlowOption func(*Flow)

// WithCanvas sets the surface size and seat shape of the rendered picker.
func WithCanvas(size canvas.Size, shape canvas.Shape) FlowOption {
	return func(f *Flow) {
		f.size = size
		f.shape = shape
	}
}

func NewFlow(client SeatingClient, loader *layout.Loader, opts ...FlowOption) *Flow {
	f := &Flow{
		client: client,
		loader: loader,
		shape:  canvas.ShapeCircle,
		state:  StateBrowsing,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LoadReadOnlyLayout loads the event's layout for seat picking. Booked seats
// render booked and cannot be selected. Loading never fails on a missing or
// broken layout; the default grid is shown instead.
func (f *Flow) LoadReadOnlyLayout(ctx context.Context, eventID string, pricing layout.Pricing) (layout.LoadResult, error) {
	res := f.loader.LoadLayout(ctx, eventID, pricing)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return res, ErrFlowClosed
	}
	if f.state.Locked() {
		return res, ErrSelectionLocked
	}

	if f.renderer != nil {
		f.renderer.Unmount()
	}

	f.gen++
	f.eventID = eventID
	f.pricing = pricing
	f.origin = res.Origin
	f.layout = res.Layout
	f.selection = NewSelection(res.Layout)
	f.state = StateBrowsing
	f.reservation = nil
	f.failure = nil

	f.renderer = canvas.New(res.Layout,
		canvas.WithPricing(pricing),
		canvas.WithSelection(f.selection, f.toggleLocked),
	)
	if err := f.renderer.Mount(f.size, f.shape, canvas.ModeReadOnly); err != nil {
		return res, fmt.Errorf("failed to mount seat picker: %w", err)
	}
	return res, nil
}

// ToggleSelect adds or removes a seat. Booked and unknown seats, and any
// toggle while a reservation holds the selection, are ignored.
func (f *Flow) ToggleSelect(seatNumber string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.renderer == nil {
		return false
	}
	return f.renderer.OnClick(seatNumber)
}

// toggleLocked is the renderer's selection callback. f.mu is held.
func (f *Flow) toggleLocked(seatNumber string) bool {
	if f.state.Locked() {
		return false
	}
	seat, ok := f.layout.Seat(seatNumber)
	if !ok || seat.IsBooked() {
		return false
	}

	if f.state == StateFailed {
		f.state = StateBrowsing
		f.failure = nil
	}

	if f.selection.IsSelected(seatNumber) {
		f.selection.remove(seatNumber)
	} else {
		f.selection.add(seatNumber)
	}
	return true
}

// Reserve submits the selection to the seating service. Only an explicit
// success answer covering every selected seat moves the flow to reserved. Any failure clears the
// selection and marks the seats the service reported as taken as booked.
func (f *Flow) Reserve(ctx context.Context) (*Reservation, error) {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return nil, ErrFlowClosed
	case f.layout == nil:
		f.mu.Unlock()
		return nil, ErrNotLoaded
	case f.state == StateReserving:
		f.mu.Unlock()
		return nil, ErrReservationInFlight
	case f.state.Locked():
		f.mu.Unlock()
		return nil, ErrAlreadyReserved
	case f.selection.Len() == 0:
		f.mu.Unlock()
		return nil, ErrEmptySelection
	}

	eventID := f.eventID
	seats := f.selection.SeatNumbers()
	total := f.selection.Total()
	gen := f.gen
	f.state = StateReserving
	f.failure = nil
	f.mu.Unlock()

	outcome, err := f.client.Reserve(ctx, eventID, seats)
	failure := evaluateReservation(seats, outcome, err)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.gen != gen {
		return nil, ErrFlowClosed
	}

	if failure != nil {
		f.state = StateFailed
		f.failure = failure
		f.selection.clear()
		if failure.Reason == ReasonRejected {
			for _, seatNumber := range failure.Conflicts {
				// conflicts outside this layout are ignored
				_, _ = f.layout.SetSeatStatus(seatNumber, layout.StatusBooked)
			}
		}
		f.renderer.Sync()
		logger.GetDefault().LogReservationRejected(ctx, eventID, failure.Reason, failure.Conflicts)
		return nil, failure
	}

	reservation := &Reservation{
		ReservationID: outcome.Body.ReservationID,
		EventID:       eventID,
		SeatNumbers:   seats,
		Total:         total,
		ExpiresAt:     outcome.Body.ExpiresAt,
		ReservedAt:    time.Now().UTC(),
	}
	f.reservation = reservation
	f.state = StateReserved
	r := *reservation
	return &r, nil
}

// BeginPayment hands the reservation to the payment step. It succeeds once
// per reservation and only after the seating service confirmed the hold.
func (f *Flow) BeginPayment() (*PaymentHandoff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.closed:
		return nil, ErrFlowClosed
	case f.state == StatePaying || f.state == StateConfirmed:
		return nil, ErrPaymentAlreadyStarted
	case f.state != StateReserved || f.reservation == nil:
		return nil, ErrPaymentNotAllowed
	}

	f.state = StatePaying
	return &PaymentHandoff{
		EventID:       f.reservation.EventID,
		ReservationID: f.reservation.ReservationID,
		SeatNumbers:   append([]string(nil), f.reservation.SeatNumbers...),
		Amount:        f.reservation.Total,
	}, nil
}

// Confirm finalizes the reserved seats after payment.
func (f *Flow) Confirm(ctx context.Context) (*Reservation, error) {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return nil, ErrFlowClosed
	case f.confirming:
		f.mu.Unlock()
		return nil, ErrReservationInFlight
	case f.state != StatePaying:
		f.mu.Unlock()
		return nil, ErrConfirmNotAllowed
	}
	reservation := *f.reservation
	gen := f.gen
	f.confirming = true
	f.mu.Unlock()

	_, err := f.client.Confirm(ctx, reservation.EventID, reservation.SeatNumbers)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirming = false

	if f.closed || f.gen != gen {
		return nil, ErrFlowClosed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to confirm reservation: %w", err)
	}

	for _, seatNumber := range reservation.SeatNumbers {
		_, _ = f.layout.SetSeatStatus(seatNumber, layout.StatusBooked)
	}
	f.selection.clear()
	f.state = StateConfirmed
	f.renderer.Sync()

	logger.GetDefault().LogReservationConfirmed(ctx, reservation.EventID, reservation.SeatNumbers, reservation.Total)
	return &reservation, nil
}

// RefreshAvailability re-reads seat statuses from the seating service and
// drops seats that became booked from the selection. It returns the dropped
// seat numbers.
func (f *Flow) RefreshAvailability(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return nil, ErrFlowClosed
	case f.layout == nil:
		f.mu.Unlock()
		return nil, ErrNotLoaded
	case f.state.Locked():
		f.mu.Unlock()
		return nil, ErrSelectionLocked
	}
	eventID := f.eventID
	gen := f.gen
	f.mu.Unlock()

	raw, err := f.client.GetLayout(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh availability: %w", err)
	}
	fresh, err := layout.Deserialize(eventID, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh availability: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.gen != gen {
		return nil, ErrFlowClosed
	}
	if f.state.Locked() {
		return nil, ErrSelectionLocked
	}

	var booked []string
	for _, seat := range fresh.Seats() {
		local, ok := f.layout.Seat(seat.SeatNumber)
		if !ok || local.Status == seat.Status {
			continue
		}
		if _, err := f.layout.SetSeatStatus(seat.SeatNumber, seat.Status); err != nil {
			continue
		}
		if seat.IsBooked() {
			booked = append(booked, seat.SeatNumber)
		}
	}
	dropped := f.dropLocked(booked)
	f.renderer.Sync()
	return dropped, nil
}

// MarkSeatsTaken applies seats booked by someone else. Selected seats among
// them are dropped unless a reservation holds the selection.
func (f *Flow) MarkSeatsTaken(seatNumbers []string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.layout == nil {
		return nil
	}

	var booked []string
	for _, seatNumber := range seatNumbers {
		seat, ok := f.layout.Seat(seatNumber)
		if !ok || seat.IsBooked() {
			continue
		}
		if f.state.Locked() && f.selection.IsSelected(seatNumber) {
			continue
		}
		if _, err := f.layout.SetSeatStatus(seatNumber, layout.StatusBooked); err == nil {
			booked = append(booked, seatNumber)
		}
	}
	dropped := f.dropLocked(booked)
	f.renderer.Sync()
	return dropped
}

func (f *Flow) dropLocked(seatNumbers []string) []string {
	if f.state.Locked() {
		return nil
	}
	var dropped []string
	for _, seatNumber := range seatNumbers {
		if f.selection.IsSelected(seatNumber) {
			f.selection.remove(seatNumber)
			dropped = append(dropped, seatNumber)
		}
	}
	return dropped
}

// Close unmounts the picker. Late responses are discarded afterwards.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	if f.renderer != nil {
		f.renderer.Unmount()
	}
}

func (f *Flow) RenderSVG(w io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFlowClosed
	}
	if f.renderer == nil {
		return ErrNotLoaded
	}
	return f.renderer.RenderSVG(w)
}

// Snapshot is a consistent copy of the flow for display.
type Snapshot struct {
	EventID     string
	Origin      layout.Origin
	State       State
	Seats       []layout.Seat
	Selected    []string
	Total       float64
	Reservation *Reservation
	Failure     *ReservationFailure
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot{
		EventID: f.eventID,
		Origin:  f.origin,
		State:   f.state,
		Failure: f.failure,
	}
	if f.layout != nil {
		s.Seats = f.layout.Seats()
		s.Selected = f.selection.SeatNumbers()
		s.Total = f.selection.Total()
	}
	if f.reservation != nil {
		r := *f.reservation
		s.Reservation = &r
	}
	return s
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Total() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selection == nil {
		return 0
	}
	return f.selection.Total()
}

func (f *Flow) EventID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventID
}
