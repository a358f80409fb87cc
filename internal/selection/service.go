package selection

import (
	"context"
	"errors"
	"io"
	"time"

	"seatstudio/internal/canvas"
	"seatstudio/internal/layout"
	"seatstudio/internal/notifications"
	"seatstudio/internal/shared/session"
	"seatstudio/pkg/logger"
)

var ErrSessionNotFound = errors.New("selection session not found")

// Service manages attendee seat-picker sessions.
type Service interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionResponse, error)
	GetSession(ctx context.Context, id string) (*SessionResponse, error)
	RenderSVG(ctx context.Context, id string, w io.Writer) error
	ToggleSeat(ctx context.Context, id string, req ToggleSeatRequest) (*ToggleResponse, error)
	RefreshAvailability(ctx context.Context, id string) (*RefreshResponse, error)
	Reserve(ctx context.Context, id string) (*SessionResponse, error)
	BeginPayment(ctx context.Context, id string) (*PaymentHandoff, error)
	Confirm(ctx context.Context, id string) (*SessionResponse, error)
	CloseSession(ctx context.Context, id string) error

	// HandleDomainEvent applies seats taken through other sessions.
	HandleDomainEvent(ctx context.Context, event *notifications.DomainEvent) error

	// RunReaper expires idle sessions until ctx is done.
	RunReaper(ctx context.Context, interval time.Duration)
	Shutdown()
}

type service struct {
	client    SeatingClient
	loader    *layout.Loader
	publisher notifications.Publisher
	sessions  *session.Registry[*Flow]
}

// NewService wires the attendee flow. source serves the initial read-only
// layout and may be cached; availability refreshes always go to client.
func NewService(client SeatingClient, source layout.Source, publisher notifications.Publisher, ttl time.Duration) Service {
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	return &service{
		client:    client,
		loader:    layout.NewLoader(source),
		publisher: publisher,
		sessions:  session.NewRegistry[*Flow]("selection", ttl),
	}
}

func (s *service) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionResponse, error) {
	shape := canvas.Shape(req.Shape)
	if shape == "" {
		shape = canvas.ShapeCircle
	}

	flow := NewFlow(s.client, s.loader, WithCanvas(canvas.Size{Width: req.Width, Height: req.Height}, shape))
	res, err := flow.LoadReadOnlyLayout(ctx, req.EventID, req.Pricing())
	if err != nil {
		flow.Close()
		return nil, err
	}

	id := s.sessions.Add(flow)
	resp := toSessionResponse(id, flow.Snapshot())
	resp.FallbackReason = res.FallbackReason
	return resp, nil
}

func (s *service) flow(id string) (*Flow, error) {
	flow, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return flow, nil
}

func (s *service) GetSession(ctx context.Context, id string) (*SessionResponse, error) {
	flow, err := s.flow(id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(id, flow.Snapshot()), nil
}

func (s *service) RenderSVG(ctx context.Context, id string, w io.Writer) error {
	flow, err := s.flow(id)
	if err != nil {
		return err
	}
	return flow.RenderSVG(w)
}

func (s *service) ToggleSeat(ctx context.Context, id string, req ToggleSeatRequest) (*ToggleResponse, error) {
	flow, err := s.flow(id)
	if err != nil {
		return nil, err
	}

	applied := flow.ToggleSelect(req.SeatNumber)
	snap := flow.Snapshot()
	selected := snap.Selected
	if selected == nil {
		selected = []string{}
	}
	return &ToggleResponse{
		Applied:       applied,
		State:         snap.State,
		SelectedSeats: selected,
		TotalPrice:    snap.Total,
	}, nil
}

func (s *service) RefreshAvailability(ctx context.Context, id string) (*RefreshResponse, error) {
	flow, err := s.flow(id)
	if err != nil {
		return nil, err
	}

	dropped, err := flow.RefreshAvailability(ctx)
	if err != nil {
		return nil, err
	}
	if dropped == nil {
		dropped = []string{}
	}
	return &RefreshResponse{
		DroppedSeats: dropped,
		Session:      toSessionResponse(id, flow.Snapshot()),
	}, nil
}

func (s *service) Reserve(ctx context.Context, id string) (*SessionResponse, error) {
	flow, err := s.flow(id)
	if err != nil {
		return nil, err
	}

	reservation, err := flow.Reserve(ctx)
	if err != nil {
		var failure *ReservationFailure
		if errors.As(err, &failure) {
			event := notifications.NewDomainEvent(notifications.EventReservationRejected, flow.EventID())
			event.SessionID = id
			event.Reason = failure.Reason
			event.Conflicts = failure.Conflicts
			s.publish(ctx, event)
		}
		return nil, err
	}

	event := notifications.NewDomainEvent(notifications.EventSeatsReserved, reservation.EventID)
	event.SessionID = id
	event.ReservationID = reservation.ReservationID
	event.SeatNumbers = reservation.SeatNumbers
	event.SeatCount = len(reservation.SeatNumbers)
	event.TotalPrice = reservation.Total
	s.publish(ctx, event)

	return toSessionResponse(id, flow.Snapshot()), nil
}

func (s *service) BeginPayment(ctx context.Context, id string) (*PaymentHandoff, error) {
	flow, err := s.flow(id)
	if err != nil {
		return nil, err
	}
	return flow.BeginPayment()
}

func (s *service) Confirm(ctx context.Context, id string) (*SessionResponse, error) {
	flow, err := s.flow(id)
	if err != nil {
		return nil, err
	}

	reservation, err := flow.Confirm(ctx)
	if err != nil {
		return nil, err
	}

	event := notifications.NewDomainEvent(notifications.EventSeatsConfirmed, reservation.EventID)
	event.SessionID = id
	event.ReservationID = reservation.ReservationID
	event.SeatNumbers = reservation.SeatNumbers
	event.SeatCount = len(reservation.SeatNumbers)
	event.TotalPrice = reservation.Total
	s.publish(ctx, event)

	return toSessionResponse(id, flow.Snapshot()), nil
}

func (s *service) CloseSession(ctx context.Context, id string) error {
	if !s.sessions.Remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

func (s *service) HandleDomainEvent(ctx context.Context, event *notifications.DomainEvent) error {
	if !event.TakesSeats() {
		return nil
	}

	s.sessions.Each(func(id string, flow *Flow) {
		if id == event.SessionID || flow.EventID() != event.EventID {
			return
		}
		if dropped := flow.MarkSeatsTaken(event.SeatNumbers); len(dropped) > 0 {
			logger.GetDefault().InfoWithContext(ctx, "Dropped seats taken by another attendee", map[string]interface{}{
				"session_id": id,
				"event_id":   event.EventID,
				"seats":      dropped,
			})
		}
	})
	return nil
}

// publish never fails the request; broker errors are logged.
func (s *service) publish(ctx context.Context, event *notifications.DomainEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "Failed to publish domain event", err, map[string]interface{}{
			"type":     event.Type,
			"event_id": event.EventID,
		})
	}
}

func (s *service) RunReaper(ctx context.Context, interval time.Duration) {
	s.sessions.Run(ctx, interval)
}

func (s *service) Shutdown() {
	s.sessions.CloseAll()
}
