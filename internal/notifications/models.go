package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a seating domain event.
type EventType string

const (
	EventLayoutSaved         EventType = "LAYOUT_SAVED"
	EventSeatsReserved       EventType = "SEATS_RESERVED"
	EventReservationRejected EventType = "RESERVATION_REJECTED"
	EventSeatsConfirmed      EventType = "SEATS_CONFIRMED"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventLayoutSaved, EventSeatsReserved, EventReservationRejected, EventSeatsConfirmed:
		return true
	}
	return false
}

// DomainEvent is the message published after a layout save or a reservation
// step. Consumers key on EventID.
type DomainEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          EventType `json:"type"`
	EventID       string    `json:"event_id"`
	SessionID     string    `json:"session_id,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty"`
	SeatNumbers   []string  `json:"seat_numbers,omitempty"`
	SeatCount     int       `json:"seat_count,omitempty"`
	TotalPrice    float64   `json:"total_price,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Conflicts     []string  `json:"conflicts,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewDomainEvent(eventType EventType, eventID string) *DomainEvent {
	return &DomainEvent{
		ID:         uuid.New(),
		Type:       eventType,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
	}
}

// PartitionKey keeps every event of one show on the same partition.
func (e *DomainEvent) PartitionKey() string {
	return e.EventID
}

// TakesSeats reports whether the event removes seats from sale.
func (e *DomainEvent) TakesSeats() bool {
	return (e.Type == EventSeatsReserved || e.Type == EventSeatsConfirmed) && len(e.SeatNumbers) > 0
}

func (e *DomainEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (*DomainEvent, error) {
	var e DomainEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
