package designer

import (
	"time"

	"seatstudio/internal/canvas"
	"seatstudio/internal/layout"
)

type SessionResponse struct {
	SessionID      string         `json:"session_id"`
	EventID        string         `json:"event_id"`
	Origin         string         `json:"origin"`
	FallbackReason string         `json:"fallback_reason,omitempty"`
	Pricing        layout.Pricing `json:"pricing"`
	Shape          canvas.Shape   `json:"shape"`
	Surface        canvas.Size    `json:"surface"`
	Seats          []layout.Seat  `json:"seats"`
	Nodes          []canvas.Node  `json:"nodes"`
	Dirty          bool           `json:"dirty"`
	Saving         bool           `json:"saving"`
	LastSavedAt    *time.Time     `json:"last_saved_at,omitempty"`
}

type GestureResponse struct {
	Applied bool         `json:"applied"`
	Seat    *layout.Seat `json:"seat,omitempty"`
	Node    *canvas.Node `json:"node,omitempty"`
}

type SaveResponse struct {
	EventID   string    `json:"event_id"`
	SeatCount int       `json:"seat_count"`
	SavedAt   time.Time `json:"saved_at"`
}

type SaveFailureResponse struct {
	EventID   string `json:"event_id"`
	DraftKept bool   `json:"draft_kept"`
	Cause     string `json:"cause"`
}

type DraftResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	SeatCount int       `json:"seat_count"`
	LastError string    `json:"last_error,omitempty"`
	Layout    string    `json:"layout_json"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *LayoutDraft) ToResponse() DraftResponse {
	return DraftResponse{
		ID:        d.ID.String(),
		EventID:   d.EventID,
		SeatCount: d.SeatCount,
		LastError: d.LastError,
		Layout:    d.LayoutJSON,
		UpdatedAt: d.UpdatedAt,
	}
}

func toSessionResponse(id string, s Snapshot) *SessionResponse {
	nodes := s.Nodes
	if nodes == nil {
		nodes = []canvas.Node{}
	}
	return &SessionResponse{
		SessionID:      id,
		EventID:        s.EventID,
		Origin:         string(s.Origin),
		FallbackReason: s.FallbackReason,
		Pricing:        s.Pricing,
		Shape:          s.Shape,
		Surface:        s.Surface,
		Seats:          s.Seats,
		Nodes:          nodes,
		Dirty:          s.Dirty,
		Saving:         s.Saving,
		LastSavedAt:    s.LastSavedAt,
	}
}

func toGestureResponse(r GestureResult) *GestureResponse {
	return &GestureResponse{Applied: r.Applied, Seat: r.Seat, Node: r.Node}
}
