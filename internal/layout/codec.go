package layout

import (
	"encoding/json"
	"fmt"
	"strings"
)

// document is the JSON stored under layoutJson by the seating service.
type document struct {
	Seats []Seat `json:"seats"`
}

// Serialize encodes the full seat collection as {"seats": [...]}.
func (l *Layout) Serialize() (string, error) {
	doc := document{Seats: l.Seats()}
	for i := range doc.Seats {
		if doc.Seats[i].Status == statusSelected {
			doc.Seats[i].Status = StatusAvailable
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode layout: %w", err)
	}
	return string(data), nil
}

// Deserialize parses a layout document. Duplicate seat numbers, unknown seat
// types and negative prices make the document malformed.
func Deserialize(eventID, raw string) (*Layout, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedLayout)
	}

	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLayout, err)
	}

	for i := range doc.Seats {
		if doc.Seats[i].Status == statusSelected {
			doc.Seats[i].Status = StatusAvailable
		}
	}

	l, err := New(eventID, doc.Seats)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLayout, err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLayout, err)
	}
	return l, nil
}
