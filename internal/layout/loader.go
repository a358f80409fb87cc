package layout

import (
	"context"
	"errors"

	"seatstudio/internal/seating"
	"seatstudio/pkg/logger"
)

// Source fetches the opaque layout JSON for an event.
type Source interface {
	GetLayout(ctx context.Context, eventID string) (string, error)
}

type Origin string

const (
	OriginPersisted Origin = "persisted"
	OriginGenerated Origin = "generated"
)

// Fallback reasons reported when a default grid was generated.
const (
	ReasonNotFound    = "not_found"
	ReasonEmpty       = "empty"
	ReasonMalformed   = "malformed"
	ReasonUnreachable = "unreachable"
)

type LoadResult struct {
	Layout         *Layout
	Origin         Origin
	FallbackReason string
}

// Loader loads persisted layouts and falls back to a generated grid.
type Loader struct {
	source     Source
	reclassify Reclassifier
}

func NewLoader(source Source) *Loader {
	return &Loader{source: source}
}

// SetReclassifier sets the bulk reclassification policy on loaded layouts.
func (l *Loader) SetReclassifier(r Reclassifier) {
	l.reclassify = r
}

// LoadLayout never fails: a missing, empty, corrupt or unreachable layout
// yields the default grid for p.
func (l *Loader) LoadLayout(ctx context.Context, eventID string, p Pricing) LoadResult {
	raw, err := l.source.GetLayout(ctx, eventID)
	if err != nil {
		reason := ReasonUnreachable
		if errors.Is(err, seating.ErrLayoutNotFound) {
			reason = ReasonNotFound
		}
		return l.recoverLoad(ctx, eventID, p, reason, err)
	}

	layout, err := Deserialize(eventID, raw)
	if err != nil {
		return l.recoverLoad(ctx, eventID, p, ReasonMalformed, err)
	}
	if layout.Len() == 0 {
		return l.recoverLoad(ctx, eventID, p, ReasonEmpty, nil)
	}

	layout.Reclassify = l.reclassify
	logger.GetDefault().LogLayoutLoaded(ctx, eventID, layout.Len(), string(OriginPersisted))
	return LoadResult{Layout: layout, Origin: OriginPersisted}
}

// recoverLoad is the fail-open policy for the editing path. Reservation
// failures are handled by a separate, fail-closed policy.
func (l *Loader) recoverLoad(ctx context.Context, eventID string, p Pricing, reason string, cause error) LoadResult {
	switch reason {
	case ReasonNotFound, ReasonEmpty:
		logger.GetDefault().InfoWithContext(ctx, "No saved layout, generating default grid", map[string]interface{}{
			"event_id": eventID,
			"reason":   reason,
		})
	default:
		logger.GetDefault().LogLayoutFallback(ctx, eventID, reason, cause)
	}

	layout := GenerateDefaultGrid(eventID, p)
	layout.Reclassify = l.reclassify
	return LoadResult{Layout: layout, Origin: OriginGenerated, FallbackReason: reason}
}
