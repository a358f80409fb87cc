package layout

import (
	"context"
	"time"

	"seatstudio/internal/shared/constants"
	"seatstudio/pkg/cache"
)

// CachedSource serves read-only layouts through the redis cache. Failed
// fetches are never cached, so a fallback grid is not pinned for the TTL.
type CachedSource struct {
	source Source
	cache  cache.Service
	ttl    time.Duration
}

func NewCachedSource(source Source, c cache.Service, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = constants.TTL_LAYOUT_READONLY
	}
	return &CachedSource{source: source, cache: c, ttl: ttl}
}

func (s *CachedSource) GetLayout(ctx context.Context, eventID string) (string, error) {
	if s.cache == nil {
		return s.source.GetLayout(ctx, eventID)
	}

	var raw string
	err := s.cache.GetOrSet(ctx, constants.BuildReadOnlyLayoutKey(eventID), s.ttl, func() (interface{}, error) {
		fetched, err := s.source.GetLayout(ctx, eventID)
		if err != nil {
			return nil, err
		}
		return fetched, nil
	}, &raw)
	if err != nil {
		return "", err
	}
	return raw, nil
}

// Invalidate drops the cached copy after a save.
func (s *CachedSource) Invalidate(ctx context.Context, eventID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, constants.BuildReadOnlyLayoutKey(eventID))
}
