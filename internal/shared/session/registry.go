package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"seatstudio/pkg/logger"
)

// Closer is implemented by anything a registry can expire.
type Closer interface {
	Close()
}

// Registry holds live sessions keyed by uuid. Every Get pushes a session's
// expiry back by the TTL; expired sessions are closed when they are reaped.
type Registry[T Closer] struct {
	name  string
	items *ttlcache.Cache[string, T]

	// serializes explicit removal so a session is closed once
	mu sync.Mutex
}

// NewRegistry builds a registry whose sessions expire after ttl of
// inactivity. A ttl of zero keeps sessions until they are removed.
func NewRegistry[T Closer](name string, ttl time.Duration) *Registry[T] {
	r := &Registry[T]{
		name:  name,
		items: ttlcache.New[string, T](ttlcache.WithTTL[string, T](ttl)),
	}

	// explicit deletes close the session themselves
	r.items.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, T]) {
		if reason == ttlcache.EvictionReasonExpired {
			item.Value().Close()
		}
	})
	return r
}

// Add stores value under a fresh id.
func (r *Registry[T]) Add(value T) string {
	id := uuid.NewString()
	r.items.Set(id, value, ttlcache.DefaultTTL)
	return id
}

// Get returns a live session and marks it as recently used.
func (r *Registry[T]) Get(id string) (T, bool) {
	var zero T
	if _, err := uuid.Parse(id); err != nil {
		return zero, false
	}

	item := r.items.Get(id)
	if item == nil {
		return zero, false
	}
	return item.Value(), true
}

// Remove closes and forgets a session.
func (r *Registry[T]) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	item := r.items.Get(id, ttlcache.WithDisableTouchOnHit[string, T]())
	if item == nil {
		return false
	}
	r.items.Delete(id)
	item.Value().Close()
	return true
}

// Each calls fn for every live session.
func (r *Registry[T]) Each(fn func(id string, value T)) {
	for id, item := range r.items.Items() {
		if !item.IsExpired() {
			fn(id, item.Value())
		}
	}
}

func (r *Registry[T]) Len() int {
	return r.items.Len()
}

// Reap drops expired sessions and returns how many there were. Closing
// them runs on the eviction callback.
func (r *Registry[T]) Reap() int {
	expired := 0
	for _, item := range r.items.Items() {
		if item.IsExpired() {
			expired++
		}
	}
	r.items.DeleteExpired()
	return expired
}

// Run reaps on every tick until ctx is done.
func (r *Registry[T]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Reap(); n > 0 {
				logger.GetDefault().Info("Expired idle sessions", "registry", r.name, "count", n)
			}
		}
	}
}

// CloseAll closes every session, used on shutdown.
func (r *Registry[T]) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.items.Items()
	r.items.DeleteAll()
	for _, item := range items {
		item.Value().Close()
	}
}
