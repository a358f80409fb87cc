package constants

import "time"

// Redis Cache Configuration
// This file centralizes all Redis keys and TTL values for seatstudio
// Pattern: seatstudio:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_REALTIME_SHORT = 30 * time.Second // 30 seconds - for live seat statuses
	TTL_LOCK_SHORT     = 30 * time.Second // 30 seconds - for save locks
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "seatstudio"
)

// ================== LAYOUTS MODULE ==================

const (
	// Read-only layouts served to the attendee seat picker
	CACHE_KEY_LAYOUT_READONLY = CACHE_PREFIX + ":layouts:readonly:" // + event-id

	// Held while a designer save is in flight
	LOCK_KEY_LAYOUT_SAVE = CACHE_PREFIX + ":layouts:saving:" // + event-id
)

const (
	TTL_LAYOUT_READONLY = TTL_REALTIME_SHORT
	TTL_LAYOUT_SAVE     = TTL_LOCK_SHORT
)

// ================== RATE LIMIT MODULE ==================

const (
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":ratelimit:" // + client:endpoint-type
)

// ================== HELPER FUNCTIONS ==================

func BuildReadOnlyLayoutKey(eventID string) string {
	return CACHE_KEY_LAYOUT_READONLY + eventID
}

func BuildLayoutSaveLockKey(eventID string) string {
	return LOCK_KEY_LAYOUT_SAVE + eventID
}
