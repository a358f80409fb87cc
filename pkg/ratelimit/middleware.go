package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"seatstudio/internal/shared/utils/response"
	"seatstudio/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware applies the sliding window to every route. A redis failure lets
// the request through: losing the limiter must not take the editor down.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	log := logger.GetDefault()

	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		route := c.FullPath()
		limitType := getRateLimitType(route)

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			log.WarnContext(c.Request.Context(), "Rate limit check failed, allowing request",
				slog.String("route", route),
				slog.String("bucket", string(limitType)),
				slog.Any("error", err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

		if !result.Allowed {
			log.LogRateLimitExceeded(c.Request.Context(), clientIP, route)
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, map[string]interface{}{
					"bucket":     limitType,
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

// bookingCriticalActions hit the seating service's hold and confirm endpoints.
var bookingCriticalActions = []string{"/reserve", "/payment", "/confirm"}

// getRateLimitType maps a route template to its bucket.
func getRateLimitType(route string) RateLimitType {
	switch {
	case route == "/health", route == "/ping", route == "/status":
		return RateLimitTypeHealth
	case strings.HasPrefix(route, "/swagger"):
		return RateLimitTypePublic
	}

	for _, action := range bookingCriticalActions {
		if strings.HasSuffix(route, action) {
			return RateLimitTypeBookingCritical
		}
	}

	switch {
	// drags arrive in bursts
	case strings.Contains(route, "/designer/"):
		return RateLimitTypeDesigner
	case strings.Contains(route, "/selection/"):
		return RateLimitTypeSelection
	default:
		return RateLimitTypeDefault
	}
}

// getClientIP prefers the first valid proxy header, then the socket address.
func getClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}

	if realIP := c.GetHeader("X-Real-IP"); net.ParseIP(realIP) != nil {
		return realIP
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}
