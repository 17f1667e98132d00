package http

import (
	"context"
	"log/slog"
	"time"
)

// DefaultCleanupInterval is how often idle per-IP limiters are dropped.
const DefaultCleanupInterval = 5 * time.Minute

// ExpiringLimiter is a rate limiter whose idle entries can be dropped.
type ExpiringLimiter interface {
	CleanupExpired() int
	Size() int
}

// StartRateLimitCleanup periodically removes idle entries from the limiter so
// memory stays bounded by the number of recently active clients.
// It blocks until ctx is cancelled; run it in its own goroutine.
func StartRateLimitCleanup(ctx context.Context, limiter ExpiringLimiter, interval time.Duration, limiterType string) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("rate limit cleanup started",
		slog.String("limiter_type", limiterType),
		slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit cleanup stopped", slog.String("limiter_type", limiterType))
			return
		case <-ticker.C:
			removed := limiter.CleanupExpired()
			slog.Debug("rate limit cleanup completed",
				slog.String("limiter_type", limiterType),
				slog.Int("keys_removed", removed),
				slog.Int("active_keys", limiter.Size()))
		}
	}
}
