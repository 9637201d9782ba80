package store

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner is a store that must drop expired sessions itself.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// RunCleanup calls c.CleanupExpired every interval until ctx is done.
func RunCleanup(ctx context.Context, c Cleaner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.CleanupExpired(ctx)
			if err != nil {
				slog.Warn("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}
