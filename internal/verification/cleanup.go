package verification

import (
	"context"
	"time"

	"github.com/ebotikaph/ebotika-api/internal/logging"
)

// Cleaner removes codes whose window has passed. Consume checks expiry on
// its own; cleanup only keeps the table from growing.
type Cleaner interface {
	CleanupExpired(ctx context.Context, now time.Time) error
}

// RunCleanup deletes expired codes on every tick until ctx is cancelled.
// Intended to run in its own goroutine for the life of the process.
func RunCleanup(ctx context.Context, cleaner Cleaner, interval time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cleaner.CleanupExpired(ctx, time.Now().UTC()); err != nil {
				logger.Warn("failed to clean up expired codes", "error", err)
			}
		}
	}
}
