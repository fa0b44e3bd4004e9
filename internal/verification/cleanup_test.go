package verification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ebotikaph/ebotika-api/internal/logging"
)

type countingCleaner struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCleaner) CleanupExpired(_ context.Context, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

func (c *countingCleaner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestRunCleanupTicksUntilCancelled(t *testing.T) {
	cleaner := &countingCleaner{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunCleanup(ctx, cleaner, 10*time.Millisecond, logging.NewLogger(true))
		close(done)
	}()

	assert.Eventually(t, func() bool { return cleaner.count() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup loop did not stop after cancellation")
	}
}
