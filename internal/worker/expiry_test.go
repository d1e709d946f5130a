package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"umbfest-ticketing/internal/logger"

	"github.com/stretchr/testify/assert"
)

type countingExpiry struct {
	calls int64
}

func (c *countingExpiry) ExpireStaleOrders(_ context.Context, _ time.Time) (int64, error) {
	atomic.AddInt64(&c.calls, 1)
	return 0, nil
}

func TestExpiryWorkerSweepsOnInterval(t *testing.T) {
	svc := &countingExpiry{}
	w := NewExpiryWorker(svc, 10*time.Millisecond, logger.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&svc.calls) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
