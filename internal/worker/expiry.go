package worker

import (
	"context"
	"fmt"
	"time"

	"umbfest-ticketing/internal/logger"
)

type ExpiryService interface {
	ExpireStaleOrders(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryWorker periodically sweeps orders that sat unverified past the TTL.
// Each row transition is guarded by its status precondition, so overlapping
// sweeps are harmless.
type ExpiryWorker struct {
	svc      ExpiryService
	interval time.Duration
	logger   *logger.Logger
}

func NewExpiryWorker(svc ExpiryService, interval time.Duration, log *logger.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		svc:      svc,
		interval: interval,
		logger:   log,
	}
}

func (w *ExpiryWorker) Start(ctx context.Context) {
	w.logger.Info("WORKER", fmt.Sprintf("expiry sweeper started (every %s)", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("WORKER", "expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.svc.ExpireStaleOrders(ctx, time.Now()); err != nil {
				w.logger.Error("WORKER", fmt.Sprintf("expiry sweep failed: %v", err))
			}
		}
	}
}
