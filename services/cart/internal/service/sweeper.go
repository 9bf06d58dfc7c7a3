package service

import (
	"context"
	"time"

	"github.com/skatech/invcart/pkg/logging"
)

const DefaultSweepInterval = 5 * time.Minute

type SweepStats struct {
	ProcessedCarts int `json:"processed_carts"`
	ReleasedItems  int `json:"released_items"`
}

// ProcessExpiredCarts runs one sweep: every active cart past its expiry is
// transitioned through the shared expire-and-release routine. A second sweep
// over the same carts is a no-op because they no longer match the selection.
func (s *CartService) ProcessExpiredCarts(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	carts, err := s.Repo.FindExpiredCarts(ctx, time.Now().UTC())
	if err != nil {
		return stats, err
	}

	for i := range carts {
		if _, err := s.expireIfDue(ctx, &carts[i]); err != nil {
			logging.FromContext(ctx).Error("sweep_expire_error", "cart_id", carts[i].ID, "error", err)
			continue
		}
		stats.ProcessedCarts++
		stats.ReleasedItems += len(carts[i].Items)
	}

	return stats, nil
}

type Sweeper struct {
	Svc      *CartService
	Interval time.Duration
	Disabled bool
}

// Run blocks until ctx is done, sweeping on every tick.
func (sw *Sweeper) Run(ctx context.Context) {
	l := logging.FromContext(ctx)

	if sw.Disabled {
		l.Info("cart expiry sweeper disabled by configuration")
		return
	}

	interval := sw.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.Info("cart expiry sweeper started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			l.Info("cart expiry sweeper stopped")
			return
		case <-ticker.C:
			stats, err := sw.Svc.ProcessExpiredCarts(ctx)
			if err != nil {
				l.Error("sweep_failed", "error", err)
				continue
			}
			if stats.ProcessedCarts > 0 {
				l.Info("sweep_done", "processed_carts", stats.ProcessedCarts, "released_items", stats.ReleasedItems)
			}
		}
	}
}
