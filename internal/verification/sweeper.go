package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SweepLease serializes sweep passes across replicas. A nil lease means this
// process always sweeps (single-replica deployments, tests).
type SweepLease interface {
	AcquireSweepLease(ctx context.Context, ownerID string, ttl time.Duration) (bool, error)
}

// RunSweeper drives the auto-complete sweep on a fixed interval until the
// context is cancelled. Run it on its own goroutine; it never blocks request
// handling.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration, lease SweepLease) {
	owner := uuid.New().String()
	s.Logger.Info("SWEEP", fmt.Sprintf("auto-complete sweeper running every %s", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("SWEEP", "auto-complete sweeper stopped")
			return
		case <-ticker.C:
			if lease != nil {
				held, err := lease.AcquireSweepLease(ctx, owner, interval)
				if err != nil {
					s.Logger.Error("SWEEP", fmt.Sprintf("sweep lease check failed: %v", err))
					continue
				}
				if !held {
					// Another replica owns this pass.
					continue
				}
			}

			start := time.Now()
			completed, err := s.Sweep(ctx)
			if err != nil {
				s.Logger.Error("SWEEP", fmt.Sprintf("auto-complete pass failed: %v", err))
				continue
			}
			if completed > 0 {
				s.Logger.LogSweep(completed, time.Since(start).Round(time.Millisecond))
			}
		}
	}
}
