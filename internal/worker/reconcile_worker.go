package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/corpdesk/employee-portal/internal/service"
)

// ReconcileJob is the unit of work run by the reconcile worker.
type ReconcileJob interface {
	Run(ctx context.Context) (*service.ReconcileReport, error)
}

// StartReconcileWorker runs job every interval until ctx is cancelled. The returned channel
// is closed once the loop has exited. A zero interval disables the worker.
func StartReconcileWorker(ctx context.Context, job ReconcileJob, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if job == nil || interval <= 0 {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := job.Run(ctx); err != nil {
					logger.Error("reconciliation failed", zap.Error(err))
				}
			}
		}
	}()
	return done
}
