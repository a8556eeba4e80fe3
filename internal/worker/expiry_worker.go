// Package worker runs background jobs that keep booking state tidy.
package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// PendingExpirer cancels pending bookings that were never acted on.
type PendingExpirer interface {
	ExpirePending(ctx context.Context, grace time.Duration, limit int) (int, error)
}

type PendingExpiryWorker struct {
	bookings PendingExpirer
	interval time.Duration
	grace    time.Duration
	batch    int
}

func NewPendingExpiryWorker(bookings PendingExpirer, interval, grace time.Duration, batch int) *PendingExpiryWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &PendingExpiryWorker{bookings: bookings, interval: interval, grace: grace, batch: batch}
}

// Start sweeps once immediately, then every interval until ctx is done.
func (w *PendingExpiryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"interval": w.interval.String(),
		"grace":    w.grace.String(),
	}).Info("pending expiry worker started")

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			logrus.Info("pending expiry worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep drains stale bookings batch by batch.
func (w *PendingExpiryWorker) sweep(ctx context.Context) {
	total := 0
	for ctx.Err() == nil {
		n, err := w.bookings.ExpirePending(ctx, w.grace, w.batch)
		if err != nil {
			logrus.WithError(err).Error("expire pending bookings")
			break
		}
		total += n
		if n == 0 || (w.batch > 0 && n < w.batch) {
			break
		}
	}
	if total > 0 {
		logrus.WithField("expired", total).Info("stale pending bookings cancelled")
	}
}
