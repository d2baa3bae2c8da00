// Package worker runs background maintenance jobs.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/campusconnect/internal/infra/retry"
	"github.com/vietddude/campusconnect/internal/infra/storage"
	"github.com/vietddude/campusconnect/internal/metrics"
)

// Pruner deletes read notifications older than the retention period.
type Pruner struct {
	retention time.Duration
	notifs    storage.NotificationRepository
	policy    retry.Policy
	now       func() time.Time
}

// NewPruner creates a new Pruner worker. A non-positive retention disables it.
func NewPruner(retention time.Duration, notifs storage.NotificationRepository) *Pruner {
	return &Pruner{
		retention: retention,
		notifs:    notifs,
		policy:    retry.DefaultPolicy,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Interval is 10% of the retention period, clamped to [1m, 1h].
func (p *Pruner) Interval() time.Duration {
	interval := min(p.retention/10, 1*time.Hour)
	return max(interval, 1*time.Minute)
}

// Start runs the pruner loop until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	// Initial prune
	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune runs one pass and returns the number of deleted notifications.
func (p *Pruner) Prune(ctx context.Context) int64 {
	threshold := p.now().Add(-p.retention)

	n, err := retry.DoWithPolicy(ctx, p.policy, func(ctx context.Context, _ bool) (int64, error) {
		return p.notifs.DeleteReadBefore(ctx, threshold)
	}, 3, "pruneNotifications")
	if err != nil {
		slog.Error("Failed to prune notifications", "before", threshold, "error", err)
		return 0
	}
	if n > 0 {
		metrics.NotificationsPrunedTotal.Add(float64(n))
		slog.Info("Pruned read notifications", "count", n, "before", threshold)
	}
	return n
}
