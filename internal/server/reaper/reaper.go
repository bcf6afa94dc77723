// Package reaper periodically deletes expired rows from the token ledger.
package reaper

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
)

const purgeTimeout = 30 * time.Second

// Purger deletes tokens that expired at or before the given instant.
type Purger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type Reaper struct {
	purger   Purger
	interval time.Duration
	logger   logging.Logger
	metrics  metrics.Recorder
	now      func() time.Time
}

func New(p Purger, interval time.Duration, l logging.Logger, rec metrics.Recorder) *Reaper {
	return &Reaper{
		purger:   p,
		interval: interval,
		logger:   l.With("module", "reaper"),
		metrics:  rec,
		now:      time.Now,
	}
}

// Run purges once per interval until ctx is done. A non-positive interval
// returns immediately.
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info(ctx, "Token reaper disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.PurgeOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// PurgeOnce runs a single purge pass and returns the number of rows removed.
func (r *Reaper) PurgeOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	n, err := r.purger.PurgeExpired(ctx, r.now())
	if err != nil {
		r.logger.Error(ctx, "token purge failed", "error", err)
		return 0
	}

	r.metrics.RecordTokensPurged(n)
	if n > 0 {
		r.logger.Info(ctx, "expired tokens purged", "count", n)
	}
	return n
}
