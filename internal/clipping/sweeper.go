package clipping

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kiranshivaraju/clipper/internal/cache"
	"github.com/kiranshivaraju/clipper/internal/registry"
	"github.com/kiranshivaraju/clipper/internal/workspace"
)

const DefaultTTL = time.Hour

// Sweeper deletes terminal jobs older than a TTL together with their
// artifact directories. Active jobs are never touched, whatever their age.
type Sweeper struct {
	registry *registry.Registry
	layout   workspace.Layout
	cache    cache.Cache
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

// NewSweeper creates a Sweeper. A non-positive ttl selects DefaultTTL.
func NewSweeper(reg *registry.Registry, layout workspace.Layout, ca cache.Cache, ttl time.Duration, logger *slog.Logger) *Sweeper {
	if ca == nil {
		ca = cache.NopCache{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		registry: reg,
		layout:   layout,
		cache:    ca,
		ttl:      ttl,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Sweep removes every expired terminal job and returns how many were removed.
// A job whose directory cannot be deleted stays registered for the next pass.
func (sw *Sweeper) Sweep(ctx context.Context) int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	removed := 0
	for _, job := range sw.registry.List() {
		if !job.IsTerminal() || now.Sub(job.CreatedAt) <= sw.ttl {
			continue
		}

		if err := sw.layout.Remove(job.ID); err != nil {
			sw.logger.Warn("removing job artifacts", "job_id", job.ID, "error", err)
			continue
		}
		if err := sw.registry.Delete(job.ID); err != nil {
			if !errors.Is(err, registry.ErrNotFound) {
				sw.logger.Warn("removing job record", "job_id", job.ID, "error", err)
			}
			continue
		}
		if err := sw.cache.DeleteJob(ctx, job.ID); err != nil {
			sw.logger.Warn("removing job snapshot", "job_id", job.ID, "error", err)
		}
		removed++
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (sw *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sw.Sweep(ctx); n > 0 {
				sw.logger.Info("swept expired jobs", "count", n)
			}
		}
	}
}
