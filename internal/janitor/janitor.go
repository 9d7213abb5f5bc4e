// Package janitor periodically removes expired live sessions and host tokens.
package janitor

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes expired entries and reports how many were removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Target names a Purger for logging.
type Target struct {
	Name   string
	Purger Purger
}

// Janitor sweeps its targets on a fixed interval.
type Janitor struct {
	interval time.Duration
	targets  []Target
	logger   *slog.Logger
}

// New creates a janitor. A non-positive interval disables sweeping.
func New(interval time.Duration, logger *slog.Logger, targets ...Target) *Janitor {
	return &Janitor{interval: interval, targets: targets, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		return
	}
	j.Sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep purges every target once. Failures are logged and do not stop the
// remaining targets.
func (j *Janitor) Sweep(ctx context.Context) {
	for _, target := range j.targets {
		n, err := target.Purger.PurgeExpired(ctx)
		if j.logger == nil {
			continue
		}
		if err != nil {
			j.logger.Warn("purge failed", "target", target.Name, "error", err)
			continue
		}
		if n > 0 {
			j.logger.Info("purged expired entries", "target", target.Name, "count", n)
		}
	}
}
