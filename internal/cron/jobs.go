package cron

import (
	"context"
	"log/slog"
	"time"
)

// DeliveredPurger is the subset of the message queue needed by the
// purge sweep. Defined here to keep the store import out of this
// package's API.
type DeliveredPurger interface {
	PurgeDelivered(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PurgeJob deletes delivered messages older than MaxAge. It only runs
// under the deferred purge policy; with immediate purging the drain
// transaction already removed them and the sweep finds nothing.
type PurgeJob struct {
	Queue        DeliveredPurger
	MaxAge       time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/15 * * * *"
}

var _ Job = (*PurgeJob)(nil)

// Name implements Job.
func (j *PurgeJob) Name() string { return "purge_delivered" }

// Schedule implements Job.
func (j *PurgeJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/15 * * * *"
}

// Run sweeps delivered messages past their retention age.
func (j *PurgeJob) Run(ctx context.Context) error {
	purged, err := j.Queue.PurgeDelivered(ctx, j.MaxAge)
	if err != nil {
		return err
	}
	if purged > 0 {
		j.Logger.Info("cron: purged delivered messages", "count", purged)
	}
	return nil
}

// VersionRefresher is the release cache surface the refresh job needs.
type VersionRefresher interface {
	Refresh(ctx context.Context) error
}

// VersionRefreshJob keeps the latest-release cache warm so polls never
// pay the fetch latency.
type VersionRefreshJob struct {
	Versions     VersionRefresher
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 * * * *"
}

var _ Job = (*VersionRefreshJob)(nil)

// Name implements Job.
func (j *VersionRefreshJob) Name() string { return "version_refresh" }

// Schedule implements Job.
func (j *VersionRefreshJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run refreshes the cache. A failed fetch is logged, not fatal; the
// stale value keeps serving.
func (j *VersionRefreshJob) Run(ctx context.Context) error {
	if err := j.Versions.Refresh(ctx); err != nil {
		j.Logger.Warn("cron: release check failed", "error", err)
	}
	return nil
}
