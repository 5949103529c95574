package cron

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type fakePurger struct {
	gotAge time.Duration
	purged int64
	err    error
}

func (f *fakePurger) PurgeDelivered(_ context.Context, olderThan time.Duration) (int64, error) {
	f.gotAge = olderThan
	return f.purged, f.err
}

func TestPurgeJob_Run(t *testing.T) {
	t.Parallel()

	purger := &fakePurger{purged: 7}
	j := &PurgeJob{Queue: purger, MaxAge: 24 * time.Hour, Logger: slog.Default()}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if purger.gotAge != 24*time.Hour {
		t.Errorf("olderThan = %v, want 24h", purger.gotAge)
	}
}

func TestPurgeJob_PropagatesError(t *testing.T) {
	t.Parallel()

	purger := &fakePurger{err: errors.New("locked")}
	j := &PurgeJob{Queue: purger, MaxAge: time.Hour, Logger: slog.Default()}

	if err := j.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestPurgeJob_DefaultSchedule(t *testing.T) {
	t.Parallel()

	j := &PurgeJob{}
	if j.Schedule() != "*/15 * * * *" {
		t.Errorf("schedule = %q", j.Schedule())
	}
	j.ScheduleExpr = "0 3 * * *"
	if j.Schedule() != "0 3 * * *" {
		t.Errorf("schedule override = %q", j.Schedule())
	}
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.calls++
	return f.err
}

func TestVersionRefreshJob_Run(t *testing.T) {
	t.Parallel()

	r := &fakeRefresher{}
	j := &VersionRefreshJob{Versions: r, Logger: slog.Default()}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", r.calls)
	}
}

func TestVersionRefreshJob_SwallowsFetchError(t *testing.T) {
	t.Parallel()

	r := &fakeRefresher{err: errors.New("rate limited")}
	j := &VersionRefreshJob{Versions: r, Logger: slog.Default()}

	// A failed release check is logged, never fatal.
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("run should not fail: %v", err)
	}
}
