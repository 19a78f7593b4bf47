package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rezkam/recur/internal/application/schedule"
)

// slogCronLogger routes cron's own messages through slog.
type slogCronLogger struct{}

func (slogCronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// dueKey identifies an occurrence by instant; zones reload per tick.
type dueKey struct {
	scheduleID string
	entityID   string
	at         int64
}

// watcher reports each due occurrence once while it stays pending.
type watcher struct {
	svc *schedule.Service
	out io.Writer

	mu sync.Mutex
	// reported holds only the occurrences pending at the last tick. A pending
	// occurrence never comes back once completed, so older keys are dropped.
	reported map[dueKey]struct{}
}

func newWatcher(svc *schedule.Service, out io.Writer) *watcher {
	return &watcher{svc: svc, out: out, reported: make(map[dueKey]struct{})}
}

// tick evaluates every schedule at now and prints what became due since the last tick.
func (w *watcher) tick(ctx context.Context, now time.Time) int {
	due, err := w.svc.DueNow(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "due check failed", slog.String("error", err.Error()))
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	pending := make(map[dueKey]struct{}, len(due))
	fresh := 0
	for _, d := range due {
		key := dueKey{d.ScheduleID, d.EntityID, d.At.UnixNano()}
		pending[key] = struct{}{}
		if _, ok := w.reported[key]; ok {
			continue
		}
		fresh++
		fmt.Fprintln(w.out, formatDue(d.ScheduleID, d.EntityID, d.Name, d.At))
		slog.InfoContext(ctx, "schedule due",
			slog.String("schedule_id", d.ScheduleID),
			slog.String("entity_id", d.EntityID),
			slog.Time("at", d.At))
	}
	w.reported = pending
	return fresh
}

func (a *app) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	spec := fs.String("schedule", a.cfg.CLI.WatchSchedule, "cron expression or descriptor (@every 5m)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := newWatcher(a.svc, a.out)
	c := cron.New(
		cron.WithParser(a.cfg.CLI.Parser()),
		cron.WithLocation(a.loc),
		cron.WithLogger(slogCronLogger{}),
		cron.WithChain(cron.Recover(slogCronLogger{}), cron.SkipIfStillRunning(slogCronLogger{})),
	)
	if _, err := c.AddFunc(*spec, func() { w.tick(ctx, a.now()) }); err != nil {
		return fmt.Errorf("invalid -schedule %q: %w", *spec, err)
	}

	slog.InfoContext(ctx, "watching schedules",
		slog.String("dir", a.cfg.CLI.SchedulesDir),
		slog.String("schedule", *spec))

	w.tick(ctx, a.now())
	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	return nil
}
