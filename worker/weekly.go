package worker

import (
	"context"
	"log/slog"
	"time"

	"contentpilot/internal/pipeline"
	"contentpilot/internal/runlock"
)

// WeeklyDigester sends the weekly digest once per week at the configured
// local weekday and hour.
type WeeklyDigester struct {
	Pipeline   *pipeline.Weekly
	Lock       *runlock.Lock // optional
	RunWeekday time.Weekday
	RunHour    int
}

func (w *WeeklyDigester) Start(ctx context.Context) error {
	for {
		next := nextWeeklyRun(time.Now(), w.RunWeekday, w.RunHour)
		slog.Info("weekly-digester: next run scheduled", "at", next.Format(time.RFC3339))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Until(next)):
			w.runOnce(ctx)
		}
	}
}

func (w *WeeklyDigester) runOnce(ctx context.Context) {
	if w.Lock != nil {
		ok, err := w.Lock.Acquire(ctx, "weekly")
		if err != nil {
			slog.Error("weekly-digester: lock error", "error", err)
			return
		}
		if !ok {
			slog.Info("weekly-digester: run already claimed, skipping")
			return
		}
	}
	report, err := w.Pipeline.Run(ctx)
	if err != nil {
		slog.Error("weekly-digester: run failed", "error", err, "report", report.String())
		if rerr := w.Lock.Release(ctx, "weekly"); rerr != nil {
			slog.Warn("weekly-digester: release lock failed", "error", rerr)
		}
		return
	}
	slog.Info("weekly-digester: run completed", "report", report.String())
}

// nextWeeklyRun returns the next occurrence of weekday/hour strictly after
// now.
func nextWeeklyRun(now time.Time, weekday time.Weekday, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
