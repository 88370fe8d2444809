package worker

import (
	"context"
	"log/slog"
	"time"

	"contentpilot/internal/pipeline"
	"contentpilot/internal/runlock"
)

// DailyPublisher runs the daily publishing pipeline once per day at the
// configured local hour.
type DailyPublisher struct {
	Pipeline *pipeline.Daily
	Lock     *runlock.Lock // optional; guards against concurrent instances
	RunHour  int           // 0-23 local time
}

func (w *DailyPublisher) Start(ctx context.Context) error {
	for {
		next := nextDailyRun(time.Now(), w.RunHour)
		slog.Info("daily-publisher: next run scheduled", "at", next.Format(time.RFC3339))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Until(next)):
			w.runOnce(ctx)
		}
	}
}

func (w *DailyPublisher) runOnce(ctx context.Context) {
	if w.Lock != nil {
		ok, err := w.Lock.Acquire(ctx, "daily")
		if err != nil {
			slog.Error("daily-publisher: lock error", "error", err)
			return
		}
		if !ok {
			slog.Info("daily-publisher: run already claimed, skipping")
			return
		}
	}
	report, err := w.Pipeline.Run(ctx)
	if err != nil {
		slog.Error("daily-publisher: run failed", "error", err, "report", report.String())
		if rerr := w.Lock.Release(ctx, "daily"); rerr != nil {
			slog.Warn("daily-publisher: release lock failed", "error", rerr)
		}
		return
	}
	slog.Info("daily-publisher: run completed", "report", report.String())
}

// nextDailyRun returns the next occurrence of hour on the wall clock,
// strictly after now.
func nextDailyRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
