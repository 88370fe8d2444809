package cmd

import (
	"fmt"
	"log/slog"

	"contentpilot/internal/store"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run the daily publishing pipeline once",
	Long:  "Fetch recent feed items, generate blog posts, publish them and queue social posts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		lock, rdb := newRunLock(cfg)
		if rdb != nil {
			defer rdb.Close()
		}
		if lock != nil {
			ok, err := lock.Acquire(ctx, "daily")
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !ok {
				slog.Info("daily run already claimed for today, exiting")
				return nil
			}
		}

		p, err := newDailyPipeline(cfg, st)
		if err != nil {
			return err
		}
		report, err := p.Run(ctx)
		if err != nil && lock != nil {
			// free the day's slot so the run can be retried
			if rerr := lock.Release(ctx, "daily"); rerr != nil {
				slog.Warn("release run lock failed", "err", rerr)
			}
		}
		fmt.Println(report.String())
		return err
	},
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}
