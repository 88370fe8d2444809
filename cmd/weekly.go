package cmd

import (
	"fmt"
	"log/slog"

	"contentpilot/internal/store"

	"github.com/spf13/cobra"
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Send the weekly digest once",
	Long:  "Collect the week's published articles, rank them, and send the digest to confirmed subscribers.",
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
			ok, err := lock.Acquire(ctx, "weekly")
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !ok {
				slog.Info("weekly run already claimed for today, exiting")
				return nil
			}
		}

		p, err := newWeeklyPipeline(cfg, st)
		if err != nil {
			return err
		}
		report, err := p.Run(ctx)
		if err != nil && lock != nil {
			// free the day's slot so the run can be retried
			if rerr := lock.Release(ctx, "weekly"); rerr != nil {
				slog.Warn("release run lock failed", "err", rerr)
			}
		}
		fmt.Println(report.String())
		return err
	},
}

func init() {
	rootCmd.AddCommand(weeklyCmd)
}
