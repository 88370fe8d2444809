package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contentpilot/internal/email"
	"contentpilot/internal/store"
	"contentpilot/internal/web"
	"contentpilot/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the subscription server and scheduled pipelines",
	Long:  "Serve the signup form and token links, and fire the daily and weekly pipelines at their configured hours.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		if err := st.InitSchema(ctx); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}

		mailer, err := email.NewMailer(cfg.Email, cfg.Site.Name, cfg.Site.BaseURL)
		if err != nil {
			return err
		}

		daily, err := newDailyPipeline(cfg, st)
		if err != nil {
			return err
		}
		weekly, err := newWeeklyPipeline(cfg, st)
		if err != nil {
			return err
		}

		lock, rdb := newRunLock(cfg)
		if rdb != nil {
			defer rdb.Close()
		}

		mgr := worker.NewManager(
			&worker.DailyPublisher{Pipeline: daily, Lock: lock, RunHour: cfg.Daily.RunHour},
			&worker.WeeklyDigester{
				Pipeline:   weekly,
				Lock:       lock,
				RunWeekday: time.Weekday(cfg.Weekly.RunWeekday),
				RunHour:    cfg.Weekly.RunHour,
			},
		)

		srv, err := web.NewServer(st, mailer, cfg.Site.Name)
		if err != nil {
			return err
		}
		httpSrv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			slog.Info("received signal, shutting down", "signal", s.String())
			cancel()
		}()

		errc := make(chan error, 2)
		go func() {
			slog.Info("http server listening", "addr", cfg.Server.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
		go func() {
			errc <- mgr.Start(ctx)
		}()

		select {
		case err := <-errc:
			cancel()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			_ = httpSrv.Shutdown(shutdownCtx)
			return err
		case <-ctx.Done():
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			return httpSrv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
