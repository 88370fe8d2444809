package cmd

import (
	"fmt"

	"contentpilot/internal/store"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database utilities",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		if err := st.InitSchema(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema ready.")
		return nil
	},
}

var dbPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check database connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		if err := st.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	},
}

var dbSendsCmd = &cobra.Command{
	Use:   "sends",
	Short: "Show the newsletter send log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		sends, err := st.RecentSends(ctx, 20)
		if err != nil {
			return err
		}
		for _, s := range sends {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %q  articles=%d recipients=%d\n",
				s.SentAt.Format("2006-01-02 15:04"), s.Subject, len(s.ArticleIDs), s.RecipientCount)
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbInitCmd, dbPingCmd, dbSendsCmd)
	rootCmd.AddCommand(dbCmd)
}
