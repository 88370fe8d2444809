package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"contentpilot/internal/store"

	"github.com/spf13/cobra"
)

var socialCmd = &cobra.Command{
	Use:   "social",
	Short: "Work the social post queue",
}

var socialPendingLimit int

var socialListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show queued social posts that have not been posted yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		posts, err := st.PendingSocialPosts(ctx, socialPendingLimit)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
			return nil
		}
		for _, p := range posts {
			fmt.Fprintf(cmd.OutOrStdout(), "--- #%d (article %d, queued %s)\n%s\n\n",
				p.ID, p.ArticleID, p.CreatedAt.Format("2006-01-02"), p.Content)
		}
		return nil
	},
}

var socialDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a queued social post as posted",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return errors.New("requires <id>")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		if err := st.MarkSocialPosted(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked #%d as posted.\n", id)
		return nil
	},
}

func init() {
	socialListCmd.Flags().IntVar(&socialPendingLimit, "limit", 20, "maximum posts to show")
	socialCmd.AddCommand(socialListCmd, socialDoneCmd)
	rootCmd.AddCommand(socialCmd)
}
