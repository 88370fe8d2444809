package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"contentpilot/internal/store"

	"github.com/spf13/cobra"
)

var subscriberCmd = &cobra.Command{
	Use:   "subscriber",
	Short: "Manage newsletter subscribers",
}

var subscriberAddCmd = &cobra.Command{
	Use:   "add <email> [name]",
	Short: "Add a subscriber (pre-confirmed, no opt-in email)",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return errors.New("requires <email>")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		res, err := st.Subscribe(ctx, args[0], name)
		if err != nil {
			return err
		}
		// Operator-added addresses skip double opt-in.
		if !res.Subscriber.Confirmed {
			if _, err := st.Confirm(ctx, res.Subscriber.ConfirmationToken); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Subscribed %s (id %d)\n", res.Subscriber.Email, res.Subscriber.ID)
		return nil
	},
}

var subscriberListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active confirmed subscribers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		subs, err := st.ListActive(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tSUBSCRIBED")
		for _, s := range subs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Email, s.Name, s.SubscribedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

func init() {
	subscriberCmd.AddCommand(subscriberAddCmd, subscriberListCmd)
	rootCmd.AddCommand(subscriberCmd)
}
