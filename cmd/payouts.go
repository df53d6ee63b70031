package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPayoutsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payouts",
		Short: "List transfers recorded in the payout journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			receipts, err := app.journal.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), receipts)
			}
			if len(receipts) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no payouts recorded")
				return err
			}

			for _, r := range receipts {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d %s\n", r.ID, r.To, r.Amount, r.SentAt.UTC().Format(time.RFC3339)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}
