package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/donation-portal/internal/application"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newPullCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Transfer donations not yet paid out to the owner (owner only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := addressFlag(cmd, "as")
			if err != nil {
				return err
			}
			reset, err := cmd.Flags().GetBool("reset")
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			quiet, err := cmd.Flags().GetBool("quiet")
			if err != nil {
				return err
			}

			pull := func(ctx context.Context) (application.Payout, error) {
				return app.service.PullDonations(ctx, application.PullCommand{Caller: caller, Reset: reset})
			}

			var payout application.Payout
			if quiet || asJSON {
				payout, err = pull(cmd.Context())
			} else {
				summary, summaryErr := app.service.GetSummary(cmd.Context())
				if summaryErr != nil {
					return summaryErr
				}
				payout, err = runPullSpinner(cmd.Context(), cmd.ErrOrStderr(), summary.Owner, summary.Withdrawable, pull)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"to":         payout.To.String(),
					"amount":     payout.Amount,
					"at":         payout.At.UTC().Format(time.RFC3339Nano),
					"receipt_id": payout.ReceiptID,
					"reset":      payout.Reset,
				})
			}

			line := fmt.Sprintf("pulled %s to %s", humanize.Comma(payout.Amount), payout.To)
			if payout.ReceiptID != "" {
				line += fmt.Sprintf(" (receipt %s)", payout.ReceiptID)
			}
			if payout.Reset {
				line += "; public total reset"
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), line)
			return err
		},
	}

	cmd.Flags().String("as", "", "caller address; must be the owner")
	cmd.Flags().Bool("reset", false, "zero the public total once the transfer succeeds")
	cmd.Flags().Bool("json", false, "print JSON")
	cmd.Flags().Bool("quiet", false, "do not show the progress spinner")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}
