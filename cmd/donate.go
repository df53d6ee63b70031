package cmd

import (
	"fmt"

	"github.com/bnema/donation-portal/internal/application"
	"github.com/spf13/cobra"
)

func newDonateCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donate",
		Short: "Record a donation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := addressFlag(cmd, "from")
			if err != nil {
				return err
			}
			message, err := cmd.Flags().GetString("message")
			if err != nil {
				return err
			}
			amount, err := cmd.Flags().GetInt64("amount")
			if err != nil {
				return err
			}

			index, err := app.service.AddDonation(cmd.Context(), application.AddDonationCommand{
				Caller:  from,
				Message: message,
				Amount:  amount,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), index)
			return err
		},
	}

	cmd.Flags().String("from", "", "donor address")
	cmd.Flags().String("message", "", "message attached to the donation")
	cmd.Flags().Int64("amount", 0, "amount in minimal units")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
