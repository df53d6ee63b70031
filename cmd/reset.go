package cmd

import (
	"fmt"

	"github.com/bnema/donation-portal/internal/application"
	"github.com/spf13/cobra"
)

func newResetCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Zero the public total (owner only); the lifetime total is kept",
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := addressFlag(cmd, "as")
			if err != nil {
				return err
			}

			if err := app.service.ResetDonations(cmd.Context(), application.ResetCommand{Caller: caller}); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "public total reset")
			return err
		},
	}

	cmd.Flags().String("as", "", "caller address; must be the owner")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}
