package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCooldownCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cooldown",
		Short: "Show how long a donor must wait before donating again",
		RunE: func(cmd *cobra.Command, _ []string) error {
			donor, err := addressFlag(cmd, "address")
			if err != nil {
				return err
			}

			remaining, err := app.service.CooldownRemaining(cmd.Context(), donor)
			if err != nil {
				return err
			}

			if remaining == 0 {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s may donate now\n", donor)
				return err
			}

			until := app.clock.Now().Add(remaining).UTC().Format(time.RFC3339)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s must wait %s (until %s)\n", donor, remaining.Round(time.Second), until)
			return err
		},
	}

	cmd.Flags().String("address", "", "donor address")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}
