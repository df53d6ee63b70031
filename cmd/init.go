package cmd

import (
	"fmt"

	"github.com/bnema/donation-portal/internal/application"
	"github.com/spf13/cobra"
)

func newInitCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the ledger and fix its owner and cooldown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := addressFlag(cmd, "owner")
			if err != nil {
				return err
			}
			cooldown, err := cmd.Flags().GetDuration("cooldown")
			if err != nil {
				return err
			}

			summary, err := app.service.Init(cmd.Context(), application.InitCommand{Owner: owner, Cooldown: cooldown})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "initialized ledger owned by %s (cooldown %s)\n", summary.Owner, summary.Cooldown)
			return err
		},
	}

	cmd.Flags().String("owner", "", "owner address allowed to pull and reset")
	cmd.Flags().Duration("cooldown", app.cfg.Cooldown, "minimum time between two donations from the same donor")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}
