package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newLifetimeCmd(app *app) *cobra.Command {
	return newTotalCmd("lifetime", "Print the sum of every donation ever made", app.service.GetLifetimeDonations)
}

func newPublicCmd(app *app) *cobra.Command {
	return newTotalCmd("public", "Print the public total available to pull", app.service.GetPublicDonations)
}

func newTotalCmd(use, short string, total func(context.Context) (int64, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := total(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
}
