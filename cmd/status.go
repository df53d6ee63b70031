package cmd

import (
	"fmt"

	summaryadapter "github.com/bnema/donation-portal/internal/adapters/render/summary"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the ledger summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			summary, err := app.service.GetSummary(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}

			rendered, err := app.summaryRenderer(summary, summaryadapter.RenderOptions{
				Now:  app.clock.Now(),
				Unit: app.cfg.AmountUnit,
			})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}
