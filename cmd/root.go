package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return execute(newRootCmd())
}

// execute runs root and then releases what wiring opened, even when the
// command fails and cobra skips its post-run hooks.
func execute(root *cobra.Command, cleanup func()) error {
	defer cleanup()
	return root.Execute()
}

func newRootCmd() (*cobra.Command, func()) {
	app, err := wireApp()
	if err != nil {
		return buildRootCmd(nil, err), func() {}
	}
	return buildRootCmd(app, nil), app.Close
}

func buildRootCmd(app *app, wireErr error) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dp",
		Short:         "Donation Portal (dp): a cooldown-guarded donation ledger",
		Long:          "dp records donations with messages, enforces a per-donor cooldown, tracks the public bucket and lifetime totals, and lets the owner pull or reset the bucket. `dp serve` exposes the same ledger over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newVersionCmd())

	if wireErr != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return wireErr
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newInitCmd(app),
		newDonateCmd(app),
		newDonationCmd(app),
		newPullCmd(app),
		newResetCmd(app),
		newLifetimeCmd(app),
		newPublicCmd(app),
		newStatusCmd(app),
		newCooldownCmd(app),
		newTokenCmd(app),
		newPayoutsCmd(app),
		newServeCmd(app),
	)

	return rootCmd
}
