package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newTokenCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage HTTP bearer tokens",
	}

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Mint a bearer token whose subject is the given address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			subject, err := addressFlag(cmd, "address")
			if err != nil {
				return err
			}
			ttl, err := cmd.Flags().GetDuration("ttl")
			if err != nil {
				return err
			}

			tokens, err := app.tokens(cmd.Context())
			if err != nil {
				return err
			}

			raw, expiresAt, err := tokens.Issue(subject, ttl)
			if err != nil {
				return err
			}

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), raw); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return err
		},
	}
	issue.Flags().String("address", "", "subject address")
	issue.Flags().Duration("ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = issue.MarkFlagRequired("address")

	cmd.AddCommand(issue)
	return cmd
}
