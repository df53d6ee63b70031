package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newDonationCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donation",
		Short: "Inspect recorded donations",
	}

	cmd.AddCommand(
		newDonationGetCmd(app),
		newDonationListCmd(app),
		newDonationCountCmd(app),
		newDonationTopCmd(app),
	)

	return cmd
}

func newDonationGetCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get INDEX",
		Short: "Show one donation by its zero-based index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index %q is not an integer", args[0])
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			donation, err := app.service.GetDonation(cmd.Context(), index)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), indexedDonationOutput(index, donation))
			}
			return writeDonationLine(cmd.OutOrStdout(), index, donation)
		},
	}

	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func newDonationListCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every donation in insertion order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			donations, err := app.service.GetAllDonations(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				out := make([]donationOutput, 0, len(donations))
				for i, d := range donations {
					out = append(out, indexedDonationOutput(i, d))
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			for i, d := range donations {
				if err := writeDonationLine(cmd.OutOrStdout(), i, d); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func newDonationCountCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of donations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			count, err := app.service.GetTotalDonations(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), count)
			return err
		},
	}
}

func newDonationTopCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the largest donation, earliest on ties",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			top, err := app.service.GetTopDonation(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), toDonationOutput(top))
			}
			if top.IsSentinel() {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no donations yet")
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %d %q\n", top.Donor, top.Amount, top.Message)
			return err
		},
	}

	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}
