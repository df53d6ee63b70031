package cmd

import (
	"os/signal"
	"syscall"

	"github.com/bnema/donation-portal/internal/adapters/httpapi"
	"github.com/spf13/cobra"
)

func newServeCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := cmd.Flags().GetString("addr")
			if err != nil {
				return err
			}

			tokens, err := app.tokens(cmd.Context())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := httpapi.NewServer(app.service, tokens, app.clock, app.logger, httpapi.Options{
				Addr:         addr,
				ReadTimeout:  app.cfg.HTTP.ReadTimeout,
				WriteTimeout: app.cfg.HTTP.WriteTimeout,
				IdleTimeout:  app.cfg.HTTP.IdleTimeout,
			})

			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("addr", app.cfg.HTTP.Addr, "listen address")
	return cmd
}
