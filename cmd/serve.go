package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nepaliabroad/resources/internal/api"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve health and metrics endpoints until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.shutdown()

			return api.NewServer(a.cfg.Server.Port, a.logger).Run(ctx)
		},
	}
}
