package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gauzecut/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve trial evaluation, segmentation and stored records over HTTP.

Trials share the trial cache selected by --cache-url and records are read
from --store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, server.Options{Addr: addr, Timeout: timeout}, c.Logger)
			printInfo("Serving on %s", StyleLink.Render("http://"+addr))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultTimeout, "per-request timeout")
	return cmd
}
