package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gauzecut/pkg/pipeline"
)

func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective pipeline options as TOML",
		Long: `Print the pipeline options as TOML.

Without --config this prints the defaults, a starting point for a config file:

  gauzecut config > gauze.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			return pipeline.WriteOptions(opts, os.Stdout)
		},
	}
}
