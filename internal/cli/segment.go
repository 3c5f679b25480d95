package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gauzecut/pkg/pattern"
	"github.com/matzehuels/gauzecut/pkg/pipeline"
	"github.com/matzehuels/gauzecut/pkg/segment"
)

func (c *CLI) segmentCommand() *cobra.Command {
	var (
		orientation string
		tolerance   float64
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "segment <pattern>",
		Short: "Print the notches and cutting segments of a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			opts.Pattern = args[0]
			if cmd.Flags().Changed("orientation") {
				o, err := segment.ParseOrientation(orientation)
				if err != nil {
					return err
				}
				opts.Orientation = o
			}
			if cmd.Flags().Changed("tolerance") {
				opts.Tolerance = tolerance
			}

			p, err := pattern.Load(opts.Pattern)
			if err != nil {
				return err
			}
			res, err := pipeline.NewRunner(nil, nil, nil, c.Logger).Segment(p, opts)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printSegments(p, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&orientation, "orientation", "o", string(pipeline.DefaultOrientation), "tool approach side: right, left, top, bottom")
	cmd.Flags().Float64Var(&tolerance, "tolerance", segment.DefaultTolerance, "coordinate tolerance for plateaus")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the segmentation as JSON")
	return cmd
}

func printSegments(p *pattern.Pattern, res segment.Result) {
	printSuccess("%d boundary points, %d notches, %d segments",
		len(p.Trajectory), len(res.Notches), len(res.Segments))
	printKeyValue("notches", fmt.Sprint(res.Notches))
	for i, s := range res.Segments {
		first, last := s.Indices[0], s.Indices[len(s.Indices)-1]
		printKeyValue(fmt.Sprintf("segment %d", i), fmt.Sprintf("%d points  %s %s %s",
			len(s.Indices), formatPoint(p.Trajectory[first]), iconArrow, formatPoint(p.Trajectory[last])))
	}
}
