package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/experiment"
	"github.com/matzehuels/gauzecut/pkg/pipeline"
	"github.com/matzehuels/gauzecut/pkg/segment"
)

// runOpts holds the flags of the run command. Flags override --config only
// when set explicitly.
type runOpts struct {
	name        string
	orientation string
	budget      int
	seed        uint64
	workers     int
	skipHold    bool
	reportDir   string
}

func (c *CLI) runCommand() *cobra.Command {
	var ro runOpts

	cmd := &cobra.Command{
		Use:   "run [width height] <pattern>",
		Short: "Search the cutting order and pin position for a pattern",
		Long: `Run the full experiment for a pattern file.

The boundary is split into segments, every ordering within the search budget
is cut on a fresh sheet, and the best one is searched again for each candidate
pin position. Both results are stored as the "nohold" and "hold" records of
the experiment.

With a width and height, a rectangular pattern of that size is authored at
<pattern> first if the file does not exist yet.`,
		Example: `  gauzecut run shapes/star.json
  gauzecut run 120 80 shapes/rect.json --budget 24
  gauzecut run shapes/star.geojson --config gauze.toml --report out/`,
		Args: runArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			if err := applyRunArgs(&opts, args); err != nil {
				return err
			}
			if err := ro.apply(cmd, &opts); err != nil {
				return err
			}
			return c.runPipeline(cmd.Context(), opts, ro.reportDir)
		},
	}

	cmd.Flags().StringVar(&ro.name, "name", "", "experiment name (default: pattern file name)")
	cmd.Flags().StringVarP(&ro.orientation, "orientation", "o", string(pipeline.DefaultOrientation), "tool approach side: right, left, top, bottom")
	cmd.Flags().IntVarP(&ro.budget, "budget", "b", 0, "maximum orderings per search (default 120)")
	cmd.Flags().Uint64Var(&ro.seed, "seed", 0, "seed for sampled orderings")
	cmd.Flags().IntVarP(&ro.workers, "workers", "j", 0, "concurrent trials (default 4)")
	cmd.Flags().BoolVar(&ro.skipHold, "skip-hold", false, "skip the pin search")
	cmd.Flags().StringVar(&ro.reportDir, "report", "", "also write xlsx and HTML reports to this directory")

	return cmd
}

func runArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 1 && len(args) != 3 {
		return fmt.Errorf("accepts <pattern> or <width> <height> <pattern>, received %d arg(s)", len(args))
	}
	return nil
}

// applyRunArgs sets the pattern path and, for three arguments, the extent
// of the rectangle to author.
func applyRunArgs(opts *pipeline.Options, args []string) error {
	opts.Pattern = args[len(args)-1]
	if len(args) != 3 {
		return nil
	}
	w, err := strconv.ParseFloat(args[0], 64)
	if err != nil || w <= 0 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "width must be a positive number, got %q", args[0])
	}
	h, err := strconv.ParseFloat(args[1], 64)
	if err != nil || h <= 0 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "height must be a positive number, got %q", args[1])
	}
	opts.Width, opts.Height = w, h
	return nil
}

func (ro *runOpts) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	f := cmd.Flags()
	if f.Changed("name") {
		opts.Name = ro.name
	}
	if f.Changed("orientation") {
		o, err := segment.ParseOrientation(ro.orientation)
		if err != nil {
			return err
		}
		opts.Orientation = o
	}
	if f.Changed("budget") {
		opts.Search.Budget = ro.budget
	}
	if f.Changed("seed") {
		opts.Search.Seed = ro.seed
	}
	if f.Changed("workers") {
		opts.Search.Workers = ro.workers
	}
	if f.Changed("skip-hold") {
		opts.SkipHold = ro.skipHold
	}
	return nil
}

func (c *CLI) runPipeline(ctx context.Context, opts pipeline.Options, reportDir string) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Cutting "+opts.Pattern+"...")
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Run failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Searched %d trials", res.Stats.Trials))

	rec := res.NoHold
	printSuccess("Experiment %s", StyleHighlight.Render(rec.Name))
	if res.Authored {
		printDetail("authored %s", opts.Pattern)
	}
	printStats(res.Stats)
	printKeyValue("order", fmt.Sprint(rec.Order))
	printScore("initial", rec.InitScore, rec.InitScore)
	printScore("best", rec.BestScore, rec.InitScore)
	printScore("worst", rec.WorstScore, rec.InitScore)
	if h := res.Hold; h != nil {
		printKeyValue("pin", formatPoint(*h.BestPinPt))
		printKeyValue("hold order", fmt.Sprint(h.Order))
		printScore("hold best", h.BestScore, rec.BestScore)
		printScore("hold worst", h.WorstScore, h.InitScore)
	}

	if reportDir != "" {
		files, err := writeReports(reportDir, rec.Name, []*experiment.Record{res.NoHold, res.Hold}, &res.Snapshot)
		if err != nil {
			return err
		}
		for _, f := range files {
			printFile(f)
		}
		return nil
	}
	printNextStep("Export a report", "gauzecut report "+rec.Name)
	return nil
}
