package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gauzecut/pkg/cloth"
	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/experiment"
	"github.com/matzehuels/gauzecut/pkg/report"
)

func (c *CLI) reportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report <name>",
		Short: "Export a stored experiment as xlsx and HTML charts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReport(cmd.Context(), args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory")
	return cmd
}

func (c *CLI) runReport(ctx context.Context, name, output string) error {
	store, err := experiment.Open(ctx, c.storeURL)
	if err != nil {
		return err
	}
	defer store.Close()

	variants, err := store.List(ctx, name)
	if err != nil {
		return err
	}
	if len(variants) == 0 {
		return gerrors.New(gerrors.ErrCodeNotFound, "experiment %s has no records", name)
	}
	recs := make([]*experiment.Record, 0, len(variants))
	for _, v := range variants {
		rec, err := store.Load(ctx, name, v)
		if err != nil {
			return err
		}
		c.Logger.Debug("loaded record", "variant", v, "run_id", rec.RunID)
		recs = append(recs, rec)
	}

	files, err := writeReports(output, name, recs, nil)
	if err != nil {
		return err
	}
	printSuccess("Report for %s", StyleHighlight.Render(name))
	for _, f := range files {
		printFile(f)
	}
	return nil
}

// writeReports writes <dir>/<name>.xlsx and <dir>/<name>.html and returns
// their paths. snap may be nil.
func writeReports(dir, name string, recs []*experiment.Record, snap *cloth.Snapshot) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	xlsx := filepath.Join(dir, name+".xlsx")
	if err := writeFile(xlsx, func(f *os.File) error { return report.WriteXLSX(f, recs) }); err != nil {
		return nil, err
	}

	var opts []report.HTMLOption
	if snap != nil {
		opts = append(opts, report.WithSnapshot(*snap))
	}
	html := filepath.Join(dir, name+".html")
	if err := writeFile(html, func(f *os.File) error { return report.RenderHTML(f, recs, opts...) }); err != nil {
		return nil, err
	}
	return []string{xlsx, html}, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
