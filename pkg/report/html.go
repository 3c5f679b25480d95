package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/paulmach/orb"

	"github.com/matzehuels/gauzecut/pkg/cloth"
	"github.com/matzehuels/gauzecut/pkg/experiment"
)

// HTMLOption configures HTML rendering via [RenderHTML].
type HTMLOption func(*htmlRenderer)

type htmlRenderer struct {
	title    string
	snapshot *cloth.Snapshot
}

// WithTitle sets the page title. It defaults to the experiment name.
func WithTitle(t string) HTMLOption { return func(r *htmlRenderer) { r.title = t } }

// WithSnapshot adds a chart of the sheet after the final cut.
func WithSnapshot(s cloth.Snapshot) HTMLOption {
	return func(r *htmlRenderer) { r.snapshot = &s }
}

// RenderHTML writes a chart page for recs to w.
func RenderHTML(w io.Writer, recs []*experiment.Record, options ...HTMLOption) error {
	r := &htmlRenderer{}
	for _, opt := range options {
		opt(r)
	}
	var present []*experiment.Record
	for _, rec := range recs {
		if rec != nil {
			present = append(present, rec)
		}
	}
	if r.title == "" && len(present) > 0 {
		r.title = present[0].Name
	}

	page := components.NewPage()
	page.PageTitle = r.title
	page.AddCharts(scoreChart(r.title, present))
	for _, rec := range present {
		if len(rec.PinPts) > 0 {
			page.AddCharts(pinChart(rec))
		}
	}
	page.AddCharts(trajectoryChart(present))
	if r.snapshot != nil {
		page.AddCharts(snapshotChart(*r.snapshot))
	}
	return page.Render(w)
}

// scoreChart compares initial, best and worst scores per variant.
func scoreChart(title string, recs []*experiment.Record) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Scores", Subtitle: title}),
	)
	variants := make([]string, len(recs))
	initial := make([]opts.BarData, len(recs))
	best := make([]opts.BarData, len(recs))
	worst := make([]opts.BarData, len(recs))
	for i, rec := range recs {
		variants[i] = string(rec.Variant)
		initial[i] = opts.BarData{Value: rec.InitScore}
		best[i] = opts.BarData{Value: rec.BestScore}
		worst[i] = opts.BarData{Value: rec.WorstScore}
	}
	bar.SetXAxis(variants).
		AddSeries("init", initial).
		AddSeries("best", best).
		AddSeries("worst", worst)
	return bar
}

// pinChart shows the best search score for every candidate pin.
func pinChart(rec *experiment.Record) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Pin scores", Subtitle: pinLabel("best", rec.BestPinPt)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "pin"}),
	)
	labels := make([]string, len(rec.PinPts))
	data := make([]opts.BarData, len(rec.PinPts))
	for i, p := range rec.PinPts {
		labels[i] = fmt.Sprintf("(%g, %g)", p[0], p[1])
		if i < len(rec.PinScores) {
			data[i] = opts.BarData{Value: rec.PinScores[i]}
		}
	}
	bar.SetXAxis(labels).AddSeries("score", data)
	return bar
}

// trajectoryChart draws the boundary in segment order and each variant's
// searched trajectory as value-axis lines.
func trajectoryChart(recs []*experiment.Record) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Trajectories"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y", Type: "value"}),
	)
	if len(recs) > 0 {
		line.AddSeries("boundary", lineData(recs[0].OldTrajectory))
	}
	for _, rec := range recs {
		line.AddSeries(string(rec.Variant), lineData(rec.Trajectory))
	}
	return line
}

// snapshotChart scatters member and ambient particles.
func snapshotChart(s cloth.Snapshot) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Sheet", Subtitle: fmt.Sprintf("%d members, %d ambient", len(s.Members), len(s.Ambient))}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y", Type: "value"}),
	)
	sc.AddSeries("members", scatterData(s.Members)).
		AddSeries("ambient", scatterData(s.Ambient))
	return sc
}

func lineData(pts []orb.Point) []opts.LineData {
	out := make([]opts.LineData, len(pts))
	for i, p := range pts {
		out[i] = opts.LineData{Value: []float64{p[0], p[1]}}
	}
	return out
}

func scatterData(pts []orb.Point) []opts.ScatterData {
	out := make([]opts.ScatterData, len(pts))
	for i, p := range pts {
		out[i] = opts.ScatterData{Value: []float64{p[0], p[1]}}
	}
	return out
}

func pinLabel(prefix string, p *orb.Point) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%s (%g, %g)", prefix, p[0], p[1])
}
