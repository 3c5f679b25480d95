package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/matzehuels/gauzecut/pkg/cache"
	"github.com/matzehuels/gauzecut/pkg/cloth"
	"github.com/matzehuels/gauzecut/pkg/experiment"
	"github.com/matzehuels/gauzecut/pkg/pattern"
	"github.com/matzehuels/gauzecut/pkg/pinsearch"
	"github.com/matzehuels/gauzecut/pkg/score"
	"github.com/matzehuels/gauzecut/pkg/search"
	"github.com/matzehuels/gauzecut/pkg/segment"
	"github.com/matzehuels/gauzecut/pkg/sim"
)

// Runner encapsulates pipeline execution with trial caching and record
// storage. Both CLI and API use it.
//
// The Runner is stateless except for its cache, store and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  experiment.Store
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer uses DefaultKeyer, a nil cache
// disables caching and a nil store skips saving records.
func NewRunner(c cache.Cache, keyer cache.Keyer, store experiment.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  store,
		Logger: logger,
	}
}

// Execute runs the complete pipeline and saves both records.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Load
	p, authored, err := LoadPattern(opts)
	if err != nil {
		return nil, err
	}
	if authored {
		r.Logger.Info("authored pattern", "path", opts.Pattern, "width", opts.Width, "height", opts.Height)
	}
	result := &Result{Pattern: p, Authored: authored}

	// Stage 2: Segment
	seg, err := r.Segment(p, opts)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	result.Segments = seg
	result.Stats.Segments = len(seg.Segments)
	r.Logger.Info("segmented boundary",
		"points", len(p.Trajectory),
		"notches", len(seg.Notches),
		"segments", len(seg.Segments))

	ev, err := r.Evaluator(ctx, p, opts)
	if err != nil {
		return nil, err
	}

	// Stage 3: Search without an anchor
	searchStart := time.Now()
	sr, err := search.Search(ctx, p.Trajectory, seg.Segments, ev, nil, opts.Search)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	result.Search = sr
	result.Stats.Trials += sr.Trials
	result.Stats.FailedTrials += sr.Failed
	result.Stats.SearchTime = time.Since(searchStart)

	noHold, snap, err := r.record(ctx, ev, p, seg, sr, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	noHold.WorstScore = sr.Worst.Score
	result.NoHold, result.Snapshot = noHold, snap
	result.Stats.Members = noHold.TotalPts
	r.Logger.Info("searched orderings",
		"trials", sr.Trials,
		"best", noHold.BestScore,
		"worst", noHold.WorstScore,
		"duration", result.Stats.SearchTime)

	// Stage 4: Pin search
	if !opts.SkipHold {
		pinStart := time.Now()
		anchors := opts.Pin.Candidates(p.Shape(), pinsearch.Bound(opts.Sim.Mesh))
		r.Logger.Debug("pin candidates", "count", len(anchors))
		pr, err := pinsearch.Search(ctx, anchors, p.Trajectory, seg.Segments, ev, opts.Search)
		if err != nil {
			return nil, fmt.Errorf("pin search: %w", err)
		}
		result.Pins = pr
		result.Stats.Trials += pr.Trials
		result.Stats.PinTime = time.Since(pinStart)

		best, worst := pr.Best, pr.Worst
		hold, snap, err := r.record(ctx, ev, p, seg, pr.Search, &best, opts)
		if err != nil {
			return nil, fmt.Errorf("replay pinned: %w", err)
		}
		hold.WorstScore = pr.WorstScore
		hold.BestPinPt, hold.WorstPinPt = &best, &worst
		hold.PinPts, hold.PinScores = pr.Anchors, pr.Scores
		result.Hold, result.Snapshot = hold, snap
		r.Logger.Info("searched pin positions",
			"anchors", len(anchors),
			"trials", pr.Trials,
			"best", hold.BestScore,
			"pin", fmt.Sprintf("(%g, %g)", best[0], best[1]),
			"duration", result.Stats.PinTime)
	}

	if err := r.save(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Segment splits the pattern trajectory into cutting segments.
func (r *Runner) Segment(p *pattern.Pattern, opts Options) (segment.Result, error) {
	s := segment.Segmenter{Orientation: opts.Orientation, Tolerance: opts.Tolerance}
	return s.Segment(p.Trajectory)
}

// Evaluator builds the trial evaluator for a pattern. When opts.ScoreOffset
// is zero the scorer offset is the number of member particles.
func (r *Runner) Evaluator(ctx context.Context, p *pattern.Pattern, opts Options) (*sim.Evaluator, error) {
	ev := sim.NewEvaluator(opts.Sim, p.Shape(), score.Scorer{Offset: opts.ScoreOffset})
	ev.ShapeID = cache.ShapeHash(p.Ring())
	ev.Cache = r.Cache
	ev.Keyer = r.Keyer
	ev.Logger = opts.Logger
	if opts.ScoreOffset == 0 {
		fresh, err := ev.Initial(ctx, nil)
		if err != nil {
			return nil, err
		}
		ev.Scorer.Offset = float64(fresh.Members)
	}
	return ev, nil
}

// record replays the best ordering of sr on a fresh sheet and fills a
// record from it. The replayed score is the record's best score.
func (r *Runner) record(ctx context.Context, ev *sim.Evaluator, p *pattern.Pattern, seg segment.Result, sr *search.Result, anchor *orb.Point, opts Options) (*experiment.Record, cloth.Snapshot, error) {
	variant := experiment.NoHold
	if anchor != nil {
		variant = experiment.Hold
	}
	rec := experiment.NewRecord(opts.Name, variant)

	d, err := ev.Driver(anchor)
	if err != nil {
		return nil, cloth.Snapshot{}, err
	}
	initial := ev.Scorer.Breakdown(d.Mesh())
	visited, err := d.Run(ctx, search.Strokes(p.Trajectory, seg.Segments, sr.Best.Order))
	if err != nil {
		return nil, cloth.Snapshot{}, err
	}
	final := ev.Scorer.Breakdown(d.Mesh())

	rec.TotalPts = len(d.Mesh().Members())
	rec.InitScore = initial.Score
	rec.BestScore = final.Score
	rec.OldTrajectory = seg.Points(p.Trajectory)
	rec.Trajectory = sr.Best.Trajectory
	rec.Order = sr.Best.Order
	rec.IndicesOfPts = visited
	return rec, d.Mesh().Snapshot(), nil
}

func (r *Runner) save(ctx context.Context, res *Result) error {
	if r.Store == nil {
		return nil
	}
	for _, rec := range []*experiment.Record{res.NoHold, res.Hold} {
		if rec == nil {
			continue
		}
		if err := r.Store.Save(ctx, rec); err != nil {
			return fmt.Errorf("save %s record: %w", rec.Variant, err)
		}
		r.Logger.Debug("saved record", "experiment", rec.Name, "variant", rec.Variant, "run_id", rec.RunID)
	}
	return nil
}

// Close releases the runner's cache and store.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// applyLogger sets the runner's logger on options if they carry none.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if opts.Search.Logger == nil {
		opts.Search.Logger = opts.Logger
	}
}
