// Package search finds the segment ordering that scores best after a full
// simulated cut.
//
// # Strategy
//
// With k segments there are k! orderings. When k! fits in the trial budget
// every ordering is evaluated, in Heap's order starting from the identity.
// Otherwise the identity is evaluated first, followed by distinct shuffles
// drawn from a PCG source seeded with [Options.Seed], until the budget is
// spent. Either way the candidate list depends only on k, the budget and the
// seed, so a search is repeatable.
//
// Trials run on up to [Options.Workers] goroutines, each against its own
// freshly built mesh. Results are aggregated afterwards in candidate order,
// which makes the outcome independent of the worker count and keeps ties on
// the first candidate encountered.
//
// A trial that fails, for example because the physics diverged, is scored
// with [Options.Sentinel] and the search carries on. Only cancellation of
// the context aborts a search.
package search

import (
	"context"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/observability"
	"github.com/matzehuels/gauzecut/pkg/search/perm"
	"github.com/matzehuels/gauzecut/pkg/segment"
	"github.com/matzehuels/gauzecut/pkg/sim"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultBudget is the maximum number of trials per search. It covers
	// every ordering of up to five segments.
	DefaultBudget = 120

	// DefaultWorkers is the number of trials run concurrently.
	DefaultWorkers = 4

	// DefaultSentinel is the score assigned to a failed trial.
	DefaultSentinel = -1e9

	// attemptFactor bounds shuffle attempts at attemptFactor*Budget.
	attemptFactor = 20
)

// Trialer evaluates one isolated trial. *sim.Evaluator implements it.
type Trialer interface {
	Evaluate(ctx context.Context, strokes [][]orb.Point, anchor *orb.Point) (sim.Outcome, error)
}

// Options configures a search.
type Options struct {
	Budget   int     `toml:"budget" json:"budget"`
	Seed     uint64  `toml:"seed" json:"seed"`
	Workers  int     `toml:"workers" json:"workers"`
	Sentinel float64 `toml:"sentinel" json:"sentinel"`

	Logger *log.Logger `toml:"-" json:"-"`
}

// SetDefaults fills zero-valued fields with defaults. A zero Seed is kept
// and a nil Logger discards output.
func (o *Options) SetDefaults() {
	if o.Budget == 0 {
		o.Budget = DefaultBudget
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Sentinel == 0 {
		o.Sentinel = DefaultSentinel
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Budget < 1 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "search budget must be at least 1, got %d", o.Budget)
	}
	if o.Workers < 1 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "search workers must be at least 1, got %d", o.Workers)
	}
	return nil
}

// Candidate is one evaluated ordering.
type Candidate struct {
	Order      []int       `json:"order"`
	Trajectory []orb.Point `json:"trajectory"`
	Trace      []int       `json:"trace"`
	Score      float64     `json:"score"`
	Err        error       `json:"-"`
}

// Failed reports whether the trial failed and carries the sentinel score.
func (c Candidate) Failed() bool { return c.Err != nil }

// Result is the outcome of a search.
type Result struct {
	Best   Candidate `json:"best"`
	Worst  Candidate `json:"worst"`
	Trials int       `json:"trials"`
	Failed int       `json:"failed"`

	// Scores holds every trial's score in candidate order.
	Scores []float64 `json:"scores"`
}

// Aggregate tracks the best and worst candidates seen so far. Best only
// ever rises and Worst only ever falls. A tie keeps the earlier candidate as
// Best and moves Worst to the later one, so two or more candidates never
// report the same one as both.
type Aggregate struct {
	Best  Candidate
	Worst Candidate
	Count int
}

// Add folds c into the aggregate.
func (a *Aggregate) Add(c Candidate) {
	if a.Count == 0 || c.Score > a.Best.Score {
		a.Best = c
	}
	if a.Count == 0 || c.Score <= a.Worst.Score {
		a.Worst = c
	}
	a.Count++
}

// Orderings returns the candidate orderings for k segments.
func Orderings(k, budget int, seed uint64) [][]int {
	if k <= 0 || budget <= 0 {
		return nil
	}
	if perm.FactorialUpTo(k, budget) <= budget {
		return perm.Generate(k, 0)
	}
	return perm.Sample(k, budget, seed, budget*attemptFactor)
}

// Strokes returns one cutting stroke per segment in the given order. Each
// stroke runs through the segment's points and on to the notch that closes
// it, so the strokes of all segments trace the whole closed boundary.
func Strokes(boundary []orb.Point, segs []segment.Segment, order []int) [][]orb.Point {
	out := make([][]orb.Point, 0, len(order))
	for _, k := range order {
		idx := segs[k].Indices
		if len(idx) == 0 {
			continue
		}
		pts := segment.Points(boundary, segs[k])
		pts = append(pts, boundary[(idx[len(idx)-1]+1)%len(boundary)])
		out = append(out, pts)
	}
	return out
}

// Trajectory concatenates the segments' points in the given order.
func Trajectory(boundary []orb.Point, segs []segment.Segment, order []int) []orb.Point {
	var out []orb.Point
	for _, k := range order {
		out = append(out, segment.Points(boundary, segs[k])...)
	}
	return out
}

// Search evaluates candidate orderings of segs over boundary and returns the
// best and worst. anchor may be nil. It fails with EMPTY_BOUNDARY when segs
// is empty.
func Search(ctx context.Context, boundary []orb.Point, segs []segment.Segment, t Trialer, anchor *orb.Point, opts Options) (*Result, error) {
	if len(segs) == 0 || len(boundary) == 0 {
		return nil, gerrors.New(gerrors.ErrCodeEmptyBoundary, "no segments to order")
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	hooks := observability.Search()
	start := time.Now()

	orders := Orderings(len(segs), opts.Budget, opts.Seed)
	hooks.OnSearchStart(ctx, len(orders), opts.Budget)
	logger.Debug("search started", "segments", len(segs), "candidates", len(orders), "workers", opts.Workers)

	cands := make([]Candidate, len(orders))
	durations := make([]time.Duration, len(orders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, order := range orders {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			begin := time.Now()
			c := Candidate{
				Order:      slices.Clone(order),
				Trajectory: Trajectory(boundary, segs, order),
			}
			out, err := t.Evaluate(gctx, Strokes(boundary, segs, order), anchor)
			durations[i] = time.Since(begin)
			if err != nil {
				if isCanceled(err) && gctx.Err() != nil {
					return err
				}
				c.Score, c.Err = opts.Sentinel, err
			} else {
				c.Score, c.Trace = out.Score, out.Visited
			}
			cands[i] = c
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		hooks.OnSearchComplete(ctx, 0, 0, 0, time.Since(start), err)
		return nil, err
	}

	var agg Aggregate
	res := &Result{Scores: make([]float64, len(cands))}
	for i, c := range cands {
		hooks.OnTrialComplete(ctx, i, c.Score, durations[i], c.Err)
		if c.Failed() {
			res.Failed++
			logger.Warn("trial failed", "order", c.Order, "error", c.Err)
		}
		res.Scores[i] = c.Score
		agg.Add(c)
	}
	res.Best, res.Worst, res.Trials = agg.Best, agg.Worst, agg.Count

	hooks.OnSearchComplete(ctx, res.Trials, res.Best.Score, res.Worst.Score, time.Since(start), nil)
	logger.Debug("search complete", "trials", res.Trials, "failed", res.Failed,
		"best", res.Best.Score, "worst", res.Worst.Score, "duration", time.Since(start))
	return res, nil
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
