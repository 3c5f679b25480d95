package sim

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/matzehuels/gauzecut/pkg/cache"
	"github.com/matzehuels/gauzecut/pkg/cloth"
	"github.com/matzehuels/gauzecut/pkg/observability"
	"github.com/matzehuels/gauzecut/pkg/score"
)

// Outcome is the result of one trial.
type Outcome struct {
	Score     float64         `json:"score"`
	Breakdown score.Breakdown `json:"breakdown"`
	Visited   []int           `json:"visited,omitempty"`
	Cuts      int             `json:"cuts"`
	Members   int             `json:"members"`
	Cached    bool            `json:"-"`
}

// Evaluator runs isolated trials. Every call builds its own mesh, so an
// Evaluator may be shared by concurrent goroutines as long as its Cache is
// safe for concurrent use.
type Evaluator struct {
	Config Config
	Shape  cloth.Shape
	Scorer score.Scorer

	// ShapeID is a content hash of Shape. Outcomes are only cached when it
	// is set.
	ShapeID string
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
}

// NewEvaluator returns an evaluator with a null cache and a discard logger.
func NewEvaluator(cfg Config, shape cloth.Shape, scorer score.Scorer) *Evaluator {
	return &Evaluator{
		Config: cfg,
		Shape:  shape,
		Scorer: scorer,
		Cache:  cache.NewNullCache(),
		Keyer:  cache.NewDefaultKeyer(),
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
}

// Evaluate runs one trial on a fresh mesh: pin the anchor if given, cut the
// strokes, and score the result. A diverging simulation returns a
// SIMULATION_DIVERGED error.
func (e *Evaluator) Evaluate(ctx context.Context, strokes [][]orb.Point, anchor *orb.Point) (Outcome, error) {
	key := ""
	if e.ShapeID != "" && e.Cache != nil {
		key = e.keyer().TrialKey(e.ShapeID, cache.TrialKeyOpts{
			Config:  e.Config,
			Strokes: strokes,
			Anchor:  anchor,
			Offset:  e.Scorer.Offset,
		})
		var out Outcome
		hit, err := cache.GetJSON(ctx, e.Cache, key, &out)
		if err != nil {
			e.logger().Warn("trial cache read failed", "error", err)
		}
		if hit {
			observability.Cache().OnCacheHit(ctx, "trial")
			out.Cached = true
			return out, nil
		}
		observability.Cache().OnCacheMiss(ctx, "trial")
	}

	start := time.Now()
	d, err := e.prepare(anchor)
	if err != nil {
		return Outcome{}, err
	}
	visited, err := d.Run(ctx, strokes)
	if err != nil {
		return Outcome{}, err
	}
	out := e.outcome(d)
	out.Visited = visited
	e.logger().Debug("trial complete", "score", out.Score, "cuts", out.Cuts, "duration", time.Since(start))

	if key != "" {
		e.store(ctx, key, out)
	}
	return out, nil
}

func (e *Evaluator) store(ctx context.Context, key string, out Outcome) {
	data, err := json.Marshal(out)
	if err == nil {
		err = e.Cache.Set(ctx, key, data, cache.TTLTrial)
	}
	if err != nil {
		e.logger().Warn("trial cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "trial", len(data))
}

// Initial scores a fresh mesh, with the anchor pinned if given, before any
// cut is made.
func (e *Evaluator) Initial(ctx context.Context, anchor *orb.Point) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	d, err := e.prepare(anchor)
	if err != nil {
		return Outcome{}, err
	}
	return e.outcome(d), nil
}

// Driver returns a ready driver for the given anchor, for callers that want
// to observe a replay step by step.
func (e *Evaluator) Driver(anchor *orb.Point) (*Driver, error) {
	return e.prepare(anchor)
}

func (e *Evaluator) prepare(anchor *orb.Point) (*Driver, error) {
	d, err := NewDriver(e.Config, e.Shape)
	if err != nil {
		return nil, err
	}
	if anchor != nil {
		if _, err := d.PinPosition(anchor[0], anchor[1]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (e *Evaluator) outcome(d *Driver) Outcome {
	b := e.Scorer.Breakdown(d.Mesh())
	return Outcome{
		Score:     b.Score,
		Breakdown: b,
		Cuts:      d.Cuts(),
		Members:   len(d.Mesh().Members()),
	}
}

func (e *Evaluator) keyer() cache.Keyer {
	if e.Keyer == nil {
		return cache.NewDefaultKeyer()
	}
	return e.Keyer
}

func (e *Evaluator) logger() *log.Logger {
	if e.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return e.Logger
}
