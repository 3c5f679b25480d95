// Package pinsearch finds the anchor position that best supports a cut.
//
// Candidate anchors come from a coarse grid laid over the sheet. Grid
// points inside the target shape are dropped, and the rest are subsampled
// with a fixed stride to keep the number of searches manageable. For every
// remaining anchor a full trajectory search runs with that anchor pinned,
// so the cost of a pin search is roughly the number of anchors times the
// trajectory search budget.
package pinsearch

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/matzehuels/gauzecut/pkg/cloth"
	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/search"
	"github.com/matzehuels/gauzecut/pkg/segment"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultSpacing is the distance between neighbouring grid points.
	DefaultSpacing = 10.0

	// DefaultOrigin is the first grid coordinate on both axes.
	DefaultOrigin = 50.0

	// DefaultStride keeps every 20th ambient grid point.
	DefaultStride = 20
)

// Grid describes where candidate anchors are sampled.
type Grid struct {
	Spacing float64 `toml:"spacing" json:"spacing"`
	Origin  float64 `toml:"origin" json:"origin"`

	// Stride keeps every Stride-th candidate. Values of 1 or less keep all.
	Stride int `toml:"stride" json:"stride"`
}

// DefaultGrid returns the default candidate grid.
func DefaultGrid() Grid {
	return Grid{Spacing: DefaultSpacing, Origin: DefaultOrigin, Stride: DefaultStride}
}

// SetDefaults fills zero-valued fields with defaults. A zero Origin is kept.
func (g *Grid) SetDefaults() {
	if g.Spacing == 0 {
		g.Spacing = DefaultSpacing
	}
	if g.Stride == 0 {
		g.Stride = DefaultStride
	}
}

// Validate checks the grid.
func (g Grid) Validate() error {
	if g.Spacing <= 0 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "pin grid spacing must be positive, got %g", g.Spacing)
	}
	return nil
}

// Candidates returns the grid points within bound that lie outside shape,
// ordered by x first and then y, and subsampled by Stride.
func (g Grid) Candidates(shape cloth.Shape, bound orb.Bound) []orb.Point {
	if g.Spacing <= 0 {
		return nil
	}
	var all []orb.Point
	for x := g.first(bound.Min[0]); x <= bound.Max[0]; x += g.Spacing {
		for y := g.first(bound.Min[1]); y <= bound.Max[1]; y += g.Spacing {
			if shape != nil && shape.Contains(x, y) {
				continue
			}
			all = append(all, orb.Point{x, y})
		}
	}
	if g.Stride <= 1 {
		return all
	}
	out := make([]orb.Point, 0, len(all)/g.Stride+1)
	for i := 0; i < len(all); i += g.Stride {
		out = append(out, all[i])
	}
	return out
}

// first returns the first grid coordinate not below lo.
func (g Grid) first(lo float64) float64 {
	if lo <= g.Origin {
		return g.Origin
	}
	return g.Origin + math.Ceil((lo-g.Origin)/g.Spacing)*g.Spacing
}

// Bound returns the sheet extent of a mesh spec.
func Bound(spec cloth.MeshSpec) orb.Bound {
	return orb.Bound{
		Min: orb.Point{spec.OriginX, spec.OriginY},
		Max: orb.Point{spec.OriginX + spec.Width(), spec.OriginY + spec.Height()},
	}
}

// Result is the outcome of a pin search.
type Result struct {
	Best       orb.Point `json:"best_pin_pt"`
	Worst      orb.Point `json:"worst_pin_pt"`
	BestIndex  int       `json:"best_index"`
	WorstIndex int       `json:"worst_index"`
	WorstScore float64   `json:"worst_score"`

	// Anchors and Scores are parallel: Scores[i] is the best trajectory
	// score found with Anchors[i] pinned.
	Anchors []orb.Point `json:"pin_pts"`
	Scores  []float64   `json:"pin_scores"`

	// Search is the trajectory search result for the best anchor.
	Search *search.Result `json:"search"`

	Trials int `json:"trials"`
}

// Search runs a trajectory search for every anchor. The best anchor has the
// highest best score and the worst anchor the lowest worst score; ties keep
// the earlier anchor. It fails with INVALID_INPUT when anchors is empty.
func Search(ctx context.Context, anchors []orb.Point, boundary []orb.Point, segs []segment.Segment, t search.Trialer, opts search.Options) (*Result, error) {
	if len(anchors) == 0 {
		return nil, gerrors.New(gerrors.ErrCodeInvalidInput, "no candidate pin positions")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	start := time.Now()

	res := &Result{
		Anchors: append([]orb.Point(nil), anchors...),
		Scores:  make([]float64, 0, len(anchors)),
	}
	for i, a := range anchors {
		anchor := a
		sr, err := search.Search(ctx, boundary, segs, t, &anchor, opts)
		if err != nil {
			return nil, err
		}
		res.Scores = append(res.Scores, sr.Best.Score)
		res.Trials += sr.Trials
		if i == 0 || sr.Best.Score > res.Search.Best.Score {
			res.Best, res.BestIndex, res.Search = a, i, sr
		}
		if i == 0 || sr.Worst.Score < res.WorstScore {
			res.Worst, res.WorstIndex, res.WorstScore = a, i, sr.Worst.Score
		}
		logger.Debug("pin candidate searched", "index", i, "x", a[0], "y", a[1],
			"best", sr.Best.Score, "worst", sr.Worst.Score)
	}
	logger.Debug("pin search complete", "anchors", len(anchors), "trials", res.Trials,
		"best_x", res.Best[0], "best_y", res.Best[1], "duration", time.Since(start))
	return res, nil
}
