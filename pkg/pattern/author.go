package pattern

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/geom"
)

// Rectangle authors a rectangular design of the given extent with its
// lower-left corner at origin. The trajectory walks the outline once,
// counter-clockwise, with waypoints no further apart than step.
func Rectangle(origin orb.Point, width, height, step float64) (*Pattern, error) {
	if width <= 0 || height <= 0 {
		return nil, gerrors.New(gerrors.ErrCodeInvalidInput, "design extent must be positive, got %gx%g", width, height)
	}
	if step <= 0 {
		return nil, gerrors.New(gerrors.ErrCodeInvalidInput, "waypoint step must be positive, got %g", step)
	}

	x0, y0 := origin[0], origin[1]
	corners := []orb.Point{
		{x0, y0},
		{x0 + width, y0},
		{x0 + width, y0 + height},
		{x0, y0 + height},
	}
	p := &Pattern{Corners: corners, Trajectory: Densify(corners, step)}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Densify walks the closed outline through corners and emits waypoints no
// further apart than step. Every corner is emitted exactly once and the
// closing corner is not repeated.
func Densify(corners []orb.Point, step float64) []orb.Point {
	var out []orb.Point
	for i, a := range corners {
		b := corners[(i+1)%len(corners)]
		n := max(1, int(math.Ceil(planar.Distance(a, b)/step)))
		for k := 0; k < n; k++ {
			out = append(out, geom.Lerp(a, b, float64(k)/float64(n)))
		}
	}
	return out
}
