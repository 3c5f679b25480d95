// Package pattern defines target shapes for cutting experiments.
//
// A [Pattern] is an ordered ring of corner points describing the outline
// plus a traversal trajectory of boundary points the tool follows. Both are
// expressed in sheet coordinates, the same frame the cloth mesh is built in.
//
// # File Formats
//
// Patterns are stored as JSON:
//
//	{
//	  "corners":    [[150, 150], [350, 150], [350, 350], [150, 350]],
//	  "trajectory": [[150, 150], [250, 150], [350, 150], ...]
//	}
//
// or as a GeoJSON FeatureCollection (files ending in .geojson) holding a
// Polygon feature with property "role": "corners" and a LineString feature
// with "role": "trajectory".
//
// # Validation
//
// Loading fails with a LOAD_ERROR when the file is missing, unreadable or
// structurally invalid, and with a [errors.GeometryError] when the outline is
// degenerate. Both are fatal before any simulation runs.
package pattern

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

// MinCorners is the smallest number of corners that can enclose an area.
const MinCorners = 3

// areaEpsilon is the smallest outline area treated as non-degenerate.
const areaEpsilon = 1e-9

// Pattern is a target shape: its outline corners and the boundary trajectory.
type Pattern struct {
	Corners    []orb.Point
	Trajectory []orb.Point
}

// Validate checks that the outline encloses a non-zero area and has no
// zero-length edges. The returned error is a *errors.GeometryError listing
// the offending corner indices, except for an empty trajectory, which is a
// LOAD_ERROR.
func (p *Pattern) Validate() error {
	if len(p.Corners) < MinCorners {
		return &gerrors.GeometryError{
			Reason:  "outline needs at least 3 corners",
			Corners: seq(len(p.Corners)),
		}
	}
	if len(p.Trajectory) == 0 {
		return gerrors.New(gerrors.ErrCodeLoad, "pattern has an empty trajectory")
	}

	var dups []int
	for i, c := range p.Corners {
		next := (i + 1) % len(p.Corners)
		if c.Equal(p.Corners[next]) {
			dups = append(dups, i, next)
		}
	}
	if len(dups) > 0 {
		return &gerrors.GeometryError{
			Reason:  "duplicate corners produce zero-length edges",
			Corners: dups,
		}
	}

	if math.Abs(planar.Area(p.Ring())) < areaEpsilon {
		return &gerrors.GeometryError{
			Reason:  "outline encloses zero area",
			Corners: seq(len(p.Corners)),
		}
	}
	return nil
}

// Ring returns the outline as a closed ring.
func (p *Pattern) Ring() orb.Ring {
	ring := make(orb.Ring, 0, len(p.Corners)+1)
	ring = append(ring, p.Corners...)
	if len(ring) > 0 && !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return ring
}

// Bound returns the bounding box of the outline and trajectory together.
func (p *Pattern) Bound() orb.Bound {
	mp := make(orb.MultiPoint, 0, len(p.Corners)+len(p.Trajectory))
	mp = append(mp, p.Corners...)
	mp = append(mp, p.Trajectory...)
	return mp.Bound()
}

// Shape returns the membership predicate for this pattern's outline.
func (p *Pattern) Shape() *Polygon {
	return &Polygon{ring: p.Ring()}
}

// Polygon is a shape membership predicate backed by a closed ring.
// It is immutable once built.
type Polygon struct {
	ring orb.Ring
}

// Contains reports whether (x, y) lies inside the outline.
// Points exactly on the outline count as inside.
func (s *Polygon) Contains(x, y float64) bool {
	return planar.RingContains(s.ring, orb.Point{x, y})
}

// Ring returns a copy of the closed outline ring.
func (s *Polygon) Ring() orb.Ring {
	return s.ring.Clone()
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
