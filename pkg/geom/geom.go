// Package geom holds the small amount of planar and spatial arithmetic shared
// by the cloth mesh and the tool model.
//
// Planar points are [orb.Point] values; particle positions are gonum
// [r3.Vec] values. Helpers here convert between the two. Planar distances
// come from orb/planar.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"
)

// XY projects a spatial vector onto the sheet plane.
func XY(v r3.Vec) orb.Point {
	return orb.Point{v.X, v.Y}
}

// Finite reports whether every coordinate of v is a finite number.
func Finite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Lerp interpolates between p and q; t=0 yields p and t=1 yields q.
func Lerp(p, q orb.Point, t float64) orb.Point {
	return orb.Point{p[0] + (q[0]-p[0])*t, p[1] + (q[1]-p[1])*t}
}
