// Package segment splits a closed boundary trajectory into cutting segments.
//
// Notches are local extrema of the boundary along the axis orthogonal to the
// tool's approach: y for the "right" and "left" orientations, x for "top" and
// "bottom". Consecutive points whose coordinates differ by no more than the
// tolerance form a plateau, and a plateau whose neighbours on both sides are
// higher is a minimum (both lower, a maximum). Each extremal plateau
// contributes one notch, its first point in traversal order.
//
// Segments run from one notch up to, but not including, the next, wrapping
// around the end of the boundary, so together they cover every boundary
// point exactly once.
package segment

import (
	"math"
	"slices"

	"github.com/paulmach/orb"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

// DefaultTolerance is the plateau tolerance used when none is configured.
const DefaultTolerance = 1e-6

// Orientation is the side the tool approaches the sheet from.
type Orientation string

// Supported orientations.
const (
	Right  Orientation = "right"
	Left   Orientation = "left"
	Top    Orientation = "top"
	Bottom Orientation = "bottom"
)

// ParseOrientation parses one of "right", "left", "top" or "bottom".
func ParseOrientation(s string) (Orientation, error) {
	switch o := Orientation(s); o {
	case Right, Left, Top, Bottom:
		return o, nil
	}
	return "", gerrors.New(gerrors.ErrCodeInvalidInput, "invalid orientation %q (must be one of: right, left, top, bottom)", s)
}

// axis returns the coordinate index notches are measured along.
func (o Orientation) axis() int {
	if o == Top || o == Bottom {
		return 0
	}
	return 1
}

// startsAtMax reports whether the segment list begins at the first maximum
// rather than the first minimum.
func (o Orientation) startsAtMax() bool {
	return o == Left || o == Top
}

// Segment is a contiguous run of boundary indices.
type Segment struct {
	Indices []int `json:"indices"`
}

// Result holds the notches found on a boundary and the segments between
// them. Minima, Maxima and Notches are ascending boundary indices.
type Result struct {
	Minima   []int     `json:"minima"`
	Maxima   []int     `json:"maxima"`
	Notches  []int     `json:"notches"`
	Segments []Segment `json:"segments"`
}

// Flatten concatenates the segments in order.
func (r Result) Flatten() []int {
	var out []int
	for _, s := range r.Segments {
		out = append(out, s.Indices...)
	}
	return out
}

// Points returns the boundary points of every segment, in segment order.
func (r Result) Points(boundary []orb.Point) []orb.Point {
	out := make([]orb.Point, 0, len(boundary))
	for _, s := range r.Segments {
		out = append(out, Points(boundary, s)...)
	}
	return out
}

// Points returns the boundary points of seg.
func Points(boundary []orb.Point, seg Segment) []orb.Point {
	pts := make([]orb.Point, len(seg.Indices))
	for i, idx := range seg.Indices {
		pts[i] = boundary[idx]
	}
	return pts
}

// Segmenter finds notches and segments for one approach orientation.
type Segmenter struct {
	Orientation Orientation
	Tolerance   float64
}

type plateau struct {
	start, n int
}

// Segment partitions boundary. It fails with EMPTY_BOUNDARY when boundary
// has no points. A boundary without extent along the notch axis yields a
// single segment.
func (s Segmenter) Segment(boundary []orb.Point) (Result, error) {
	n := len(boundary)
	if n == 0 {
		return Result{}, gerrors.New(gerrors.ErrCodeEmptyBoundary, "boundary has no points")
	}
	orient := s.Orientation
	if orient == "" {
		orient = Right
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	axis := orient.axis()
	v := func(i int) float64 { return boundary[(i%n+n)%n][axis] }
	same := func(i, j int) bool { return math.Abs(v(i)-v(j)) <= tol }

	plateaus := []plateau{{start: 0, n: 1}}
	for i := 1; i < n; i++ {
		if same(i, i-1) {
			plateaus[len(plateaus)-1].n++
		} else {
			plateaus = append(plateaus, plateau{start: i, n: 1})
		}
	}
	if len(plateaus) > 1 && same(0, n-1) {
		last := plateaus[len(plateaus)-1]
		plateaus = plateaus[:len(plateaus)-1]
		plateaus[0] = plateau{start: last.start, n: last.n + plateaus[0].n}
	}

	var res Result
	if len(plateaus) > 1 {
		for _, p := range plateaus {
			end := p.start + p.n - 1
			before, after := v(p.start-1)-v(p.start), v(end+1)-v(end)
			switch {
			case before > 0 && after > 0:
				res.Minima = append(res.Minima, p.start)
			case before < 0 && after < 0:
				res.Maxima = append(res.Maxima, p.start)
			}
		}
	}
	slices.Sort(res.Minima)
	slices.Sort(res.Maxima)
	res.Notches = append(append([]int(nil), res.Minima...), res.Maxima...)
	slices.Sort(res.Notches)

	if len(res.Notches) == 0 {
		res.Segments = []Segment{{Indices: span(0, n, n)}}
		return res, nil
	}

	first := res.Notches[0]
	switch {
	case orient.startsAtMax() && len(res.Maxima) > 0:
		first = res.Maxima[0]
	case len(res.Minima) > 0:
		first = res.Minima[0]
	}
	k := slices.Index(res.Notches, first)
	m := len(res.Notches)
	for j := 0; j < m; j++ {
		a := res.Notches[(k+j)%m]
		b := res.Notches[(k+j+1)%m]
		length := (b - a + n) % n
		if length == 0 {
			length = n
		}
		res.Segments = append(res.Segments, Segment{Indices: span(a, length, n)})
	}
	return res, nil
}

// span returns length indices starting at start, wrapping modulo n.
func span(start, length, n int) []int {
	out := make([]int, length)
	for i := range out {
		out[i] = (start + i) % n
	}
	return out
}
