package segment

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/paulmach/orb"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/pattern"
)

var square = []orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

func segs(r Result) [][]int {
	out := make([][]int, len(r.Segments))
	for i, s := range r.Segments {
		out[i] = s.Indices
	}
	return out
}

func TestSquare(t *testing.T) {
	tests := []struct {
		orientation  Orientation
		wantNotches  []int
		wantSegments [][]int
	}{
		{Right, []int{0, 2}, [][]int{{0, 1}, {2, 3}}},
		{Left, []int{0, 2}, [][]int{{2, 3}, {0, 1}}},
		{Top, []int{1, 3}, [][]int{{1, 2}, {3, 0}}},
		{Bottom, []int{1, 3}, [][]int{{3, 0}, {1, 2}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.orientation), func(t *testing.T) {
			r, err := Segmenter{Orientation: tt.orientation}.Segment(square)
			if err != nil {
				t.Fatalf("Segment() error = %v", err)
			}
			if !reflect.DeepEqual(r.Notches, tt.wantNotches) {
				t.Errorf("Notches = %v, want %v", r.Notches, tt.wantNotches)
			}
			if got := segs(r); !reflect.DeepEqual(got, tt.wantSegments) {
				t.Errorf("Segments = %v, want %v", got, tt.wantSegments)
			}
		})
	}
}

func TestSquareRightExtrema(t *testing.T) {
	r, _ := Segmenter{Orientation: Right}.Segment(square)
	if !reflect.DeepEqual(r.Minima, []int{0}) || !reflect.DeepEqual(r.Maxima, []int{2}) {
		t.Errorf("Minima, Maxima = %v, %v, want [0], [2]", r.Minima, r.Maxima)
	}
	// Either concatenation order reconstructs the boundary.
	for _, order := range [][]int{{0, 1}, {1, 0}} {
		var got []orb.Point
		for _, k := range order {
			got = append(got, Points(square, r.Segments[k])...)
		}
		slices.SortFunc(got, func(a, b orb.Point) int {
			if a[0] != b[0] {
				return int(a[0] - b[0])
			}
			return int(a[1] - b[1])
		})
		want := []orb.Point{{0, 0}, {0, 10}, {10, 0}, {10, 10}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("order %v covers %v, want %v", order, got, want)
		}
	}
}

func TestPartition(t *testing.T) {
	shapes := map[string][]orb.Point{
		"rectangle": mustRect(t, 40, 20, 3),
		"l-shape": pattern.Densify([]orb.Point{
			{0, 0}, {30, 0}, {30, 10}, {10, 10}, {10, 30}, {0, 30},
		}, 4),
		"zigzag": {
			{0, 0}, {5, 8}, {10, 2}, {15, 9}, {20, 1}, {20, 20}, {0, 20},
		},
	}
	for name, boundary := range shapes {
		for _, o := range []Orientation{Right, Left, Top, Bottom} {
			t.Run(fmt.Sprintf("%s/%s", name, o), func(t *testing.T) {
				r, err := Segmenter{Orientation: o}.Segment(boundary)
				if err != nil {
					t.Fatalf("Segment() error = %v", err)
				}
				seen := make(map[int]int)
				for _, idx := range r.Flatten() {
					seen[idx]++
				}
				if len(seen) != len(boundary) {
					t.Errorf("segments cover %d of %d points", len(seen), len(boundary))
				}
				for idx, n := range seen {
					if n != 1 {
						t.Errorf("point %d covered %d times", idx, n)
					}
				}
				for _, s := range r.Segments {
					if len(s.Indices) == 0 {
						t.Error("empty segment")
					}
					if !slices.Contains(r.Notches, s.Indices[0]) {
						t.Errorf("segment starts at %d, not a notch", s.Indices[0])
					}
				}
			})
		}
	}
}

func TestZigzagNotches(t *testing.T) {
	boundary := []orb.Point{{0, 0}, {5, 8}, {10, 2}, {15, 9}, {20, 1}, {20, 20}, {0, 20}}
	r, err := Segmenter{Orientation: Right}.Segment(boundary)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	// y: 0 8 2 9 1 20 20; the closing plateau {5, 6} is a maximum.
	if want := []int{0, 2, 4}; !reflect.DeepEqual(r.Minima, want) {
		t.Errorf("Minima = %v, want %v", r.Minima, want)
	}
	if want := []int{1, 3, 5}; !reflect.DeepEqual(r.Maxima, want) {
		t.Errorf("Maxima = %v, want %v", r.Maxima, want)
	}
	if len(r.Segments) != 6 {
		t.Errorf("len(Segments) = %d, want 6", len(r.Segments))
	}
}

func TestTieBreakFirstEncountered(t *testing.T) {
	// The bottom edge is a plateau of three points; its notch is the first.
	boundary := []orb.Point{{10, 5}, {0, 0}, {5, 0}, {10, 0.0000001}, {10, 10}}
	r, err := Segmenter{Orientation: Right, Tolerance: 1e-3}.Segment(boundary)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if !slices.Contains(r.Minima, 1) {
		t.Errorf("Minima = %v, want the plateau's first point 1", r.Minima)
	}
	for _, idx := range []int{2, 3} {
		if slices.Contains(r.Notches, idx) {
			t.Errorf("Notches = %v contains later plateau point %d", r.Notches, idx)
		}
	}
}

func TestWrappingPlateau(t *testing.T) {
	// The bottom plateau runs from index 4 across the seam to index 0. Its
	// notch is the plateau's first point in traversal order starting at the
	// seam, which is 4.
	boundary := []orb.Point{{0, 0}, {5, 5}, {0, 10}, {-5, 5}, {-1, 0}}
	r, err := Segmenter{Orientation: Right}.Segment(boundary)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if !reflect.DeepEqual(r.Minima, []int{4}) || !reflect.DeepEqual(r.Maxima, []int{2}) {
		t.Errorf("Minima, Maxima = %v, %v, want [4], [2]", r.Minima, r.Maxima)
	}
	if want := [][]int{{4, 0, 1}, {2, 3}}; !reflect.DeepEqual(segs(r), want) {
		t.Errorf("segments = %v, want %v", segs(r), want)
	}
}

func TestFlatBoundary(t *testing.T) {
	boundary := []orb.Point{{0, 5}, {3, 5}, {6, 5}}
	r, err := Segmenter{Orientation: Right}.Segment(boundary)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if got := segs(r); !reflect.DeepEqual(got, [][]int{{0, 1, 2}}) {
		t.Errorf("Segments = %v, want one segment over the whole boundary", got)
	}
}

func TestEmptyBoundary(t *testing.T) {
	_, err := Segmenter{Orientation: Right}.Segment(nil)
	if !gerrors.Is(err, gerrors.ErrCodeEmptyBoundary) {
		t.Errorf("Segment(nil) error = %v, want %v", err, gerrors.ErrCodeEmptyBoundary)
	}
}

func TestParseOrientation(t *testing.T) {
	for _, s := range []string{"right", "left", "top", "bottom"} {
		if o, err := ParseOrientation(s); err != nil || string(o) != s {
			t.Errorf("ParseOrientation(%q) = %q, %v", s, o, err)
		}
	}
	if _, err := ParseOrientation("up"); !gerrors.Is(err, gerrors.ErrCodeInvalidInput) {
		t.Errorf("ParseOrientation(up) error = %v, want %v", err, gerrors.ErrCodeInvalidInput)
	}
}

func mustRect(t *testing.T, w, h, step float64) []orb.Point {
	t.Helper()
	p, err := pattern.Rectangle(orb.Point{}, w, h, step)
	if err != nil {
		t.Fatalf("Rectangle() error = %v", err)
	}
	return p.Trajectory
}

func ExampleSegmenter_Segment() {
	boundary := []orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	r, _ := Segmenter{Orientation: Right}.Segment(boundary)
	fmt.Println(r.Notches, r.Flatten())
	// Output: [0 2] [0 1 2 3]
}
