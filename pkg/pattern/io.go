package pattern

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

// Role property values identifying features in GeoJSON pattern files.
const (
	RoleCorners    = "corners"
	RoleTrajectory = "trajectory"
)

type file struct {
	Corners    [][]float64 `json:"corners"`
	Trajectory [][]float64 `json:"trajectory"`
}

// ReadJSON decodes a JSON pattern from r and validates it.
//
// ReadJSON returns a LOAD_ERROR when the document is malformed, when either
// array is absent, or when a point is not an (x, y) pair. Degenerate
// outlines fail with a *errors.GeometryError.
func ReadJSON(r io.Reader) (*Pattern, error) {
	var data file
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeLoad, err, "decode pattern")
	}
	if data.Corners == nil {
		return nil, gerrors.New(gerrors.ErrCodeLoad, "pattern has no corners")
	}
	if len(data.Trajectory) == 0 {
		return nil, gerrors.New(gerrors.ErrCodeLoad, "pattern has no trajectory")
	}

	corners, err := toPoints("corners", data.Corners)
	if err != nil {
		return nil, err
	}
	trajectory, err := toPoints("trajectory", data.Trajectory)
	if err != nil {
		return nil, err
	}

	p := &Pattern{Corners: corners, Trajectory: trajectory}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// WriteJSON encodes p as JSON and writes it to w.
func WriteJSON(p *Pattern, w io.Writer) error {
	out := file{
		Corners:    fromPoints(p.Corners),
		Trajectory: fromPoints(p.Trajectory),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGeoJSON decodes a GeoJSON FeatureCollection pattern from r.
// The collection must contain one Polygon feature with role "corners" and
// one LineString feature with role "trajectory".
func ReadGeoJSON(r io.Reader) (*Pattern, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeLoad, err, "read pattern")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeLoad, err, "decode geojson pattern")
	}

	p := &Pattern{}
	for i, f := range fc.Features {
		role, _ := f.Properties["role"].(string)
		switch role {
		case RoleCorners:
			poly, ok := f.Geometry.(orb.Polygon)
			if !ok || len(poly) == 0 {
				return nil, gerrors.New(gerrors.ErrCodeLoad, "feature %d: corners must be a Polygon", i)
			}
			p.Corners = openRing(poly[0])
		case RoleTrajectory:
			ls, ok := f.Geometry.(orb.LineString)
			if !ok {
				return nil, gerrors.New(gerrors.ErrCodeLoad, "feature %d: trajectory must be a LineString", i)
			}
			p.Trajectory = append([]orb.Point(nil), ls...)
		}
	}
	if p.Corners == nil {
		return nil, gerrors.New(gerrors.ErrCodeLoad, "pattern has no corners feature")
	}
	if len(p.Trajectory) == 0 {
		return nil, gerrors.New(gerrors.ErrCodeLoad, "pattern has no trajectory feature")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// WriteGeoJSON encodes p as a GeoJSON FeatureCollection and writes it to w.
func WriteGeoJSON(p *Pattern, w io.Writer) error {
	fc := geojson.NewFeatureCollection()

	corners := geojson.NewFeature(orb.Polygon{p.Ring()})
	corners.Properties["role"] = RoleCorners
	fc.Append(corners)

	trajectory := geojson.NewFeature(orb.LineString(p.Trajectory))
	trajectory.Properties["role"] = RoleTrajectory
	fc.Append(trajectory)

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Load reads a pattern file. Files ending in .geojson are decoded as
// GeoJSON; everything else as JSON.
func Load(path string) (*Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeLoad, err, "open pattern %s", path)
	}
	defer f.Close()

	if isGeoJSON(path) {
		return ReadGeoJSON(f)
	}
	return ReadJSON(f)
}

// Save writes p to path, choosing the format from the file extension.
// Parent directories are created as needed.
func Save(p *Pattern, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if isGeoJSON(path) {
		return WriteGeoJSON(p, f)
	}
	return WriteJSON(p, f)
}

func isGeoJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".geojson")
}

func toPoints(field string, raw [][]float64) ([]orb.Point, error) {
	pts := make([]orb.Point, len(raw))
	for i, xy := range raw {
		if len(xy) != 2 {
			return nil, gerrors.New(gerrors.ErrCodeLoad, "%s[%d]: want an (x, y) pair, got %d values", field, i, len(xy))
		}
		pts[i] = orb.Point{xy[0], xy[1]}
	}
	return pts, nil
}

func fromPoints(pts []orb.Point) [][]float64 {
	out := make([][]float64, len(pts))
	for i, p := range pts {
		out[i] = []float64{p[0], p[1]}
	}
	return out
}

// openRing drops the closing point GeoJSON rings carry.
func openRing(r orb.Ring) []orb.Point {
	pts := append([]orb.Point(nil), r...)
	if len(pts) > 1 && pts[0].Equal(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	return pts
}
