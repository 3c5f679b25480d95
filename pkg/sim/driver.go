// Package sim replays cutting trajectories against a cloth mesh.
//
// A [Driver] owns one mesh and one tool for the duration of a trial. For
// every waypoint it moves the tool, cuts along the sweep, optionally tensions
// the anchor away from the tool, and then lets the sheet settle for a few
// physics steps. Strokes are cut with the tool engaged; the tool is lifted
// while travelling between strokes.
//
// [Evaluator] wraps a driver into a side-effect-free trial: it builds a new
// mesh for every call, so independent trials can run on separate goroutines.
package sim

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/gauzecut/pkg/cloth"
	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/tool"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultSettleSteps is the number of physics steps run after each waypoint.
	DefaultSettleSteps = 3

	// DefaultTensionGain is how far the anchor is pulled per waypoint.
	DefaultTensionGain = 0.5

	// DefaultMaxTension caps the total anchor displacement.
	DefaultMaxTension = 40.0
)

// MaxSettleSteps bounds the physics steps run after each waypoint.
const MaxSettleSteps = 100

// Config holds everything a trial needs besides the shape, trajectory and
// anchor.
type Config struct {
	Mesh        cloth.MeshSpec `toml:"mesh" json:"mesh"`
	ToolRadius  float64        `toml:"tool_radius" json:"tool_radius"`
	SettleSteps int            `toml:"settle_steps" json:"settle_steps"`
	TensionGain float64        `toml:"tension_gain" json:"tension_gain"`
	MaxTension  float64        `toml:"max_tension" json:"max_tension"`
}

// DefaultConfig returns a config with every field at its default.
func DefaultConfig() Config {
	c := Config{Mesh: cloth.DefaultMeshSpec()}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	c.Mesh.SetDefaults()
	if c.ToolRadius == 0 {
		c.ToolRadius = tool.DefaultRadius
	}
	if c.SettleSteps == 0 {
		c.SettleSteps = DefaultSettleSteps
	}
	if c.TensionGain == 0 {
		c.TensionGain = DefaultTensionGain
	}
	if c.MaxTension == 0 {
		c.MaxTension = DefaultMaxTension
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	if err := c.Mesh.Validate(); err != nil {
		return err
	}
	switch {
	case c.ToolRadius <= 0:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "tool radius must be positive, got %g", c.ToolRadius)
	case c.SettleSteps < 0 || c.SettleSteps > MaxSettleSteps:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "settle steps must be in [0, %d], got %d", MaxSettleSteps, c.SettleSteps)
	case c.TensionGain < 0 || c.MaxTension < 0:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "tension gain and cap must not be negative")
	}
	return nil
}

// Driver runs one trial at a time against its own mesh.
type Driver struct {
	cfg    Config
	shape  cloth.Shape
	mesh   *cloth.Mesh
	tool   *tool.Tool
	anchor int
	cuts   int
}

// NewDriver builds a driver with a fresh mesh.
func NewDriver(cfg Config, shape cloth.Shape) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{cfg: cfg, shape: shape}
	if err := d.Reset(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reset discards the current mesh and tool and rebuilds both from the
// shape. Cuts are never undone in place.
func (d *Driver) Reset() error {
	m, err := cloth.New(d.cfg.Mesh, d.shape)
	if err != nil {
		return err
	}
	d.mesh = m
	d.tool = tool.New(d.cfg.ToolRadius)
	d.anchor = -1
	d.cuts = 0
	return nil
}

// Mesh returns the current mesh.
func (d *Driver) Mesh() *cloth.Mesh { return d.mesh }

// Tool returns the current tool. Renderers may subscribe to it.
func (d *Driver) Tool() *tool.Tool { return d.tool }

// Cuts returns the number of links cut since the last Reset.
func (d *Driver) Cuts() int { return d.cuts }

// PinPosition pins the ambient particle nearest to (x, y) and makes it the
// tension anchor. It returns the particle index.
func (d *Driver) PinPosition(x, y float64) (int, error) {
	i, ok := d.mesh.Nearest(x, y, true)
	if !ok {
		return -1, gerrors.New(gerrors.ErrCodeInvalidInput, "no ambient particle to pin near (%g, %g)", x, y)
	}
	if err := d.mesh.Pin(i); err != nil {
		return -1, err
	}
	d.anchor = i
	return i, nil
}

// Run cuts every stroke in order and returns the index of the particle
// nearest to each waypoint, in visiting order.
func (d *Driver) Run(ctx context.Context, strokes [][]orb.Point) ([]int, error) {
	var visited []int
	for _, stroke := range strokes {
		v, err := d.Stroke(ctx, stroke)
		visited = append(visited, v...)
		if err != nil {
			return visited, err
		}
	}
	return visited, nil
}

// Stroke travels to the first waypoint with the tool lifted, engages it and
// cuts through the remaining waypoints.
func (d *Driver) Stroke(ctx context.Context, pts []orb.Point) ([]int, error) {
	visited := make([]int, 0, len(pts))
	for k, p := range pts {
		if err := ctx.Err(); err != nil {
			return visited, err
		}
		d.tool.Handle(tool.Move{X: p[0], Y: p[1]})
		if k == 0 {
			d.tool.Handle(tool.Engage{Button: d.tool.CutButton})
		}
		if err := d.Update(); err != nil {
			return visited, err
		}
		if i, ok := d.mesh.Nearest(p[0], p[1], false); ok {
			visited = append(visited, i)
		}
	}
	d.tool.Handle(tool.Disengage{})
	return visited, nil
}

// Update applies the tool to the mesh, tensions the anchor and settles the
// sheet.
func (d *Driver) Update() error {
	d.cuts += d.tool.Apply(d.mesh)
	if err := d.tension(); err != nil {
		return err
	}
	for range d.cfg.SettleSteps {
		if err := d.mesh.Step(); err != nil {
			return err
		}
	}
	return nil
}

// tension pulls the anchor directly away from the tool until the total
// displacement reaches MaxTension.
func (d *Driver) tension() error {
	if d.anchor < 0 || d.cfg.TensionGain == 0 {
		return nil
	}
	p := d.mesh.Particle(d.anchor)
	s := d.tool.State()
	dx, dy := p.Pos.X-s.Pos[0], p.Pos.Y-s.Pos[1]
	n := math.Hypot(dx, dy)
	if n == 0 {
		return nil
	}
	gain := math.Min(d.cfg.TensionGain, d.cfg.MaxTension-r3.Norm(p.Tension))
	if gain <= 0 {
		return nil
	}
	return d.mesh.Tension(d.anchor, r3.Vec{X: dx / n * gain, Y: dy / n * gain})
}
