package cloth

import (
	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultCols and DefaultRows size the particle grid.
	DefaultCols = 25
	DefaultRows = 25

	// DefaultSpacing is the rest distance between grid neighbours.
	DefaultSpacing = 20.0

	// DefaultOrigin is the x and y coordinate of the first particle.
	DefaultOrigin = 50.0

	// DefaultElasticity is the link stiffness coefficient.
	DefaultElasticity = 0.8

	// DefaultGravity is the acceleration along z.
	DefaultGravity = -100.0

	// DefaultTimeStep is the integration step in seconds.
	DefaultTimeStep = 0.016

	// DefaultDamping scales the Verlet velocity each step.
	DefaultDamping = 0.99

	// DefaultIterations is the number of relaxation passes per step.
	DefaultIterations = 5

	// DefaultMinZ is the floor below which particles cannot fall.
	DefaultMinZ = -50.0
)

// Limits bound the work a single mesh can demand.
const (
	// MaxGridSide is the largest column or row count.
	MaxGridSide = 200

	// MaxIterations is the largest relaxation pass count per step.
	MaxIterations = 100
)

// minStiffness keeps noisy links from going fully slack.
const minStiffness = 0.05

// MeshSpec holds immutable construction parameters for a cloth mesh.
// Zero fields are replaced by defaults in SetDefaults.
type MeshSpec struct {
	Cols    int     `toml:"cols" json:"cols"`
	Rows    int     `toml:"rows" json:"rows"`
	DX      float64 `toml:"dx" json:"dx"`
	DY      float64 `toml:"dy" json:"dy"`
	OriginX float64 `toml:"origin_x" json:"origin_x"`
	OriginY float64 `toml:"origin_y" json:"origin_y"`

	Elasticity float64 `toml:"elasticity" json:"elasticity"`
	Gravity    float64 `toml:"gravity" json:"gravity"`
	TimeStep   float64 `toml:"time_step" json:"time_step"`
	Damping    float64 `toml:"damping" json:"damping"`
	Iterations int     `toml:"iterations" json:"iterations"`
	MinZ       float64 `toml:"min_z" json:"min_z"`

	// FreeBorder leaves the frame perimeter unpinned. By default the
	// perimeter is clamped, like gauze held in a frame.
	FreeBorder bool `toml:"free_border" json:"free_border,omitempty"`

	// Irregularity is the Perlin noise amplitude applied to link stiffness.
	// Zero gives a perfectly uniform sheet.
	Irregularity float64 `toml:"irregularity" json:"irregularity,omitempty"`
	NoiseSeed    int64   `toml:"noise_seed" json:"noise_seed,omitempty"`
}

// DefaultMeshSpec returns a spec with every field at its default.
func DefaultMeshSpec() MeshSpec {
	s := MeshSpec{
		OriginX: DefaultOrigin,
		OriginY: DefaultOrigin,
		Gravity: DefaultGravity,
		MinZ:    DefaultMinZ,
	}
	s.SetDefaults()
	return s
}

// SetDefaults fills zero-valued fields with defaults. Origin, gravity and
// floor are left alone because zero is meaningful for them; start from
// DefaultMeshSpec to get those.
func (s *MeshSpec) SetDefaults() {
	if s.Cols == 0 {
		s.Cols = DefaultCols
	}
	if s.Rows == 0 {
		s.Rows = DefaultRows
	}
	if s.DX == 0 {
		s.DX = DefaultSpacing
	}
	if s.DY == 0 {
		s.DY = DefaultSpacing
	}
	if s.Elasticity == 0 {
		s.Elasticity = DefaultElasticity
	}
	if s.TimeStep == 0 {
		s.TimeStep = DefaultTimeStep
	}
	if s.Damping == 0 {
		s.Damping = DefaultDamping
	}
	if s.Iterations == 0 {
		s.Iterations = DefaultIterations
	}
}

// Validate checks that the spec describes a buildable, stable mesh.
func (s MeshSpec) Validate() error {
	switch {
	case s.Cols < 2 || s.Rows < 2:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "mesh needs at least 2x2 particles, got %dx%d", s.Cols, s.Rows)
	case s.Cols > MaxGridSide || s.Rows > MaxGridSide:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "mesh is limited to %dx%d particles, got %dx%d", MaxGridSide, MaxGridSide, s.Cols, s.Rows)
	case s.DX <= 0 || s.DY <= 0:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "mesh spacing must be positive, got %g, %g", s.DX, s.DY)
	case s.Elasticity <= 0 || s.Elasticity > 1:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "elasticity must be in (0, 1], got %g", s.Elasticity)
	case s.TimeStep <= 0:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "time step must be positive, got %g", s.TimeStep)
	case s.Damping < 0 || s.Damping > 1:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "damping must be in [0, 1], got %g", s.Damping)
	case s.Iterations < 1 || s.Iterations > MaxIterations:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "iterations must be in [1, %d], got %d", MaxIterations, s.Iterations)
	case s.Irregularity < 0:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "irregularity must not be negative, got %g", s.Irregularity)
	}
	return nil
}

// Width returns the extent of the grid along x.
func (s MeshSpec) Width() float64 { return float64(s.Cols-1) * s.DX }

// Height returns the extent of the grid along y.
func (s MeshSpec) Height() float64 { return float64(s.Rows-1) * s.DY }
