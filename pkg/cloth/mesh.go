// Package cloth implements a mass-spring approximation of a deformable sheet.
//
// A [Mesh] is a rectangular grid of [Particle] values joined by structural
// [Link] values to their right and lower neighbours. Each particle is
// classified once, at construction, as a member of the target shape or as
// ambient sheet, using a [Shape] predicate supplied by the caller.
//
// # Lifecycle
//
// Cuts are irreversible. A mesh is built fresh for every trial with [New] and
// discarded afterwards; nothing in this package restores a cut mesh.
//
//	m, err := cloth.New(cloth.DefaultMeshSpec(), pat.Shape())
//	if err != nil {
//	    return err
//	}
//	m.Cut(orb.Point{200, 200}, 5)
//	if err := m.Step(); err != nil {
//	    // SIMULATION_DIVERGED
//	}
//
// # Physics
//
// [Mesh.Step] integrates unpinned particles with damped Verlet under gravity
// along z, clamps them to the floor, then runs a fixed number of relaxation
// passes over active links. Pinned particles only move through
// [Mesh.Tension].
package cloth

import (
	"errors"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/gauzecut/pkg/geom"
)

// Sentinel errors for particle operations.
var (
	ErrNotPinned  = errors.New("cloth: particle is not pinned")
	ErrOutOfRange = errors.New("cloth: particle index out of range")
)

// Perlin parameters for link irregularity.
const (
	noiseAlpha = 2.0
	noiseBeta  = 2.0
	noiseN     = 3
	// noiseFreq keeps samples off the integer lattice, where Perlin noise is zero.
	noiseFreq = 0.037
)

// Shape reports whether a sheet position belongs to the target outline.
type Shape interface {
	Contains(x, y float64) bool
}

// ShapeFunc adapts a plain function to the Shape interface.
type ShapeFunc func(x, y float64) bool

// Contains calls f(x, y).
func (f ShapeFunc) Contains(x, y float64) bool { return f(x, y) }

// Particle is a point mass. Prev holds the position of the previous step for
// Verlet integration. Tension accumulates displacement applied by Tension.
type Particle struct {
	Pos     r3.Vec
	Prev    r3.Vec
	Tension r3.Vec
	Pinned  bool
	Member  bool
}

// Link is an elastic connector between particles A and B.
type Link struct {
	A, B      int
	Rest      float64
	Stiffness float64
	Active    bool
}

// Mesh is a cloth sheet. It is not safe for concurrent use; trials that run
// in parallel each build their own mesh.
type Mesh struct {
	spec      MeshSpec
	particles []Particle
	links     []Link
	members   []int
	ambient   []int
	active    int
}

// New builds a fresh mesh from spec, classifying every particle with shape.
// The member/ambient partition is fixed for the lifetime of the mesh.
func New(spec MeshSpec, shape Shape) (*Mesh, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if shape == nil {
		shape = ShapeFunc(func(float64, float64) bool { return false })
	}

	m := &Mesh{
		spec:      spec,
		particles: make([]Particle, 0, spec.Cols*spec.Rows),
		links:     make([]Link, 0, 2*spec.Cols*spec.Rows),
	}

	for j := 0; j < spec.Rows; j++ {
		for i := 0; i < spec.Cols; i++ {
			pos := r3.Vec{X: spec.OriginX + float64(i)*spec.DX, Y: spec.OriginY + float64(j)*spec.DY}
			p := Particle{Pos: pos, Prev: pos, Member: shape.Contains(pos.X, pos.Y)}
			if !spec.FreeBorder && (i == 0 || j == 0 || i == spec.Cols-1 || j == spec.Rows-1) {
				p.Pinned = true
			}
			idx := len(m.particles)
			m.particles = append(m.particles, p)
			if p.Member {
				m.members = append(m.members, idx)
			} else {
				m.ambient = append(m.ambient, idx)
			}
		}
	}

	var noise *perlin.Perlin
	if spec.Irregularity > 0 {
		noise = perlin.NewPerlin(noiseAlpha, noiseBeta, noiseN, spec.NoiseSeed)
	}
	link := func(a, b int, rest float64) {
		k := spec.Elasticity
		if noise != nil {
			pa, pb := m.particles[a].Pos, m.particles[b].Pos
			n := noise.Noise2D((pa.X+pb.X)/2*noiseFreq, (pa.Y+pb.Y)/2*noiseFreq)
			k = math.Max(minStiffness, math.Min(1, k*(1+spec.Irregularity*n)))
		}
		m.links = append(m.links, Link{A: a, B: b, Rest: rest, Stiffness: k, Active: true})
	}
	for j := 0; j < spec.Rows; j++ {
		for i := 0; i < spec.Cols; i++ {
			idx := j*spec.Cols + i
			if i < spec.Cols-1 {
				link(idx, idx+1, spec.DX)
			}
			if j < spec.Rows-1 {
				link(idx, idx+spec.Cols, spec.DY)
			}
		}
	}
	m.active = len(m.links)
	return m, nil
}

// Spec returns the parameters the mesh was built with.
func (m *Mesh) Spec() MeshSpec { return m.spec }

// Len returns the number of particles.
func (m *Mesh) Len() int { return len(m.particles) }

// Particle returns a copy of particle i.
func (m *Mesh) Particle(i int) Particle { return m.particles[i] }

// Link returns a copy of link i.
func (m *Mesh) Link(i int) Link { return m.links[i] }

// NumLinks returns the number of links ever created, active or cut.
func (m *Mesh) NumLinks() int { return len(m.links) }

// LinkCount returns the number of active links. It never increases.
func (m *Mesh) LinkCount() int { return m.active }

// Members returns the indices of particles inside the target shape.
func (m *Mesh) Members() []int { return append([]int(nil), m.members...) }

// Ambient returns the indices of particles outside the target shape.
func (m *Mesh) Ambient() []int { return append([]int(nil), m.ambient...) }

// Nearest returns the particle closest to (x, y) in the sheet plane. With
// ambientOnly set, member particles are skipped. Ties go to the lower index.
func (m *Mesh) Nearest(x, y float64, ambientOnly bool) (int, bool) {
	target := orb.Point{x, y}
	best, bestD := -1, math.Inf(1)
	for i, p := range m.particles {
		if ambientOnly && p.Member {
			continue
		}
		if d := planar.Distance(target, geom.XY(p.Pos)); d < bestD {
			best, bestD = i, d
		}
	}
	return best, best >= 0
}

// Snapshot is the renderable state of a mesh: the planar positions of member
// and ambient particles plus the endpoints of every active link.
type Snapshot struct {
	Members []orb.Point
	Ambient []orb.Point
	Links   []orb.LineString
}

// Snapshot captures the current member/ambient point sets for a renderer.
func (m *Mesh) Snapshot() Snapshot {
	s := Snapshot{
		Members: make([]orb.Point, 0, len(m.members)),
		Ambient: make([]orb.Point, 0, len(m.ambient)),
		Links:   make([]orb.LineString, 0, m.active),
	}
	for _, i := range m.members {
		s.Members = append(s.Members, geom.XY(m.particles[i].Pos))
	}
	for _, i := range m.ambient {
		s.Ambient = append(s.Ambient, geom.XY(m.particles[i].Pos))
	}
	for _, l := range m.links {
		if l.Active {
			s.Links = append(s.Links, orb.LineString{geom.XY(m.particles[l.A].Pos), geom.XY(m.particles[l.B].Pos)})
		}
	}
	return s
}
