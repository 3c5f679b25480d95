package cloth

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/gauzecut/pkg/geom"
)

// Cut deactivates every active link whose planar segment passes within
// tolerance of pos and returns how many were cut. Cut links stay cut.
func (m *Mesh) Cut(pos orb.Point, tolerance float64) int {
	n := 0
	for i := range m.links {
		l := &m.links[i]
		if !l.Active {
			continue
		}
		a, b := geom.XY(m.particles[l.A].Pos), geom.XY(m.particles[l.B].Pos)
		if planar.DistanceFromSegment(a, b, pos) <= tolerance {
			l.Active = false
			n++
		}
	}
	m.active -= n
	return n
}

// Pin fixes particle i against gravity and relaxation.
func (m *Mesh) Pin(i int) error {
	if i < 0 || i >= len(m.particles) {
		return ErrOutOfRange
	}
	m.particles[i].Pinned = true
	return nil
}

// Release frees particle i. Its Verlet history is reset so it starts at rest.
func (m *Mesh) Release(i int) error {
	if i < 0 || i >= len(m.particles) {
		return ErrOutOfRange
	}
	p := &m.particles[i]
	p.Pinned = false
	p.Prev = p.Pos
	return nil
}

// Tension moves pinned particle i by delta, bypassing the stepper. Its
// neighbours absorb the displacement on the next Step.
func (m *Mesh) Tension(i int, delta r3.Vec) error {
	if i < 0 || i >= len(m.particles) {
		return ErrOutOfRange
	}
	p := &m.particles[i]
	if !p.Pinned {
		return ErrNotPinned
	}
	p.Pos = r3.Add(p.Pos, delta)
	p.Prev = p.Pos
	p.Tension = r3.Add(p.Tension, delta)
	return nil
}

// Degrees returns the number of active links at each particle.
func (m *Mesh) Degrees() []int {
	deg := make([]int, len(m.particles))
	for _, l := range m.links {
		if l.Active {
			deg[l.A]++
			deg[l.B]++
		}
	}
	return deg
}

// Components labels every particle with the id of its connected component
// over active links. Labels are dense, starting at zero, and assigned in
// order of each component's lowest particle index.
func (m *Mesh) Components() []int {
	g := simple.NewUndirectedGraph()
	for i := range m.particles {
		g.AddNode(simple.Node(i))
	}
	for _, l := range m.links {
		if l.Active {
			g.SetEdge(simple.Edge{F: simple.Node(l.A), T: simple.Node(l.B)})
		}
	}

	lowest := make([]int, len(m.particles))
	for _, cc := range topo.ConnectedComponents(g) {
		lo := len(m.particles)
		for _, n := range cc {
			lo = min(lo, int(n.ID()))
		}
		for _, n := range cc {
			lowest[n.ID()] = lo
		}
	}

	labels := make([]int, len(m.particles))
	ids := make(map[int]int)
	for i, lo := range lowest {
		id, ok := ids[lo]
		if !ok {
			id = len(ids)
			ids[lo] = id
		}
		labels[i] = id
	}
	return labels
}
