package cloth

import (
	"gonum.org/v1/gonum/spatial/r3"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
	"github.com/matzehuels/gauzecut/pkg/geom"
)

// Step advances the mesh by one time step.
//
// Unpinned particles are integrated with damped Verlet under gravity and
// clamped to the floor. Then every active link is relaxed toward its rest
// length Iterations times, scaled by its stiffness. A link with one pinned
// end moves only the free end; links between two pinned particles are skipped.
//
// Step returns a SIMULATION_DIVERGED error naming the first particle whose
// position is no longer finite.
func (m *Mesh) Step() error {
	s := m.spec
	g := r3.Vec{Z: s.Gravity * s.TimeStep * s.TimeStep}

	for i := range m.particles {
		p := &m.particles[i]
		if p.Pinned {
			continue
		}
		vel := r3.Scale(s.Damping, r3.Sub(p.Pos, p.Prev))
		p.Prev = p.Pos
		p.Pos = r3.Add(r3.Add(p.Pos, vel), g)
		if p.Pos.Z < s.MinZ {
			p.Pos.Z = s.MinZ
		}
	}

	for it := 0; it < s.Iterations; it++ {
		m.relax()
	}

	for i := range m.particles {
		p := &m.particles[i]
		if !p.Pinned && p.Pos.Z < s.MinZ {
			p.Pos.Z = s.MinZ
		}
		if !geom.Finite(p.Pos) {
			return gerrors.New(gerrors.ErrCodeDiverged, "particle %d has non-finite position (%g, %g, %g)", i, p.Pos.X, p.Pos.Y, p.Pos.Z)
		}
	}
	return nil
}

func (m *Mesh) relax() {
	for _, l := range m.links {
		if !l.Active {
			continue
		}
		a, b := &m.particles[l.A], &m.particles[l.B]
		if a.Pinned && b.Pinned {
			continue
		}
		d := r3.Sub(b.Pos, a.Pos)
		dist := r3.Norm(d)
		if dist == 0 {
			continue
		}
		corr := r3.Scale((dist-l.Rest)/dist*l.Stiffness, d)
		switch {
		case a.Pinned:
			b.Pos = r3.Sub(b.Pos, corr)
		case b.Pinned:
			a.Pos = r3.Add(a.Pos, corr)
		default:
			half := r3.Scale(0.5, corr)
			a.Pos = r3.Add(a.Pos, half)
			b.Pos = r3.Sub(b.Pos, half)
		}
	}
}
