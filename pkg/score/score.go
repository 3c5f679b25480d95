// Package score maps a finished cloth mesh to a scalar quality value.
//
// The score rewards cuts that free the target shape from the surrounding
// sheet without shredding it:
//
//	score = Offset - unseparated - removedAmbient
//
// where unseparated counts member particles still connected (over active
// links) to at least one ambient particle, and removedAmbient counts ambient
// particles left with no active links at all. A perfect cut scores Offset.
package score

import (
	"github.com/matzehuels/gauzecut/pkg/cloth"
)

// Scorer evaluates meshes. It holds no state besides Offset and may be used
// from multiple goroutines.
type Scorer struct {
	Offset float64 `toml:"offset" json:"offset"`
}

// Breakdown lists the terms of a score.
type Breakdown struct {
	Offset         float64 `json:"offset"`
	Unseparated    int     `json:"unseparated"`
	RemovedAmbient int     `json:"removed_ambient"`
	Score          float64 `json:"score"`
}

// Score returns the quality of m.
func (s Scorer) Score(m *cloth.Mesh) float64 {
	return s.Breakdown(m).Score
}

// Breakdown returns the score of m together with its terms.
func (s Scorer) Breakdown(m *cloth.Mesh) Breakdown {
	labels := m.Components()
	degrees := m.Degrees()

	touchesAmbient := make(map[int]bool)
	removed := 0
	for _, i := range m.Ambient() {
		if degrees[i] == 0 {
			removed++
			continue
		}
		touchesAmbient[labels[i]] = true
	}

	unseparated := 0
	for _, i := range m.Members() {
		if touchesAmbient[labels[i]] {
			unseparated++
		}
	}

	return Breakdown{
		Offset:         s.Offset,
		Unseparated:    unseparated,
		RemovedAmbient: removed,
		Score:          s.Offset - float64(unseparated) - float64(removed),
	}
}
