package score

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/matzehuels/gauzecut/pkg/cloth"
)

func newMesh(t *testing.T) *cloth.Mesh {
	t.Helper()
	spec := cloth.DefaultMeshSpec()
	spec.Cols, spec.Rows = 5, 5
	spec.DX, spec.DY = 10, 10
	spec.OriginX, spec.OriginY = 0, 0
	m, err := cloth.New(spec, cloth.ShapeFunc(func(x, y float64) bool { return x == 20 && y == 20 }))
	if err != nil {
		t.Fatalf("cloth.New() error = %v", err)
	}
	return m
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		cuts []orb.Point
		want Breakdown
	}{
		{
			name: "uncut",
			want: Breakdown{Offset: 10, Unseparated: 1, Score: 9},
		},
		{
			name: "member freed",
			cuts: []orb.Point{{20, 20}},
			want: Breakdown{Offset: 10, Score: 10},
		},
		{
			name: "ambient corner removed",
			cuts: []orb.Point{{0, 0}},
			want: Breakdown{Offset: 10, Unseparated: 1, RemovedAmbient: 1, Score: 8},
		},
		{
			name: "both",
			cuts: []orb.Point{{20, 20}, {0, 0}},
			want: Breakdown{Offset: 10, RemovedAmbient: 1, Score: 9},
		},
	}

	s := Scorer{Offset: 10}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMesh(t)
			for _, c := range tt.cuts {
				m.Cut(c, 1)
			}
			if got := s.Breakdown(m); got != tt.want {
				t.Errorf("Breakdown() = %+v, want %+v", got, tt.want)
			}
			if got := s.Score(m); got != tt.want.Score {
				t.Errorf("Score() = %v, want %v", got, tt.want.Score)
			}
		})
	}
}

func TestScoreNoSideEffects(t *testing.T) {
	m := newMesh(t)
	before := m.LinkCount()
	s := Scorer{Offset: 1}
	first := s.Score(m)
	second := s.Score(m)
	if first != second {
		t.Errorf("Score() changed between calls: %v then %v", first, second)
	}
	if m.LinkCount() != before {
		t.Errorf("LinkCount() = %d after scoring, want %d", m.LinkCount(), before)
	}
}
