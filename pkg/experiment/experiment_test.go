package experiment

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

func holdRecord() *Record {
	r := NewRecord("square", Hold)
	r.TotalPts = 9
	r.InitScore = 0
	r.BestScore = 9
	r.WorstScore = -0.1 + 0.2 // not exactly representable
	r.OldTrajectory = []orb.Point{{25, 25}, {55, 25}, {55, 55}, {25, 55}}
	r.Trajectory = []orb.Point{{55, 55}, {25, 55}, {25, 25}, {55, 25}}
	r.Order = []int{1, 0}
	r.IndicesOfPts = []int{60, 57, 30, 33}
	best, worst := orb.Point{10, 40}, orb.Point{math.Pi, 70}
	r.BestPinPt, r.WorstPinPt = &best, &worst
	r.PinPts = []orb.Point{{10, 40}, {math.Pi, 70}}
	r.PinScores = []float64{9, 1.0 / 3}
	return r
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	want := holdRecord()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "square", "hold.json")); err != nil {
		t.Errorf("record file missing: %v", err)
	}
	got, err := s.Load(ctx, "square", Hold)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	got.CreatedAt = want.CreatedAt
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestFileStoreNoHoldOmitsPins(t *testing.T) {
	r := NewRecord("plain", NoHold)
	r.Trajectory = []orb.Point{{1, 2}}
	var buf bytes.Buffer
	if err := WriteJSON(r, &buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if strings.Contains(buf.String(), "pin_pts") || strings.Contains(buf.String(), "best_pin_pt") {
		t.Errorf("nohold record contains pin fields:\n%s", buf.String())
	}
	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if back.BestPinPt != nil || back.RunID != r.RunID {
		t.Errorf("ReadJSON() = %+v", back)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	_, err := s.Load(context.Background(), "absent", NoHold)
	if !gerrors.Is(err, gerrors.ErrCodeNotFound) {
		t.Errorf("Load() error = %v, want %v", err, gerrors.ErrCodeNotFound)
	}
}

func TestFileStoreList(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	if got, err := s.List(ctx, "square"); err != nil || len(got) != 0 {
		t.Errorf("List() before save = %v, %v", got, err)
	}
	for _, v := range []Variant{Hold, NoHold} {
		if err := s.Save(ctx, NewRecord("square", v)); err != nil {
			t.Fatalf("Save(%s) error = %v", v, err)
		}
	}
	got, err := s.List(ctx, "square")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if want := []Variant{NoHold, Hold}; !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	tests := []struct {
		name    string
		variant Variant
	}{
		{"../escape", NoHold},
		{"", NoHold},
		{"ok", Variant("sideways")},
	}
	for _, tt := range tests {
		if err := s.Save(ctx, NewRecord(tt.name, tt.variant)); !gerrors.Is(err, gerrors.ErrCodeInvalidInput) {
			t.Errorf("Save(%q, %q) error = %v, want %v", tt.name, tt.variant, err, gerrors.ErrCodeInvalidInput)
		}
		if _, err := s.Load(ctx, tt.name, tt.variant); !gerrors.Is(err, gerrors.ErrCodeInvalidInput) {
			t.Errorf("Load(%q, %q) error = %v, want %v", tt.name, tt.variant, err, gerrors.ErrCodeInvalidInput)
		}
	}
}

func TestReadJSONInvalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{"))
	if !gerrors.Is(err, gerrors.ErrCodeLoad) {
		t.Errorf("ReadJSON() error = %v, want %v", err, gerrors.ErrCodeLoad)
	}
}

func TestNewRecord(t *testing.T) {
	a, b := NewRecord("x", NoHold), NewRecord("x", NoHold)
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("run IDs %q and %q are not unique", a.RunID, b.RunID)
	}
	if a.ID() != "x/nohold" {
		t.Errorf("ID() = %q, want %q", a.ID(), "x/nohold")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if fs, ok := s.(*FileStore); !ok || fs.Dir() != dir {
		t.Errorf("Open(%q) = %T, want *FileStore at that dir", dir, s)
	}
}

func TestNewMongoStoreBadURL(t *testing.T) {
	_, err := NewMongoStore(context.Background(), "http://localhost", "")
	if !gerrors.Is(err, gerrors.ErrCodeInvalidInput) {
		t.Errorf("NewMongoStore() error = %v, want %v", err, gerrors.ErrCodeInvalidInput)
	}
}
