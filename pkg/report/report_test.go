package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/gauzecut/pkg/cloth"
	"github.com/matzehuels/gauzecut/pkg/experiment"
)

func records() []*experiment.Record {
	boundary := []orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	noHold := experiment.NewRecord("square", experiment.NoHold)
	noHold.TotalPts = 9
	noHold.BestScore, noHold.WorstScore = 7, 3
	noHold.OldTrajectory = boundary
	noHold.Trajectory = []orb.Point{{10, 10}, {0, 10}, {0, 0}, {10, 0}}
	noHold.Order = []int{1, 0}

	hold := experiment.NewRecord("square", experiment.Hold)
	hold.TotalPts = 9
	hold.InitScore, hold.BestScore, hold.WorstScore = 1, 8, 2
	hold.OldTrajectory = boundary
	hold.Trajectory = boundary
	hold.Order = []int{0, 1}
	best, worst := orb.Point{30, 50}, orb.Point{70, 50}
	hold.BestPinPt, hold.WorstPinPt = &best, &worst
	hold.PinPts = []orb.Point{best, worst, {50, 90}}
	hold.PinScores = []float64{8, 2, 5}
	return []*experiment.Record{noHold, hold}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, records()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	want := []string{SummarySheet, TrajectorySheet(experiment.NoHold), TrajectorySheet(experiment.Hold), PinSheet}
	if got := f.GetSheetList(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("sheets = %v, want %v", got, want)
	}

	rows, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("summary rows = %d, want 3", len(rows))
	}
	if rows[1][0] != "nohold" || rows[1][7] != "1 0" {
		t.Errorf("nohold row = %v", rows[1])
	}
	if rows[2][0] != "hold" || rows[2][5] != "8" || rows[2][8] != "30" || rows[2][9] != "50" {
		t.Errorf("hold row = %v", rows[2])
	}

	traj, err := f.GetRows(TrajectorySheet(experiment.NoHold))
	if err != nil {
		t.Fatal(err)
	}
	if len(traj) != 5 || traj[1][3] != "10" || traj[1][4] != "10" {
		t.Errorf("trajectory rows = %v", traj)
	}

	pins, err := f.GetRows(PinSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(pins) != 4 || pins[3][2] != "5" {
		t.Errorf("pin rows = %v", pins)
	}
}

func TestWriteXLSXNoHold(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, []*experiment.Record{records()[0], nil}); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if idx, _ := f.GetSheetIndex(PinSheet); idx != -1 {
		t.Errorf("pins sheet written without a hold record")
	}
}

func TestRenderHTML(t *testing.T) {
	snap := cloth.Snapshot{
		Members: []orb.Point{{5, 5}},
		Ambient: []orb.Point{{20, 20}, {25, 20}},
	}
	var buf bytes.Buffer
	if err := RenderHTML(&buf, records(), WithSnapshot(snap)); err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	html := buf.String()
	for _, want := range []string{"<title>square</title>", "Pin scores", "Trajectories", "1 members, 2 ambient"} {
		if !strings.Contains(html, want) {
			t.Errorf("page does not contain %q", want)
		}
	}
}

func TestRenderHTMLWithoutPins(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, records()[:1], WithTitle("solo")); err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "solo") {
		t.Error("page title missing")
	}
	if strings.Contains(html, "Pin scores") || strings.Contains(html, "members, ") {
		t.Error("pin or sheet chart rendered without data")
	}
}
