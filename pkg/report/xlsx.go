package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb"
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/gauzecut/pkg/experiment"
)

// Sheet names written by WriteXLSX.
const (
	SummarySheet = "summary"
	PinSheet     = "pins"
)

var summaryHeader = []any{
	"variant", "run_id", "created_at", "total_pts",
	"init_score", "best_score", "worst_score", "order",
	"best_pin_x", "best_pin_y", "worst_pin_x", "worst_pin_y",
}

// TrajectorySheet names the trajectory sheet of a variant.
func TrajectorySheet(v experiment.Variant) string {
	return "trajectory_" + string(v)
}

// WriteXLSX writes recs as an xlsx workbook to w.
func WriteXLSX(w io.Writer, recs []*experiment.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := writeRow(f, SummarySheet, 1, summaryHeader); err != nil {
		return err
	}
	if err := f.SetRowStyle(SummarySheet, 1, 1, bold); err != nil {
		return err
	}

	row := 2
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		if err := writeRow(f, SummarySheet, row, summaryRow(rec)); err != nil {
			return err
		}
		row++
		if err := writeTrajectory(f, rec, bold); err != nil {
			return err
		}
		if len(rec.PinPts) > 0 {
			if err := writePins(f, rec, bold); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

func summaryRow(rec *experiment.Record) []any {
	order := make([]string, len(rec.Order))
	for i, k := range rec.Order {
		order[i] = fmt.Sprint(k)
	}
	row := []any{
		string(rec.Variant), rec.RunID, rec.CreatedAt, rec.TotalPts,
		rec.InitScore, rec.BestScore, rec.WorstScore, strings.Join(order, " "),
	}
	for _, p := range []*orb.Point{rec.BestPinPt, rec.WorstPinPt} {
		if p == nil {
			row = append(row, nil, nil)
			continue
		}
		row = append(row, p[0], p[1])
	}
	return row
}

// writeTrajectory lists the boundary in segment order next to the searched
// trajectory. Both have the same length.
func writeTrajectory(f *excelize.File, rec *experiment.Record, header int) error {
	sheet := TrajectorySheet(rec.Variant)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := writeRow(f, sheet, 1, []any{"step", "old_x", "old_y", "x", "y"}); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
		return err
	}
	n := max(len(rec.OldTrajectory), len(rec.Trajectory))
	for i := 0; i < n; i++ {
		vals := []any{i}
		vals = append(vals, pointCells(rec.OldTrajectory, i)...)
		vals = append(vals, pointCells(rec.Trajectory, i)...)
		if err := writeRow(f, sheet, i+2, vals); err != nil {
			return err
		}
	}
	return nil
}

func writePins(f *excelize.File, rec *experiment.Record, header int) error {
	if _, err := f.NewSheet(PinSheet); err != nil {
		return err
	}
	if err := writeRow(f, PinSheet, 1, []any{"x", "y", "score"}); err != nil {
		return err
	}
	if err := f.SetRowStyle(PinSheet, 1, 1, header); err != nil {
		return err
	}
	for i, p := range rec.PinPts {
		var score any
		if i < len(rec.PinScores) {
			score = rec.PinScores[i]
		}
		if err := writeRow(f, PinSheet, i+2, []any{p[0], p[1], score}); err != nil {
			return err
		}
	}
	return nil
}

func pointCells(pts []orb.Point, i int) []any {
	if i >= len(pts) {
		return []any{nil, nil}
	}
	return []any{pts[i][0], pts[i][1]}
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}
